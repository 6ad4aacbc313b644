package result

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one matched row keyed by output column name.
type Record map[string]any

// ID returns the record identifier from the "id" column.
func (r Record) ID() (int64, bool) {
	return toInt64(r["id"])
}

// Int returns a column as an integer.
func (r Record) Int(field string) (int64, bool) {
	return toInt64(r[field])
}

// Text returns a column as a string. ok is false when the column is absent or NULL.
func (r Record) Text(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case time.Time:
		return t.Format(time.DateTime), true
	}
	return fmt.Sprint(v), true
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Scored pairs a record with its relevance score.
type Scored struct {
	Record Record
	Score  int
}

// DebugInfo surfaces the generated queries and timing of one search.
type DebugInfo struct {
	SearchID string   `json:"search_id"`
	Mode     string   `json:"mode,omitempty"`
	CountSQL string   `json:"count_sql,omitempty"`
	SQL      string   `json:"sql,omitempty"`
	Args     []any    `json:"args,omitempty"`
	Terms    []string `json:"terms,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Response is the outcome of one search call.
type Response struct {
	Total   int        `json:"total"`
	Results []Record   `json:"results"`
	Debug   *DebugInfo `json:"debug,omitempty"`
}

// Empty returns a response with no results.
func Empty() Response {
	return Response{Results: []Record{}}
}
