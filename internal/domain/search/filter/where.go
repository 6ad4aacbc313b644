package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseWhere turns the free-form extra condition into a node.
//
// Input starting with '{' or '[' is decoded as a structured condition: object
// keys take the form [AND:|OR:]field[:operator], array members are ANDed.
// Anything else, including structured input that fails to decode, becomes a
// single literal expression.
func ParseWhere(raw, baseQualifier string) Node {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if raw[0] != '{' && raw[0] != '[' {
		return Raw(raw)
	}
	v, err := decodeOrdered(raw)
	if err != nil {
		return Raw(raw)
	}
	n, err := whereNode(v, baseQualifier)
	if err != nil {
		return Raw(raw)
	}
	return n
}

func whereNode(v any, q string) (Node, error) {
	switch t := v.(type) {
	case object:
		return objectNode(t, q)
	case []any:
		nodes := make([]Node, 0, len(t))
		for _, el := range t {
			n, err := whereNode(el, q)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		return And(nodes...), nil
	case string:
		return Raw(t), nil
	}
	return nil, fmt.Errorf("unsupported condition %T", v)
}

// objectNode folds the entries with SQL precedence: AND binds tighter than OR.
func objectNode(obj object, q string) (Node, error) {
	var runs []Node
	var run []Node
	for i, e := range obj {
		conj, rest := splitConjunction(e.key)
		n, err := entryNode(rest, e.val, q)
		if err != nil {
			return nil, err
		}
		if i > 0 && conj == "OR" {
			runs = append(runs, And(run...))
			run = nil
		}
		run = append(run, n)
	}
	runs = append(runs, And(run...))
	return Or(runs...), nil
}

func splitConjunction(key string) (string, string) {
	head, rest, ok := strings.Cut(key, ":")
	if ok {
		switch strings.ToUpper(strings.TrimSpace(head)) {
		case "AND":
			return "AND", rest
		case "OR":
			return "OR", rest
		}
	}
	return "AND", key
}

func entryNode(key string, val any, q string) (Node, error) {
	if nested, ok := val.(object); ok {
		return objectNode(nested, q)
	}
	if nested, ok := val.([]any); ok && strings.TrimSpace(key) == "" {
		return whereNode(nested, q)
	}

	name, opTok, hasOp := strings.Cut(key, ":")
	field, err := ParseField(name, q, KindBase)
	if err != nil {
		return nil, err
	}

	list, isList := val.([]any)
	op := OpEq
	switch {
	case hasOp:
		parsed, ok := ParseOperator(opTok)
		if !ok {
			return nil, fmt.Errorf("unsupported operator %q", opTok)
		}
		op = parsed
	case isList:
		op = OpIn
	case val == nil:
		op = OpIs
	}

	if op == OpIn || op == OpNotIn {
		if !isList {
			list = []any{val}
		}
		values := make([]any, 0, len(list))
		for _, el := range list {
			sv, err := scalar(el)
			if err != nil {
				return nil, err
			}
			values = append(values, sv)
		}
		return Cond{Field: field, Op: op, Value: values}, nil
	}

	sv, err := scalar(val)
	if err != nil {
		return nil, err
	}
	if sv == nil && op == OpNe {
		op = OpIsNot
	}
	if sv == nil && op == OpEq {
		op = OpIs
	}
	return Cond{Field: field, Op: op, Value: sv}, nil
}

func scalar(v any) (any, error) {
	switch t := v.(type) {
	case nil, string:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t)
		}
		return f, nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

type entry struct {
	key string
	val any
}

// object is a JSON object that keeps key order.
type object []entry

func decodeOrdered(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after condition")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		var obj object
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("decode key: %w", err)
			}
			key, _ := kt.(string)
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, entry{key: key, val: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode object end: %w", err)
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode array end: %w", err)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", d)
}
