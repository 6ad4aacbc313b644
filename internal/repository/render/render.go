// Package render turns stored attribute values into display output by
// attribute input type.
package render

import (
	"context"
	"strings"
	"time"

	"golang.org/x/net/html"

	domattr "github.com/kailas-cloud/sitesearch/internal/domain/attribute"
)

// Attribute input types with dedicated output.
const (
	TypeImage    = "image"
	TypeURL      = "url"
	TypeDate     = "date"
	TypeCheckbox = "checkbox"
	TypeListbox  = "listbox-multiple"
	TypeRichText = "richtext"
)

const (
	multiSeparator    = "||"
	storedDateLayout  = "2006-01-02 15:04:05"
	defaultDateLayout = "2006-01-02"
)

// Renderer renders attribute values.
type Renderer struct {
	baseURL    string
	dateLayout string
}

// New creates a renderer. Relative image paths are prefixed with baseURL.
func New(baseURL, dateLayout string) *Renderer {
	if dateLayout == "" {
		dateLayout = defaultDateLayout
	}
	return &Renderer{baseURL: baseURL, dateLayout: dateLayout}
}

// Render returns the display form of a stored value.
func (r *Renderer) Render(_ context.Context, a domattr.Attribute, _ int64, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	switch a.Type() {
	case TypeImage:
		src := value
		if !strings.Contains(src, "://") && !strings.HasPrefix(src, "/") {
			src = r.baseURL + src
		}
		return `<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(a.Name()) + `">`, nil
	case TypeURL:
		v := html.EscapeString(value)
		return `<a href="` + v + `">` + v + `</a>`, nil
	case TypeDate:
		t, err := time.Parse(storedDateLayout, value)
		if err != nil {
			return value, nil
		}
		return t.Format(r.dateLayout), nil
	case TypeCheckbox, TypeListbox:
		parts := strings.Split(value, multiSeparator)
		for i := range parts {
			parts[i] = html.EscapeString(strings.TrimSpace(parts[i]))
		}
		return strings.Join(parts, ", "), nil
	case TypeRichText:
		return value, nil
	}
	return html.EscapeString(value), nil
}
