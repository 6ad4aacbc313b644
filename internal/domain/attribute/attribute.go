package attribute

import (
	"fmt"
	"slices"
)

// Attribute is a named per-record side value (template variable) with an
// optional default scoped to a set of owning templates.
type Attribute struct {
	id           int64
	name         string
	typ          string
	defaultValue string
	templates    []int64
}

// New validates and creates an Attribute.
func New(id int64, name, typ, defaultValue string, templates []int64) (Attribute, error) {
	if id <= 0 {
		return Attribute{}, fmt.Errorf("attribute id must be positive, got %d", id)
	}
	if name == "" {
		return Attribute{}, fmt.Errorf("attribute name is required")
	}
	if typ == "" {
		typ = "text"
	}
	return Attribute{
		id:           id,
		name:         name,
		typ:          typ,
		defaultValue: defaultValue,
		templates:    templates,
	}, nil
}

// ID returns the attribute identifier.
func (a Attribute) ID() int64 { return a.id }

// Name returns the attribute name.
func (a Attribute) Name() string { return a.name }

// Type returns the input type used by the renderer.
func (a Attribute) Type() string { return a.typ }

// Default returns the default value.
func (a Attribute) Default() string { return a.defaultValue }

// HasDefault reports whether a default value is set.
func (a Attribute) HasDefault() bool { return a.defaultValue != "" }

// Templates returns the ids of the templates owning the attribute.
func (a Attribute) Templates() []int64 { return a.templates }

// OwnedBy reports whether the template is among the owners.
func (a Attribute) OwnedBy(template int64) bool {
	return slices.Contains(a.templates, template)
}

// ValueFor resolves the value a record sees: the stored value when present,
// else the default for owning templates, else empty.
func (a Attribute) ValueFor(template int64, stored string, ok bool) string {
	if ok {
		return stored
	}
	if a.OwnedBy(template) {
		return a.defaultValue
	}
	return ""
}
