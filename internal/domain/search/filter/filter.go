package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/sitesearch/internal/domain"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is a plain SQL identifier.
func IsIdentifier(s string) bool { return identRe.MatchString(s) }

// Kind is the origin of a field.
type Kind uint8

// Field kinds.
const (
	// KindBase is a column of the base content table.
	KindBase Kind = iota
	// KindAttribute is the value column of an attribute join.
	KindAttribute
	// KindExternal is a column of an external source join.
	KindExternal
	// KindOutput is a projected output name.
	KindOutput
)

// FieldRef is a fully-qualified field identifier.
type FieldRef struct {
	qualifier string
	column    string
	kind      Kind
}

// NewField validates and creates a FieldRef. qualifier may be empty.
func NewField(qualifier, column string, kind Kind) (FieldRef, error) {
	if qualifier != "" && !IsIdentifier(qualifier) {
		return FieldRef{}, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, qualifier)
	}
	if !IsIdentifier(column) {
		return FieldRef{}, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, column)
	}
	return FieldRef{qualifier: qualifier, column: column, kind: kind}, nil
}

// ParseField parses "alias.column" or "column"; a bare column gets defaultQualifier.
func ParseField(s, defaultQualifier string, kind Kind) (FieldRef, error) {
	s = strings.TrimSpace(s)
	if q, c, ok := strings.Cut(s, "."); ok {
		return NewField(q, c, kind)
	}
	return NewField(defaultQualifier, s, kind)
}

// Output references a projected output name. Any non-empty name is accepted;
// renderers quote it.
func Output(name string) FieldRef {
	return FieldRef{column: name, kind: KindOutput}
}

// Qualifier returns the table alias, empty for output names.
func (f FieldRef) Qualifier() string { return f.qualifier }

// Column returns the column or output name.
func (f FieldRef) Column() string { return f.column }

// Kind returns the field origin.
func (f FieldRef) Kind() Kind { return f.kind }

// IsZero reports whether the ref is unset.
func (f FieldRef) IsZero() bool { return f.column == "" }

// String returns the dotted form for logs and debug output.
func (f FieldRef) String() string {
	if f.qualifier == "" {
		return f.column
	}
	return f.qualifier + "." + f.column
}

// Operator is a comparison operator.
type Operator string

// Supported operators.
const (
	OpEq      Operator = "="
	OpNe      Operator = "!="
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpLike    Operator = "LIKE"
	OpNotLike Operator = "NOT LIKE"
	OpIn      Operator = "IN"
	OpNotIn   Operator = "NOT IN"
	OpIs      Operator = "IS"
	OpIsNot   Operator = "IS NOT"
)

// ParseOperator normalizes an operator token.
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
	if op == "<>" {
		return OpNe, true
	}
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpLike, OpNotLike, OpIn, OpNotIn, OpIs, OpIsNot:
		return op, true
	}
	return "", false
}

// Node is an element of a boolean filter tree.
type Node interface {
	node()
}

// Cond compares a field with a bound value. Value is nil for NULL checks and
// a slice for IN lists.
type Cond struct {
	Field FieldRef
	Op    Operator
	Value any
}

// FieldEq compares two fields for equality.
type FieldEq struct {
	Left  FieldRef
	Right FieldRef
}

// All is a conjunction.
type All []Node

// Any is a disjunction.
type Any []Node

// Raw is a literal expression passed through verbatim.
type Raw string

func (Cond) node()    {}
func (FieldEq) node() {}
func (All) node()     {}
func (Any) node()     {}
func (Raw) node()     {}

// And combines nodes with AND, dropping nils and collapsing single members.
func And(nodes ...Node) Node {
	out := compact(nodes)
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return All(out)
}

// Or combines nodes with OR, dropping nils and collapsing single members.
func Or(nodes ...Node) Node {
	out := compact(nodes)
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return Any(out)
}

func compact(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if r, ok := n.(Raw); ok && strings.TrimSpace(string(r)) == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
