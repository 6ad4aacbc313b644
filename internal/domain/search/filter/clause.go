package filter

import "strings"

// Combinator decides how the field clauses of one term group combine.
type Combinator string

// Combination policies.
const (
	// FirstMandatoryRestOptional makes the first field a required match;
	// the rest only matter for ranking.
	FirstMandatoryRestOptional Combinator = "first_mandatory"
	// AllOptional lets any field satisfy the group.
	AllOptional Combinator = "all_optional"
	// AllMandatory requires every field to match.
	AllMandatory Combinator = "all_mandatory"
)

// IsValid checks if the combinator is one of the supported values.
func (c Combinator) IsValid() bool {
	return c == FirstMandatoryRestOptional || c == AllOptional || c == AllMandatory
}

// FromAndTerms maps the legacy andTerms flag to a combinator.
func FromAndTerms(andTerms bool) Combinator {
	if andTerms {
		return FirstMandatoryRestOptional
	}
	return AllOptional
}

// LikeEscape is the escape character used in LIKE patterns.
const LikeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Pattern escapes LIKE metacharacters in term and wraps it in wildcards
// when wildcard is set.
func Pattern(term string, wildcard bool) string {
	p := likeEscaper.Replace(term)
	if wildcard {
		return "%" + p + "%"
	}
	return p
}

// Clause is one LIKE comparison of a field against a term pattern.
type Clause struct {
	field     FieldRef
	pattern   string
	mandatory bool
}

// Field returns the compared field.
func (c Clause) Field() FieldRef { return c.field }

// Pattern returns the LIKE pattern.
func (c Clause) Pattern() string { return c.pattern }

// Mandatory reports whether the clause must match for the group to match.
func (c Clause) Mandatory() bool { return c.mandatory }

// Node returns the LIKE condition.
func (c Clause) Node() Node {
	return Cond{Field: c.field, Op: OpLike, Value: c.pattern}
}

// TermGroup holds the clauses built for one search term.
type TermGroup struct {
	term    string
	clauses []Clause
}

// NewTermGroup builds one clause per field. ok is false when there are no
// fields, in which case the group must be omitted.
func NewTermGroup(term string, fields []FieldRef, wildcard bool, c Combinator) (TermGroup, bool) {
	if len(fields) == 0 {
		return TermGroup{}, false
	}
	pattern := Pattern(term, wildcard)
	clauses := make([]Clause, len(fields))
	for i, f := range fields {
		mandatory := false
		switch c {
		case AllMandatory:
			mandatory = true
		case FirstMandatoryRestOptional:
			mandatory = i == 0
		}
		clauses[i] = Clause{field: f, pattern: pattern, mandatory: mandatory}
	}
	return TermGroup{term: term, clauses: clauses}, true
}

// Term returns the search term.
func (g TermGroup) Term() string { return g.term }

// Clauses returns the field clauses in field order.
func (g TermGroup) Clauses() []Clause { return g.clauses }

// Node renders the group: the conjunction of mandatory clauses when any
// exist, otherwise the disjunction of the optional ones.
func (g TermGroup) Node() Node {
	var must, should []Node
	for _, c := range g.clauses {
		if c.mandatory {
			must = append(must, c.Node())
		} else {
			should = append(should, c.Node())
		}
	}
	if len(must) > 0 {
		return And(must...)
	}
	return Or(should...)
}
