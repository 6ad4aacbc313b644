package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/sitesearch/internal/domain"
)

func mustField(t *testing.T, q, c string) FieldRef {
	t.Helper()
	f, err := NewField(q, c, KindBase)
	if err != nil {
		t.Fatalf("NewField(%q, %q): %v", q, c, err)
	}
	return f
}

func TestNewField_Validation(t *testing.T) {
	tests := []struct {
		q, c    string
		wantErr bool
	}{
		{"content", "pagetitle", false},
		{"", "pagetitle", false},
		{"content", "page title", true},
		{"con;tent", "id", true},
		{"content", "", true},
		{"content", "1abc", true},
	}
	for _, tc := range tests {
		_, err := NewField(tc.q, tc.c, KindBase)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewField(%q, %q) err = %v, wantErr %v", tc.q, tc.c, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidIdentifier) {
			t.Errorf("expected ErrInvalidIdentifier, got %v", err)
		}
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("Product.price", "content", KindBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.String() != "Product.price" {
		t.Errorf("String() = %q", f.String())
	}
	f, err = ParseField(" menuindex ", "content", KindBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.String() != "content.menuindex" {
		t.Errorf("String() = %q", f.String())
	}
}

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in   string
		want Operator
		ok   bool
	}{
		{"like", OpLike, true},
		{"not  like", OpNotLike, true},
		{"<>", OpNe, true},
		{">=", OpGte, true},
		{"in", OpIn, true},
		{"REGEXP", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseOperator(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseOperator(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAndOr_Collapse(t *testing.T) {
	c := Cond{Field: Output("x"), Op: OpEq, Value: "1"}
	if got := And(nil, c, Raw(" ")); !reflect.DeepEqual(got, c) {
		t.Errorf("And collapse = %#v", got)
	}
	if got := Or(); got != nil {
		t.Errorf("Or() = %#v, want nil", got)
	}
	if got := And(c, c); len(got.(All)) != 2 {
		t.Errorf("And(c, c) = %#v", got)
	}
}

func TestPattern(t *testing.T) {
	tests := []struct {
		term     string
		wildcard bool
		want     string
	}{
		{"alpha", true, "%alpha%"},
		{"alpha", false, "alpha"},
		{"50%_off", true, `%50\%\_off%`},
		{`a\b`, false, `a\\b`},
	}
	for _, tc := range tests {
		if got := Pattern(tc.term, tc.wildcard); got != tc.want {
			t.Errorf("Pattern(%q, %v) = %q, want %q", tc.term, tc.wildcard, got, tc.want)
		}
	}
}

func TestNewTermGroup_NoFields(t *testing.T) {
	if _, ok := NewTermGroup("alpha", nil, true, AllOptional); ok {
		t.Fatal("expected group to be omitted")
	}
}

func TestTermGroup_Combinators(t *testing.T) {
	title := mustField(t, "content", "pagetitle")
	body := mustField(t, "content", "content")
	fields := []FieldRef{title, body}

	titleCond := Cond{Field: title, Op: OpLike, Value: "%alpha%"}
	bodyCond := Cond{Field: body, Op: OpLike, Value: "%alpha%"}

	tests := []struct {
		name    string
		c       Combinator
		want    Node
		mandOut []bool
	}{
		{"first mandatory", FirstMandatoryRestOptional, titleCond, []bool{true, false}},
		{"all optional", AllOptional, Any{titleCond, bodyCond}, []bool{false, false}},
		{"all mandatory", AllMandatory, All{titleCond, bodyCond}, []bool{true, true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, ok := NewTermGroup("alpha", fields, true, tc.c)
			if !ok {
				t.Fatal("expected group")
			}
			for i, cl := range g.Clauses() {
				if cl.Mandatory() != tc.mandOut[i] {
					t.Errorf("clause %d mandatory = %v, want %v", i, cl.Mandatory(), tc.mandOut[i])
				}
			}
			if got := g.Node(); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Node() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestFromAndTerms(t *testing.T) {
	if FromAndTerms(true) != FirstMandatoryRestOptional {
		t.Error("andTerms=true should map to FirstMandatoryRestOptional")
	}
	if FromAndTerms(false) != AllOptional {
		t.Error("andTerms=false should map to AllOptional")
	}
	if Combinator("bogus").IsValid() {
		t.Error("bogus combinator should be invalid")
	}
}
