package filter

import (
	"reflect"
	"testing"
)

func TestParseWhere_Empty(t *testing.T) {
	if n := ParseWhere("   ", "content"); n != nil {
		t.Errorf("ParseWhere(blank) = %#v, want nil", n)
	}
}

func TestParseWhere_Literal(t *testing.T) {
	got := ParseWhere("content.template = 3", "content")
	if got != Raw("content.template = 3") {
		t.Errorf("got %#v", got)
	}
}

func TestParseWhere_MalformedJSON(t *testing.T) {
	in := `{"template": 3`
	if got := ParseWhere(in, "content"); got != Raw(in) {
		t.Errorf("got %#v, want literal wrapper", got)
	}
}

func TestParseWhere_UnknownOperator(t *testing.T) {
	in := `{"template:REGEXP": "x"}`
	if got := ParseWhere(in, "content"); got != Raw(in) {
		t.Errorf("got %#v, want literal wrapper", got)
	}
}

func TestParseWhere_Object(t *testing.T) {
	got := ParseWhere(`{"template": 3, "Product.price:>=": 10.5, "OR:parent:IN": [1, 2]}`, "content")

	tpl, _ := NewField("content", "template", KindBase)
	price, _ := NewField("Product", "price", KindBase)
	parent, _ := NewField("content", "parent", KindBase)

	want := Any{
		All{
			Cond{Field: tpl, Op: OpEq, Value: int64(3)},
			Cond{Field: price, Op: OpGte, Value: 10.5},
		},
		Cond{Field: parent, Op: OpIn, Value: []any{int64(1), int64(2)}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %#v\nwant %#v", got, want)
	}
}

func TestParseWhere_KeyOrderPreserved(t *testing.T) {
	got := ParseWhere(`{"b": 1, "OR:a": 2}`, "content")
	or, ok := got.(Any)
	if !ok || len(or) != 2 {
		t.Fatalf("got %#v", got)
	}
	first := or[0].(Cond)
	if first.Field.Column() != "b" {
		t.Errorf("first column = %q, want %q", first.Field.Column(), "b")
	}
}

func TestParseWhere_ArrayAndNull(t *testing.T) {
	got := ParseWhere(`[{"alias": null}, "content.id > 5", {"published": true}]`, "content")

	alias, _ := NewField("content", "alias", KindBase)
	pub, _ := NewField("content", "published", KindBase)
	want := All{
		Cond{Field: alias, Op: OpIs, Value: nil},
		Raw("content.id > 5"),
		Cond{Field: pub, Op: OpEq, Value: int64(1)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %#v\nwant %#v", got, want)
	}
}

func TestParseWhere_NestedGroup(t *testing.T) {
	got := ParseWhere(`{"template": 1, "OR:": {"parent": 2, "menuindex:<": 3}}`, "content")
	or, ok := got.(Any)
	if !ok || len(or) != 2 {
		t.Fatalf("got %#v", got)
	}
	if _, ok := or[1].(All); !ok {
		t.Errorf("nested group = %#v, want All", or[1])
	}
}
