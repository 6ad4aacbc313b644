package plan

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/sitesearch/internal/domain/search/filter"
)

func TestBuilder(t *testing.T) {
	title := BaseField("pagetitle")
	g, _ := filter.NewTermGroup("alpha", []filter.FieldRef{title}, true, filter.AllOptional)
	pub := filter.Cond{Field: BaseField("published"), Op: filter.OpEq, Value: int64(1)}

	p := New("site_content").
		Filter(pub, nil).
		Group(g).
		OrderBy(SortKey{Field: BaseField("id"), Dir: Asc}).
		Page(-1, -5).
		Build()

	if p.Table != "site_content" {
		t.Errorf("Table = %q", p.Table)
	}
	if len(p.Filters) != 1 {
		t.Errorf("Filters = %d, want 1", len(p.Filters))
	}
	if p.Limit != 0 || p.Offset != 0 {
		t.Errorf("Limit/Offset = %d/%d, want 0/0", p.Limit, p.Offset)
	}
	if p.Distinct() {
		t.Error("plan without joins should not be distinct")
	}

	want := filter.All{pub, filter.Cond{Field: title, Op: filter.OpLike, Value: "%alpha%"}}
	if got := p.Where(); !reflect.DeepEqual(got, want) {
		t.Errorf("Where() = %#v, want %#v", got, want)
	}
}

func TestPlan_Columns(t *testing.T) {
	def := "0"
	p := New("site_content").Join(
		JoinSpec{Alias: "TVprice", Columns: []Column{{Field: filter.Output("x"), Default: &def, As: "price"}}},
		JoinSpec{Alias: "Product", Columns: []Column{{Field: filter.Output("y"), As: "sku"}}},
	).Build()

	cols := p.Columns()
	if len(cols) != 2 || cols[0].As != "price" || cols[1].As != "sku" {
		t.Errorf("Columns() = %+v", cols)
	}
	if !p.Distinct() {
		t.Error("plan with joins should be distinct")
	}
}

func TestWithPage_DoesNotMutate(t *testing.T) {
	base := New("site_content").Page(10, 20).Build()
	paged := base.WithPage([]SortKey{{Field: BaseField("id"), Dir: Asc}}, 0, 0)

	if base.Limit != 10 || len(base.Sort) != 0 {
		t.Errorf("base mutated: %+v", base)
	}
	if paged.Limit != 0 || len(paged.Sort) != 1 {
		t.Errorf("paged = %+v", paged)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"asc", Asc, true},
		{" DESC ", Desc, true},
		{"sideways", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseDirection(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseDirection(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsContentColumn(t *testing.T) {
	if !IsContentColumn("menuindex") {
		t.Error("menuindex should be a content column")
	}
	if IsContentColumn("price") {
		t.Error("price should not be a content column")
	}
}
