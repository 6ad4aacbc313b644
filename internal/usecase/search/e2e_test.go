package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore/sqlstoretest"
	domattr "github.com/kailas-cloud/sitesearch/internal/domain/attribute"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
	domsrc "github.com/kailas-cloud/sitesearch/internal/domain/source"
	"github.com/kailas-cloud/sitesearch/internal/repository/policy"
	"github.com/kailas-cloud/sitesearch/internal/repository/source"
)

type upperRenderer struct{}

func (upperRenderer) Render(_ context.Context, _ domattr.Attribute, _ int64, v string) (string, error) {
	return strings.ToUpper(v), nil
}

func byID(rows []result.Record) map[int64]result.Record {
	out := make(map[int64]result.Record, len(rows))
	for _, r := range rows {
		id, _ := r.ID()
		out[id] = r
	}
	return out
}

func TestE2E_IdentityFilters(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "Alpha page"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "Beta page"},
		sqlstoretest.Doc{ID: 3, Pagetitle: "alpha draft", Unpublished: true},
		sqlstoretest.Doc{ID: 4, Pagetitle: "alpha private", Hidden: true},
		sqlstoretest.Doc{ID: 5, Pagetitle: "alpha trash", Deleted: true},
		sqlstoretest.Doc{ID: 6, Pagetitle: "alpha manager", Context: "mgr"},
	)
	svc := newStoreService(t, s)
	ctx := context.Background()

	resp := svc.Search(ctx, "alpha", nil)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, []int64{1}, ids(resp.Results))

	resp = svc.Search(ctx, "alpha", map[string]string{"contexts": "web,mgr"})
	assert.Equal(t, 2, resp.Total)
	assert.ElementsMatch(t, []int64{1, 6}, ids(resp.Results))

	resp = svc.Search(ctx, "gamma", nil)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Results)
}

func TestE2E_InMemoryCeilingSwitchesToSQLSort(t *testing.T) {
	var docs []sqlstoretest.Doc
	for i := int64(1); i <= 10; i++ {
		docs = append(docs, sqlstoretest.Doc{ID: i, Pagetitle: "item"})
	}
	svc := newStoreService(t, seedStore(t, docs...))

	resp := svc.Search(context.Background(), "item", map[string]string{
		"maxCountPhpSort": "5", "perPage": "3", "debug": "1",
	})
	assert.Equal(t, 10, resp.Total)
	assert.Equal(t, []int64{1, 2, 3}, ids(resp.Results))
	require.NotNil(t, resp.Debug)
	assert.Equal(t, string(mode.SQLSorted), resp.Debug.Mode)

	resp = svc.Search(context.Background(), "item", map[string]string{
		"maxCountPhpSort": "10", "perPage": "3", "debug": "1",
	})
	assert.Equal(t, string(mode.Scored), resp.Debug.Mode)
	assert.Equal(t, []int64{1, 2, 3}, ids(resp.Results))
}

func TestE2E_TermCombinators(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "foo", Content: "bar"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "bar", Content: "foo"},
		sqlstoretest.Doc{ID: 3, Pagetitle: "foo bar", Content: "none"},
	)
	svc := newStoreService(t, s)
	base := map[string]string{"useAllWords": "1", "docFields": "pagetitle,content"}

	tests := []struct {
		name  string
		extra map[string]string
		want  []int64
	}{
		{"first mandatory", nil, []int64{3}},
		{"all optional", map[string]string{"andTerms": "0"}, []int64{1, 2, 3}},
		{"all mandatory", map[string]string{"termCombinator": "all_mandatory"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := map[string]string{}
			for k, v := range base {
				opts[k] = v
			}
			for k, v := range tc.extra {
				opts[k] = v
			}
			resp := svc.Search(context.Background(), "foo bar", opts)
			assert.Equal(t, len(tc.want), resp.Total)
			assert.ElementsMatch(t, tc.want, ids(resp.Results))
		})
	}
}

func TestE2E_MatchWildcard(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "Alpha"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "alphabet"},
	)
	svc := newStoreService(t, s)

	resp := svc.Search(context.Background(), "alpha", nil)
	assert.Equal(t, 2, resp.Total)

	resp = svc.Search(context.Background(), "alpha", map[string]string{"matchWildcard": "0"})
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, []int64{1}, ids(resp.Results))
}

func TestE2E_LikeMetacharactersAreLiteral(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "100% cotton"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "100 cotton"},
		sqlstoretest.Doc{ID: 3, Pagetitle: "snake_case"},
		sqlstoretest.Doc{ID: 4, Pagetitle: "snakeXcase"},
	)
	svc := newStoreService(t, s)

	assert.Equal(t, []int64{1}, ids(svc.Search(context.Background(), "100%", nil).Results))
	assert.Equal(t, []int64{3}, ids(svc.Search(context.Background(), "snake_case", nil).Results))
}

func TestE2E_PaginationWindows(t *testing.T) {
	var docs []sqlstoretest.Doc
	for i := int64(1); i <= 7; i++ {
		docs = append(docs, sqlstoretest.Doc{ID: i, Pagetitle: "page"})
	}
	svc := newStoreService(t, seedStore(t, docs...))
	ctx := context.Background()

	first := svc.Search(ctx, "page", map[string]string{"perPage": "3"})
	again := svc.Search(ctx, "page", map[string]string{"perPage": "3"})
	assert.Equal(t, first, again)

	seen := map[int64]bool{}
	for _, start := range []string{"0", "3", "6"} {
		resp := svc.Search(ctx, "page", map[string]string{"perPage": "3", "start": start})
		assert.Equal(t, 7, resp.Total)
		for _, id := range ids(resp.Results) {
			assert.False(t, seen[id], "id %d on two pages", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 7)

	past := svc.Search(ctx, "page", map[string]string{"perPage": "3", "start": "20"})
	assert.Equal(t, 7, past.Total)
	assert.Empty(t, past.Results)

	withParam := svc.WithParams(Params{"search_offset": "6"}).Search(ctx, "page", map[string]string{"perPage": "3"})
	assert.Len(t, withParam.Results, 1)
}

func TestE2E_FieldPotency(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "other", Content: "alpha alpha"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "alpha", Content: "other"},
		sqlstoretest.Doc{ID: 3, Pagetitle: "other", Content: "other alpha"},
	)
	svc := newStoreService(t, s)
	opts := map[string]string{"andTerms": "0", "docFields": "pagetitle,content"}

	resp := svc.Search(context.Background(), "alpha", opts)
	assert.Equal(t, []int64{1, 2, 3}, ids(resp.Results))

	opts["fieldPotency"] = "pagetitle:10"
	resp = svc.Search(context.Background(), "alpha", opts)
	assert.Equal(t, []int64{2, 1, 3}, ids(resp.Results))
}

func TestE2E_SortBy(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "page", MenuIndex: 3},
		sqlstoretest.Doc{ID: 2, Pagetitle: "page", MenuIndex: 1},
		sqlstoretest.Doc{ID: 3, Pagetitle: "page", MenuIndex: 2},
	)
	svc := newStoreService(t, s)

	resp := svc.Search(context.Background(), "page", map[string]string{"sortBy": "menuindex", "sortDir": "ASC"})
	assert.Equal(t, []int64{2, 3, 1}, ids(resp.Results))

	resp = svc.Search(context.Background(), "page", map[string]string{"sortBy": "menuindex"})
	assert.Equal(t, []int64{1, 3, 2}, ids(resp.Results))
}

func TestE2E_HideMenu(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "page", HideMenu: 1},
	)
	svc := newStoreService(t, s)

	assert.Equal(t, 2, svc.Search(context.Background(), "page", nil).Total)
	assert.Equal(t, []int64{1}, ids(svc.Search(context.Background(), "page", map[string]string{"hideMenu": "0"}).Results))
	assert.Equal(t, []int64{2}, ids(svc.Search(context.Background(), "page", map[string]string{"hideMenu": "1"}).Results))
}

func TestE2E_Scope(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 2, Parent: 1, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 3, Parent: 1, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 4, Parent: 2, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 5, Pagetitle: "page"},
	)
	svc := newStoreService(t, s)

	tests := []struct {
		name string
		opts map[string]string
		want []int64
	}{
		{"parents", map[string]string{"ids": "1"}, []int64{1, 2, 3, 4}},
		{"parents depth 1", map[string]string{"ids": "1", "depth": "1"}, []int64{1, 2, 3}},
		{"parents with exclude", map[string]string{"ids": "1", "exclude": "2"}, []int64{1, 3, 4}},
		{"ancestors", map[string]string{"ids": "4", "idType": "ancestors"}, []int64{1, 2, 4}},
		{"documents", map[string]string{"ids": "3,5", "idType": "documents"}, []int64{3, 5}},
		{"exclude only", map[string]string{"exclude": "1,5"}, []int64{2, 3, 4}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := map[string]string{"perPage": "0"}
			for k, v := range tc.opts {
				opts[k] = v
			}
			resp := svc.Search(context.Background(), "page", opts)
			assert.Equal(t, len(tc.want), resp.Total)
			assert.ElementsMatch(t, tc.want, ids(resp.Results))
		})
	}
}

func TestE2E_Where(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "page", Template: 1},
		sqlstoretest.Doc{ID: 2, Pagetitle: "page", Template: 2},
		sqlstoretest.Doc{ID: 3, Pagetitle: "page", Template: 3},
	)
	svc := newStoreService(t, s)

	resp := svc.Search(context.Background(), "page", map[string]string{"where": `{"template": 2}`})
	assert.Equal(t, []int64{2}, ids(resp.Results))

	resp = svc.Search(context.Background(), "page", map[string]string{"where": `{"template:IN": [1, 3]}`})
	assert.ElementsMatch(t, []int64{1, 3}, ids(resp.Results))

	resp = svc.Search(context.Background(), "page", map[string]string{"where": "content.template >= 2"})
	assert.ElementsMatch(t, []int64{2, 3}, ids(resp.Results))
}

func TestE2E_Attributes(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "Shirt", Template: 1},
		sqlstoretest.Doc{ID: 2, Pagetitle: "Shirt", Template: 1},
		sqlstoretest.Doc{ID: 3, Pagetitle: "Shirt", Template: 2},
	)
	sqlstoretest.InsertAttribute(t, s, 1, "color", "none", 1)
	sqlstoretest.SetValue(t, s, 1, 1, "red")
	sqlstoretest.SetValue(t, s, 1, 3, "red")
	svc := newStoreService(t, s)
	ctx := context.Background()

	t.Run("search by attribute value", func(t *testing.T) {
		resp := svc.Search(ctx, "red", map[string]string{
			"includeTVs": "1", "includeTVList": "color", "andTerms": "0", "docFields": "pagetitle",
		})
		assert.Equal(t, 2, resp.Total)
		assert.ElementsMatch(t, []int64{1, 3}, ids(resp.Results))
	})

	t.Run("any attribute without list", func(t *testing.T) {
		resp := svc.Search(ctx, "red", map[string]string{"includeTVs": "1", "andTerms": "0", "docFields": "pagetitle"})
		assert.Equal(t, 2, resp.Total)
		assert.ElementsMatch(t, []int64{1, 3}, ids(resp.Results))
	})

	t.Run("attach with defaults", func(t *testing.T) {
		resp := svc.Search(ctx, "shirt", map[string]string{
			"includeTVs": "1", "includeTVList": "color", "tvPrefix": "tv.", "perPage": "0",
		})
		require.Equal(t, 3, resp.Total)
		got := byID(resp.Results)

		v, _ := got[1].Text("tv.color")
		assert.Equal(t, "red", v)
		v, _ = got[2].Text("tv.color")
		assert.Equal(t, "none", v)
		// stored values are projected even when the template does not own the attribute
		v, _ = got[3].Text("tv.color")
		assert.Equal(t, "red", v)
	})

	t.Run("sort by attribute", func(t *testing.T) {
		resp := svc.Search(ctx, "shirt", map[string]string{
			"includeTVs": "1", "includeTVList": "color", "sortBy": "color,id", "sortDir": "DESC,ASC",
		})
		assert.Equal(t, []int64{1, 3, 2}, ids(resp.Results))
	})

	t.Run("rendered", func(t *testing.T) {
		rsvc := newStoreService(t, s).WithRenderer(upperRenderer{})
		resp := rsvc.Search(ctx, "shirt", map[string]string{"processTVs": "1", "perPage": "0"})
		got := byID(resp.Results)
		v, _ := got[1].Text("color")
		assert.Equal(t, "RED", v)
		v, _ = got[2].Text("color")
		assert.Equal(t, "NONE", v)
		_, ok := got[3]["color"]
		assert.False(t, ok)
	})
}

func TestE2E_ResourceGroupsAfterPagination(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 3, Pagetitle: "page"},
		sqlstoretest.Doc{ID: 4, Pagetitle: "page"},
	)
	sqlstoretest.AddToGroup(t, s, 2, 5)
	svc := newStoreService(t, s).WithPolicy(policy.NewResourceGroups(s))

	resp := svc.Search(context.Background(), "page", map[string]string{"perPage": "2"})
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, []int64{1}, ids(resp.Results))

	member := policy.ContextWithGroups(context.Background(), []int64{5})
	resp = svc.Search(member, "page", map[string]string{"perPage": "2"})
	assert.Equal(t, []int64{1, 2}, ids(resp.Results))
}

func TestE2E_ExternalSource(t *testing.T) {
	s := seedStore(t,
		sqlstoretest.Doc{ID: 1, Pagetitle: "Shirt"},
		sqlstoretest.Doc{ID: 2, Pagetitle: "Trousers"},
	)
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, `CREATE TABLE products (id INTEGER PRIMARY KEY, resource INTEGER, sku TEXT)`))
	require.NoError(t, s.Exec(ctx, `INSERT INTO products (resource, sku) VALUES (?, ?), (?, ?)`, 1, "SKU-100", 2, "SKU-200"))

	reg := source.NewRegistry(domsrc.Paths{}, zap.NewNop())
	src, err := domsrc.New("Product", "products", "shop")
	require.NoError(t, err)
	reg.Register(src)
	svc := newStoreService(t, s).WithSources(reg)

	resp := svc.Search(ctx, "sku-200", map[string]string{
		"customPackages": "Product:sku:shop::Product.resource = content.id",
		"andTerms":       "0",
		"docFields":      "pagetitle",
	})
	assert.Equal(t, 1, resp.Total)
	require.Equal(t, []int64{2}, ids(resp.Results))
	sku, _ := resp.Results[0].Text("sku")
	assert.Equal(t, "SKU-200", sku)

	// unknown classes are skipped, not fatal
	resp = svc.Search(ctx, "shirt", map[string]string{"customPackages": "Missing:sku:shop::Missing.id = content.id"})
	assert.Equal(t, []int64{1}, ids(resp.Results))
}

func TestE2E_DebugSQL(t *testing.T) {
	svc := newStoreService(t, seedStore(t, sqlstoretest.Doc{ID: 1, Pagetitle: "alpha"}))

	resp := svc.Search(context.Background(), "alpha", map[string]string{"debug": "1"})
	require.NotNil(t, resp.Debug)
	assert.Contains(t, resp.Debug.CountSQL, "COUNT(DISTINCT content.id)")
	assert.Contains(t, resp.Debug.SQL, "LIKE ?")
	assert.Contains(t, resp.Debug.Args, "%alpha%")
	assert.Equal(t, []string{"alpha"}, resp.Debug.Terms)
}
