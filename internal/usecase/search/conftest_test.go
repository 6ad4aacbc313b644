package search

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore"
	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore/sqlstoretest"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
	attrrepo "github.com/kailas-cloud/sitesearch/internal/repository/attribute"
	"github.com/kailas-cloud/sitesearch/internal/repository/scope"
)

// --- Mocks ---

type mockExecutor struct {
	total      int
	rows       []result.Record
	countErr   error
	fetchErr   error
	countPlans []plan.Plan
	fetchPlans []plan.Plan
}

func (m *mockExecutor) Count(_ context.Context, p plan.Plan) (int, error) {
	m.countPlans = append(m.countPlans, p)
	return m.total, m.countErr
}

func (m *mockExecutor) Fetch(_ context.Context, p plan.Plan) ([]result.Record, error) {
	m.fetchPlans = append(m.fetchPlans, p)
	return m.rows, m.fetchErr
}

type mockScope struct {
	descendants []int64
	ancestors   []int64
	err         error
	calls       []string
}

func (m *mockScope) Descendants(_ context.Context, _ []int64, _ int) ([]int64, error) {
	m.calls = append(m.calls, "descendants")
	return m.descendants, m.err
}

func (m *mockScope) Ancestors(_ context.Context, _ []int64, _ int) ([]int64, error) {
	m.calls = append(m.calls, "ancestors")
	return m.ancestors, m.err
}

type mockPolicy struct {
	hidden map[int64]bool
	err    error
}

func (m *mockPolicy) Visible(_ context.Context, ids []int64) (map[int64]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = !m.hidden[id]
	}
	return out, nil
}

func rec(id int64, fields ...string) result.Record {
	r := result.Record{"id": id}
	for i := 0; i+1 < len(fields); i += 2 {
		r[fields[i]] = fields[i+1]
	}
	return r
}

func ids(rows []result.Record) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}

// --- SQLite fixture ---

func newStoreService(t *testing.T, s *sqlstore.Store) *Service {
	t.Helper()
	tables := Tables{
		Content:         s.Table(sqlstore.TableContent),
		AttributeValues: s.Table(sqlstore.TableAttrValues),
	}
	return New(s, attrrepo.New(s), tables, zap.NewNop()).
		WithScope(scope.New(s)).
		WithContext("web")
}

func seedStore(t *testing.T, docs ...sqlstoretest.Doc) *sqlstore.Store {
	t.Helper()
	s := sqlstoretest.New(t)
	sqlstoretest.InsertDocs(t, s, docs...)
	return s
}
