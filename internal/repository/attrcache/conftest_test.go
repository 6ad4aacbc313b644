package attrcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/db"
	domattr "github.com/kailas-cloud/sitesearch/internal/domain/attribute"
)

type mockRepo struct {
	attrs     []domattr.Attribute
	err       error
	byNames   [][]string
	tplCalls  int
	valsCalls int
}

func (m *mockRepo) ByNames(_ context.Context, names []string) ([]domattr.Attribute, error) {
	m.byNames = append(m.byNames, names)
	if m.err != nil {
		return nil, m.err
	}
	var out []domattr.Attribute
	for _, n := range names {
		for _, a := range m.attrs {
			if a.Name() == n {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (m *mockRepo) ForTemplates(_ context.Context, _ []int64) ([]domattr.Attribute, error) {
	m.tplCalls++
	return m.attrs, m.err
}

func (m *mockRepo) Values(_ context.Context, _, _ []int64) (map[int64]map[int64]string, error) {
	m.valsCalls++
	return map[int64]map[int64]string{}, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func mustAttr(t *testing.T, id int64, name, def string, templates ...int64) domattr.Attribute {
	t.Helper()
	a, err := domattr.New(id, name, "text", def, templates)
	if err != nil {
		t.Fatalf("attribute: %v", err)
	}
	return a
}

func newTestCachedRepo(t *testing.T, inner *mockRepo) (*CachedRepo, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, time.Minute, nil, zap.NewNop()), ms
}

func fixtureAttrs(t *testing.T) []domattr.Attribute {
	t.Helper()
	return []domattr.Attribute{
		mustAttr(t, 1, "price", "0", 2),
		mustAttr(t, 2, "color", ""),
	}
}
