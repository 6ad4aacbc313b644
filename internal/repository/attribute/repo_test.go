package attribute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore"
	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore/sqlstoretest"
)

func newTestRepo(t *testing.T) (*Repo, *sqlstore.Store) {
	t.Helper()
	s := sqlstoretest.New(t)
	sqlstoretest.InsertAttribute(t, s, 1, "price", "0", 2, 3)
	sqlstoretest.InsertAttribute(t, s, 2, "color", "")
	sqlstoretest.InsertAttribute(t, s, 3, "sku", "", 3)
	sqlstoretest.SetValue(t, s, 1, 10, "15")
	sqlstoretest.SetValue(t, s, 2, 10, "red")
	sqlstoretest.SetValue(t, s, 1, 11, "20")
	return New(s), s
}

func TestRepo_ByNames(t *testing.T) {
	r, _ := newTestRepo(t)

	attrs, err := r.ByNames(context.Background(), []string{"color", "missing", "price"})
	require.NoError(t, err)
	require.Len(t, attrs, 2)

	assert.Equal(t, "color", attrs[0].Name())
	assert.False(t, attrs[0].HasDefault())
	assert.Empty(t, attrs[0].Templates())

	assert.Equal(t, "price", attrs[1].Name())
	assert.Equal(t, int64(1), attrs[1].ID())
	assert.Equal(t, "0", attrs[1].Default())
	assert.Equal(t, []int64{2, 3}, attrs[1].Templates())
}

func TestRepo_ByNames_Empty(t *testing.T) {
	r, _ := newTestRepo(t)
	attrs, err := r.ByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestRepo_ForTemplates(t *testing.T) {
	r, _ := newTestRepo(t)

	attrs, err := r.ForTemplates(context.Background(), []int64{3})
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "price", attrs[0].Name())
	assert.Equal(t, "sku", attrs[1].Name())

	attrs, err = r.ForTemplates(context.Background(), []int64{99})
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestRepo_Values(t *testing.T) {
	r, _ := newTestRepo(t)

	vals, err := r.Values(context.Background(), []int64{10, 11, 12}, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[int64]map[int64]string{
		10: {1: "15", 2: "red"},
		11: {1: "20"},
	}, vals)
}

func TestRepo_Values_NoInput(t *testing.T) {
	r, _ := newTestRepo(t)
	vals, err := r.Values(context.Background(), nil, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestRepo_QueryError(t *testing.T) {
	r, s := newTestRepo(t)
	s.Close()
	_, err := r.ByNames(context.Background(), []string{"price"})
	assert.Error(t, err)
}
