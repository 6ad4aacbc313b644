package scope

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore"
)

// store is the consumer interface for tree lookups (ISP).
type store interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Table(name string) string
}

// Repo walks the content tree through the parent column.
type Repo struct {
	store store
}

// New creates a scope repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Descendants returns the ids below the given ids, at most depth levels
// down, in breadth-first order. The given ids are not included.
func (r *Repo) Descendants(ctx context.Context, ids []int64, depth int) ([]int64, error) {
	return r.walk(ctx, ids, depth,
		`SELECT id FROM `+r.store.Table(sqlstore.TableContent)+` WHERE parent IN (%s) ORDER BY id`)
}

// Ancestors returns the parents of the given ids, at most depth levels up.
// The root (0) and the given ids are not included.
func (r *Repo) Ancestors(ctx context.Context, ids []int64, depth int) ([]int64, error) {
	return r.walk(ctx, ids, depth,
		`SELECT DISTINCT parent FROM `+r.store.Table(sqlstore.TableContent)+` WHERE id IN (%s) AND parent > 0 ORDER BY parent`)
}

func (r *Repo) walk(ctx context.Context, ids []int64, depth int, queryFmt string) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	var out []int64
	level := ids
	for d := 0; d < depth && len(level) > 0; d++ {
		next, err := r.ids(ctx, fmt.Sprintf(queryFmt, sqlstore.Placeholders(len(level))), sqlstore.Int64Args(level))
		if err != nil {
			return nil, err
		}
		level = nil
		for _, id := range next {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
			level = append(level, id)
		}
	}
	return out, nil
}

func (r *Repo) ids(ctx context.Context, query string, args []any) ([]int64, error) {
	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return out, nil
}
