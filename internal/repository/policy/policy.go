// Package policy decides which matched records the caller may list.
package policy

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore"
)

type ctxKey struct{}

// ContextWithGroups stores the caller's user group ids in the context.
func ContextWithGroups(ctx context.Context, groups []int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, groups)
}

// GroupsFromContext returns the caller's user group ids, nil for anonymous.
func GroupsFromContext(ctx context.Context) []int64 {
	if g, ok := ctx.Value(ctxKey{}).([]int64); ok {
		return g
	}
	return nil
}

// AllowAll lists every record.
type AllowAll struct{}

// Visible marks every id visible.
func (AllowAll) Visible(_ context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// store is the consumer interface for group lookups (ISP).
type store interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Table(name string) string
}

// ResourceGroups restricts records that belong to resource groups to callers
// sharing at least one of those groups. Records without groups are public.
type ResourceGroups struct {
	store store
}

// NewResourceGroups creates a group-based checker.
func NewResourceGroups(s store) *ResourceGroups {
	return &ResourceGroups{store: s}
}

// Visible reports visibility per id for the caller in ctx.
func (p *ResourceGroups) Visible(ctx context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := p.store.QueryContext(ctx,
		`SELECT document, document_group FROM `+p.store.Table(sqlstore.TableDocumentGroups)+
			` WHERE document IN (`+sqlstore.Placeholders(len(ids))+`)`,
		sqlstore.Int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query document groups: %w", err)
	}
	defer rows.Close()

	restricted := make(map[int64][]int64)
	for rows.Next() {
		var doc, group int64
		if err := rows.Scan(&doc, &group); err != nil {
			return nil, fmt.Errorf("scan document group: %w", err)
		}
		restricted[doc] = append(restricted[doc], group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document groups: %w", err)
	}

	userGroups := GroupsFromContext(ctx)
	for _, id := range ids {
		groups, ok := restricted[id]
		out[id] = !ok || slices.ContainsFunc(groups, func(g int64) bool {
			return slices.Contains(userGroups, g)
		})
	}
	return out, nil
}
