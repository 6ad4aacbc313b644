package attribute

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore"
	domattr "github.com/kailas-cloud/sitesearch/internal/domain/attribute"
)

// store is the consumer interface for attribute lookups (ISP).
type store interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Table(name string) string
}

// Repo reads attribute definitions and stored values.
type Repo struct {
	store store
}

// New creates an attribute repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ByNames returns the definitions of the named attributes in the order of
// names. Unknown names are skipped.
func (r *Repo) ByNames(ctx context.Context, names []string) ([]domattr.Attribute, error) {
	if len(names) == 0 {
		return nil, nil
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	rows, err := r.definitions(ctx,
		`SELECT id, name, type, default_text FROM `+r.store.Table(sqlstore.TableAttributes)+
			` WHERE name IN (`+sqlstore.Placeholders(len(names))+`)`, args...)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]definitionRow, len(rows))
	for _, row := range rows {
		byName[row.name] = row
	}
	ordered := make([]definitionRow, 0, len(rows))
	for _, n := range names {
		if row, ok := byName[n]; ok {
			ordered = append(ordered, row)
			delete(byName, n)
		}
	}
	return r.hydrate(ctx, ordered)
}

// ForTemplates returns the attributes owned by any of the templates, by id.
func (r *Repo) ForTemplates(ctx context.Context, templates []int64) ([]domattr.Attribute, error) {
	if len(templates) == 0 {
		return nil, nil
	}
	rows, err := r.definitions(ctx,
		`SELECT DISTINCT tv.id, tv.name, tv.type, tv.default_text FROM `+r.store.Table(sqlstore.TableAttributes)+` AS tv`+
			` JOIN `+r.store.Table(sqlstore.TableAttrTemplates)+` AS tt ON tt.tmplvarid = tv.id`+
			` WHERE tt.templateid IN (`+sqlstore.Placeholders(len(templates))+`) ORDER BY tv.id`,
		sqlstore.Int64Args(templates)...)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, rows)
}

// Values returns stored values keyed by content id, then attribute id.
func (r *Repo) Values(ctx context.Context, contentIDs, attrIDs []int64) (map[int64]map[int64]string, error) {
	out := make(map[int64]map[int64]string)
	if len(contentIDs) == 0 || len(attrIDs) == 0 {
		return out, nil
	}
	args := append(sqlstore.Int64Args(contentIDs), sqlstore.Int64Args(attrIDs)...)
	rows, err := r.store.QueryContext(ctx,
		`SELECT contentid, tmplvarid, value FROM `+r.store.Table(sqlstore.TableAttrValues)+
			` WHERE contentid IN (`+sqlstore.Placeholders(len(contentIDs))+`)`+
			` AND tmplvarid IN (`+sqlstore.Placeholders(len(attrIDs))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var contentID, attrID int64
		var value sql.NullString
		if err := rows.Scan(&contentID, &attrID, &value); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		if out[contentID] == nil {
			out[contentID] = make(map[int64]string)
		}
		out[contentID][attrID] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return out, nil
}

func (r *Repo) definitions(ctx context.Context, query string, args ...any) ([]definitionRow, error) {
	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	var out []definitionRow
	for rows.Next() {
		var row definitionRow
		var typ, def sql.NullString
		if err := rows.Scan(&row.id, &row.name, &typ, &def); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		row.typ, row.defaultValue = typ.String, def.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}
	return out, nil
}

// hydrate loads owning templates and builds domain attributes.
func (r *Repo) hydrate(ctx context.Context, rows []definitionRow) ([]domattr.Attribute, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.id
	}
	templates, err := r.templates(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domattr.Attribute, 0, len(rows))
	for _, row := range rows {
		a, err := domattr.New(row.id, row.name, row.typ, row.defaultValue, templates[row.id])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", row.name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repo) templates(ctx context.Context, ids []int64) (map[int64][]int64, error) {
	rows, err := r.store.QueryContext(ctx,
		`SELECT tmplvarid, templateid FROM `+r.store.Table(sqlstore.TableAttrTemplates)+
			` WHERE tmplvarid IN (`+sqlstore.Placeholders(len(ids))+`) ORDER BY tmplvarid, templateid`,
		sqlstore.Int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var attrID, tpl int64
		if err := rows.Scan(&attrID, &tpl); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out[attrID] = append(out[attrID], tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}
