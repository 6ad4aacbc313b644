package sqlstore

import (
	"context"
	"fmt"
)

// Table names without prefix.
const (
	TableContent        = "site_content"
	TableAttributes     = "site_tmplvars"
	TableAttrTemplates  = "site_tmplvar_templates"
	TableAttrValues     = "site_tmplvar_contentvalues"
	TableDocumentGroups = "document_groups"
)

func (s *Store) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + s.Table(TableContent) + ` (
			id INTEGER PRIMARY KEY,
			parent INTEGER NOT NULL DEFAULT 0,
			pagetitle TEXT NOT NULL DEFAULT '',
			longtitle TEXT NOT NULL DEFAULT '',
			alias TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			introtext TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			template INTEGER NOT NULL DEFAULT 0,
			context_key TEXT NOT NULL DEFAULT 'web',
			published INTEGER NOT NULL DEFAULT 0,
			searchable INTEGER NOT NULL DEFAULT 1,
			deleted INTEGER NOT NULL DEFAULT 0,
			hidemenu INTEGER NOT NULL DEFAULT 0,
			menuindex INTEGER NOT NULL DEFAULT 0,
			publishedon INTEGER NOT NULL DEFAULT 0,
			createdon INTEGER NOT NULL DEFAULT 0,
			editedon INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.Table(TableAttributes) + ` (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL DEFAULT 'text',
			default_text TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.Table(TableAttrTemplates) + ` (
			tmplvarid INTEGER NOT NULL,
			templateid INTEGER NOT NULL,
			PRIMARY KEY (tmplvarid, templateid)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.Table(TableAttrValues) + ` (
			id INTEGER PRIMARY KEY,
			tmplvarid INTEGER NOT NULL,
			contentid INTEGER NOT NULL,
			value TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.Table(TableDocumentGroups) + ` (
			document INTEGER NOT NULL,
			document_group INTEGER NOT NULL,
			PRIMARY KEY (document, document_group)
		)`,
	}
}

// Migrate creates the content tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Exec runs a statement written with '?' placeholders.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, s.Rebind(query), args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
