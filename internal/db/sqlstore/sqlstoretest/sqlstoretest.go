// Package sqlstoretest provides a migrated SQLite store with seeding helpers.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore"
)

// New opens a fresh SQLite database in a temporary directory.
func New(t testing.TB) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(sqlstore.Config{
		Driver: "sqlite",
		DSN:    "file:" + filepath.Join(t.TempDir(), "site.db"),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// Doc is a content row. Zero values get the defaults of a visible document.
type Doc struct {
	ID          int64
	Parent      int64
	Pagetitle   string
	Longtitle   string
	Description string
	Introtext   string
	Content     string
	Template    int64
	Context     string
	Unpublished bool
	Hidden      bool
	Deleted     bool
	HideMenu    int
	MenuIndex   int
}

// InsertDocs adds content rows.
func InsertDocs(t testing.TB, s *sqlstore.Store, docs ...Doc) {
	t.Helper()
	for _, d := range docs {
		if d.Context == "" {
			d.Context = "web"
		}
		if d.Template == 0 {
			d.Template = 1
		}
		err := s.Exec(context.Background(),
			`INSERT INTO `+s.Table(sqlstore.TableContent)+
				` (id, parent, pagetitle, longtitle, description, introtext, content, template, context_key,`+
				` published, searchable, deleted, hidemenu, menuindex) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Parent, d.Pagetitle, d.Longtitle, d.Description, d.Introtext, d.Content, d.Template, d.Context,
			flag(!d.Unpublished), flag(!d.Hidden), flag(d.Deleted), d.HideMenu, d.MenuIndex)
		require.NoError(t, err)
	}
}

// InsertAttribute adds an attribute definition bound to templates.
func InsertAttribute(t testing.TB, s *sqlstore.Store, id int64, name, def string, templates ...int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx,
		`INSERT INTO `+s.Table(sqlstore.TableAttributes)+` (id, name, type, default_text) VALUES (?, ?, 'text', ?)`,
		id, name, def))
	for _, tpl := range templates {
		require.NoError(t, s.Exec(ctx,
			`INSERT INTO `+s.Table(sqlstore.TableAttrTemplates)+` (tmplvarid, templateid) VALUES (?, ?)`,
			id, tpl))
	}
}

// SetValue stores an attribute value for a document.
func SetValue(t testing.TB, s *sqlstore.Store, attrID, docID int64, value string) {
	t.Helper()
	require.NoError(t, s.Exec(context.Background(),
		`INSERT INTO `+s.Table(sqlstore.TableAttrValues)+` (tmplvarid, contentid, value) VALUES (?, ?, ?)`,
		attrID, docID, value))
}

// AddToGroup places a document in a resource group.
func AddToGroup(t testing.TB, s *sqlstore.Store, docID, group int64) {
	t.Helper()
	require.NoError(t, s.Exec(context.Background(),
		`INSERT INTO `+s.Table(sqlstore.TableDocumentGroups)+` (document, document_group) VALUES (?, ?)`,
		docID, group))
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
