// Package sqlstore executes search plans against a relational content store.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/kailas-cloud/sitesearch/internal/db"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/result"
)

var prefixRe = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Config holds connection parameters for a SQL store.
type Config struct {
	Driver       string
	DSN          string
	TablePrefix  string
	MaxOpenConns int
}

// Store runs compiled plans and raw lookups over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	prefix  string
}

// Open connects to the configured database.
func Open(cfg Config) (*Store, error) {
	d, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	sqlDB, err := sql.Open(d.driverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	s, err := New(sqlDB, d, cfg.TablePrefix)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle.
func New(sqlDB *sql.DB, d Dialect, tablePrefix string) (*Store, error) {
	if !prefixRe.MatchString(tablePrefix) {
		return nil, fmt.Errorf("invalid table prefix %q", tablePrefix)
	}
	return &Store{db: sqlDB, dialect: d, prefix: tablePrefix}, nil
}

// Dialect returns the SQL dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Table returns the prefixed table name.
func (s *Store) Table(name string) string { return s.prefix + name }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Count returns the number of distinct base records matching the plan.
func (s *Store) Count(ctx context.Context, p plan.Plan) (int, error) {
	st := CompileCount(s.dialect, p)
	var n int
	if err := s.db.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return n, nil
}

// Fetch returns the rows selected by the plan.
func (s *Store) Fetch(ctx context.Context, p plan.Plan) ([]result.Record, error) {
	st := CompileSelect(s.dialect, p)
	rows, err := s.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return recs, nil
}

// Explain returns the SQL that Count and Fetch would run for the plan.
func (s *Store) Explain(p plan.Plan) (countSQL, selectSQL string, args []any) {
	cnt := CompileCount(s.dialect, p)
	sel := CompileSelect(s.dialect, p)
	return cnt.SQL, sel.SQL, sel.Args
}

// QueryContext runs a query written with '?' placeholders.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, s.Rebind(query), args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return rows, nil
}

// Rebind converts '?' placeholders to the dialect's style.
func (s *Store) Rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func scanRecords(rows *sql.Rows) ([]result.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []result.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec := make(result.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = vals[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Placeholders returns n comma-separated '?' placeholders for an IN list.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Int64Args converts ids to query arguments.
func Int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
