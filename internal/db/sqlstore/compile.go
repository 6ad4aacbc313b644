package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/sitesearch/internal/db"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/plan"
)

// Dialect selects placeholder style and case-insensitive matching.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect validates a configured driver name.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(s)); d {
	case SQLite, Postgres:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", db.ErrUnsupportedDriver, s)
}

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

// Statement is a compiled SQL statement with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// CompileSelect renders the row query of a plan.
func CompileSelect(d Dialect, p plan.Plan) Statement {
	c := &compiler{d: d}
	c.write("SELECT ")
	if p.Distinct() {
		c.write("DISTINCT ")
	}
	c.write(plan.BaseAlias + ".*")
	for _, col := range p.Columns() {
		c.write(", ")
		c.column(col)
		c.write(" AS " + quoteIdent(col.As))
	}
	c.from(p)
	c.where(p)

	if len(p.Sort) > 0 {
		c.write(" ORDER BY ")
		for i, k := range p.Sort {
			if i > 0 {
				c.write(", ")
			}
			c.write(c.field(k.Field) + " " + string(k.Dir))
		}
	}

	switch {
	case p.Limit > 0:
		c.write(" LIMIT " + c.bind(int64(p.Limit)) + " OFFSET " + c.bind(int64(p.Offset)))
	case p.Offset > 0 && d == SQLite:
		c.write(" LIMIT -1 OFFSET " + c.bind(int64(p.Offset)))
	case p.Offset > 0:
		c.write(" OFFSET " + c.bind(int64(p.Offset)))
	}
	return c.statement()
}

// CompileCount renders the total query of a plan: distinct base records
// matching the filters, ignoring ordering and pagination.
func CompileCount(d Dialect, p plan.Plan) Statement {
	c := &compiler{d: d}
	c.write("SELECT COUNT(DISTINCT " + plan.BaseAlias + ".id)")
	c.from(p)
	c.where(p)
	return c.statement()
}

type compiler struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func (c *compiler) statement() Statement {
	return Statement{SQL: c.sb.String(), Args: c.args}
}

func (c *compiler) write(s string) { c.sb.WriteString(s) }

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	if c.d == Postgres {
		return "$" + strconv.Itoa(len(c.args))
	}
	return "?"
}

func (c *compiler) from(p plan.Plan) {
	c.write(" FROM " + p.Table + " AS " + plan.BaseAlias)
	for _, j := range p.Joins {
		c.write(" LEFT JOIN " + j.Table + " AS " + j.Alias + " ON ")
		if j.On == nil {
			c.write("1=1")
			continue
		}
		c.node(j.On)
	}
}

func (c *compiler) where(p plan.Plan) {
	if w := p.Where(); w != nil {
		c.write(" WHERE ")
		c.node(w)
	}
}

func (c *compiler) field(f filter.FieldRef) string {
	if f.Kind() == filter.KindOutput {
		return quoteIdent(f.Column())
	}
	return f.String()
}

func (c *compiler) column(col plan.Column) {
	f := c.field(col.Field)
	if col.Field.Kind() != filter.KindAttribute {
		c.write(f)
		return
	}
	if col.Default == nil || len(col.Templates) == 0 {
		c.write("COALESCE(" + f + ", '')")
		return
	}
	c.write("COALESCE(" + f + ", CASE WHEN " + plan.BaseAlias + ".template IN (")
	for i, t := range col.Templates {
		if i > 0 {
			c.write(", ")
		}
		c.write(c.bind(t))
	}
	c.write(") THEN " + c.bind(*col.Default) + " ELSE '' END)")
}

func (c *compiler) node(n filter.Node) {
	switch t := n.(type) {
	case filter.Cond:
		c.cond(t)
	case filter.FieldEq:
		c.write(c.field(t.Left) + " = " + c.field(t.Right))
	case filter.All:
		c.join(t, " AND ")
	case filter.Any:
		c.join(t, " OR ")
	case filter.Raw:
		c.write("(" + string(t) + ")")
	default:
		c.write("1=1")
	}
}

func (c *compiler) join(nodes []filter.Node, sep string) {
	c.write("(")
	for i, n := range nodes {
		if i > 0 {
			c.write(sep)
		}
		c.node(n)
	}
	c.write(")")
}

func (c *compiler) cond(cd filter.Cond) {
	f := c.field(cd.Field)
	switch cd.Op {
	case filter.OpLike, filter.OpNotLike:
		op := string(cd.Op)
		if c.d == Postgres {
			op = strings.Replace(op, "LIKE", "ILIKE", 1)
		}
		c.write(f + " " + op + " " + c.bind(cd.Value) + " ESCAPE '" + filter.LikeEscape + "'")
	case filter.OpIn, filter.OpNotIn:
		values, _ := cd.Value.([]any)
		if len(values) == 0 {
			if cd.Op == filter.OpIn {
				c.write("1=0")
			} else {
				c.write("1=1")
			}
			return
		}
		c.write(f + " " + string(cd.Op) + " (")
		for i, v := range values {
			if i > 0 {
				c.write(", ")
			}
			c.write(c.bind(v))
		}
		c.write(")")
	case filter.OpIs, filter.OpIsNot:
		if cd.Value == nil {
			c.write(f + " " + string(cd.Op) + " NULL")
			return
		}
		c.write(f + " " + string(cd.Op) + " " + c.bind(cd.Value))
	case filter.OpNe:
		c.write(f + " <> " + c.bind(cd.Value))
	default:
		c.write(f + " " + string(cd.Op) + " " + c.bind(cd.Value))
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
