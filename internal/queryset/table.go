package queryset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/hupe1980/reportengine/internal/database"
	"github.com/hupe1980/reportengine/internal/logging"
	"github.com/hupe1980/reportengine/internal/report"
)

// Table is a QuerySet compiled into SQL against a database/sql handle.
// To-one relations become LEFT JOINs on the related primary key.
type Table struct {
	q       query
	db      database.Queryer
	dialect database.Dialect
}

// NewTable creates a query set over the model's table.
func NewTable(db database.Queryer, dialect database.Dialect, model *Model) *Table {
	return &Table{q: query{model: model}, db: db, dialect: dialect}
}

// Model implements QuerySet.
func (t *Table) Model() *Model { return t.q.model }

// Filter implements QuerySet.
func (t *Table) Filter(filters report.Filters) (QuerySet, error) {
	q, err := t.q.withFilters(filters)
	if err != nil {
		return nil, err
	}

	return &Table{q: q, db: t.db, dialect: t.dialect}, nil
}

// OrderBy implements QuerySet.
func (t *Table) OrderBy(keys ...string) (QuerySet, error) {
	q, err := t.q.withOrdering(keys)
	if err != nil {
		return nil, err
	}

	return &Table{q: q, db: t.db, dialect: t.dialect}, nil
}

// Values implements QuerySet.
func (t *Table) Values(ctx context.Context, fields ...string) report.Rows {
	stmt, args, err := t.SelectSQL(fields...)
	if err != nil {
		return report.ErrRows(err)
	}

	return func(yield func(report.Row, error) bool) {
		log := logging.FromContext(ctx)
		start := time.Now()

		rows, err := t.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			yield(nil, fmt.Errorf("querying %s: %w", t.q.model.Name, err))
			return
		}
		defer func() { _ = rows.Close() }()

		width := len(fields)
		if width == 0 {
			width = len(t.q.model.Fields)
		}

		n := 0

		for rows.Next() {
			row, err := database.ScanRow(rows, width)
			if err != nil {
				yield(nil, err)
				return
			}

			n++

			if !yield(report.Row(row), nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("querying %s: %w", t.q.model.Name, err))
			return
		}

		log.Debug("query set evaluated",
			slog.String("model", t.q.model.Name),
			slog.Int("rows", n),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}

// Count implements QuerySet.
func (t *Table) Count(ctx context.Context) (int, error) {
	stmt, args, err := t.CountSQL()
	if err != nil {
		return 0, err
	}

	rows, err := t.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", t.q.model.Name, err)
	}
	defer func() { _ = rows.Close() }()

	var n int

	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("counting %s: %w", t.q.model.Name, err)
		}
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("counting %s: %w", t.q.model.Name, err)
	}

	return n, nil
}

// SelectSQL renders the projection query and its arguments.
func (t *Table) SelectSQL(fields ...string) (string, []any, error) {
	paths, err := t.q.projection(fields)
	if err != nil {
		return "", nil, err
	}

	b := t.newBuilder()

	cols := make([]string, len(paths))
	for i, p := range paths {
		if cols[i], err = b.column(p); err != nil {
			return "", nil, err
		}
	}

	where, err := b.where(t.q.conditions)
	if err != nil {
		return "", nil, err
	}

	var orderBy []string

	for _, o := range t.q.ordering {
		col, err := b.column(o.path)
		if err != nil {
			return "", nil, err
		}

		if o.desc {
			col += " DESC"
		}

		orderBy = append(orderBy, col)
	}

	var sb strings.Builder

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(b.from())
	sb.WriteString(where)

	if len(orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderBy, ", "))
	}

	return sb.String(), b.args, nil
}

// CountSQL renders the COUNT(*) query and its arguments. Ordering is
// ignored.
func (t *Table) CountSQL() (string, []any, error) {
	b := t.newBuilder()

	where, err := b.where(t.q.conditions)
	if err != nil {
		return "", nil, err
	}

	return "SELECT COUNT(*)" + b.from() + where, b.args, nil
}

type join struct {
	table, alias, on string
}

// sqlBuilder accumulates joins and bind arguments for one statement.
type sqlBuilder struct {
	dialect database.Dialect
	model   *Model
	aliases map[string]string
	joins   []join
	args    []any
}

func (t *Table) newBuilder() *sqlBuilder {
	return &sqlBuilder{
		dialect: t.dialect,
		model:   t.q.model,
		aliases: map[string]string{"": "t0"},
	}
}

func (b *sqlBuilder) quote(s string) string { return b.dialect.QuoteIdent(s) }

// alias returns the table alias reached by the relation steps, adding joins
// as needed.
func (b *sqlBuilder) alias(relations []*Field) (string, error) {
	key := ""
	current := "t0"

	for _, rel := range relations {
		if rel.Kind == KindManyToMany {
			return "", fmt.Errorf("%w: many-to-many relation %q", ErrUnsupportedLookup, rel.Name)
		}

		if key != "" {
			key += LookupSep
		}

		key += rel.Name

		a, ok := b.aliases[key]
		if !ok {
			a = fmt.Sprintf("t%d", len(b.aliases))
			b.aliases[key] = a
			b.joins = append(b.joins, join{
				table: rel.Related.TableName(),
				alias: a,
				on:    b.quote(a+"."+rel.Related.PK()) + " = " + b.quote(current+"."+rel.ColumnName()),
			})
		}

		current = a
	}

	return current, nil
}

func (b *sqlBuilder) column(p path) (string, error) {
	a, err := b.alias(p.relations)
	if err != nil {
		return "", err
	}

	if p.field.IsRelation() && p.field.Kind == KindManyToMany {
		return "", fmt.Errorf("%w: many-to-many field %q", ErrUnsupportedLookup, p.field.Name)
	}

	return b.quote(a + "." + p.field.ColumnName()), nil
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder.Placeholder(len(b.args))
}

func (b *sqlBuilder) from() string {
	var sb strings.Builder

	sb.WriteString(" FROM ")
	sb.WriteString(b.quote(b.model.TableName()))
	sb.WriteString(" AS ")
	sb.WriteString(b.quote("t0"))

	for _, j := range b.joins {
		fmt.Fprintf(&sb, " LEFT JOIN %s AS %s ON %s", b.quote(j.table), b.quote(j.alias), j.on)
	}

	return sb.String()
}

func (b *sqlBuilder) where(conditions []condition) (string, error) {
	if len(conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(conditions))

	for _, c := range conditions {
		col, err := b.column(c.path)
		if err != nil {
			return "", err
		}

		clause, err := b.predicate(col, c)
		if err != nil {
			return "", err
		}

		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), nil
}

func (b *sqlBuilder) predicate(col string, c condition) (string, error) {
	v := c.value

	switch c.path.op {
	case "exact":
		if v == nil {
			return col + " IS NULL", nil
		}

		return col + " = " + b.bind(v), nil
	case "iexact":
		return "LOWER(" + col + ") = LOWER(" + b.bind(v) + ")", nil
	case "contains":
		return col + " LIKE " + b.bind("%"+escapeLike(v)+"%"), nil
	case "icontains":
		return "LOWER(" + col + ") LIKE LOWER(" + b.bind("%"+escapeLike(v)+"%") + ")", nil
	case "startswith":
		return col + " LIKE " + b.bind(escapeLike(v)+"%"), nil
	case "istartswith":
		return "LOWER(" + col + ") LIKE LOWER(" + b.bind(escapeLike(v)+"%") + ")", nil
	case "endswith":
		return col + " LIKE " + b.bind("%"+escapeLike(v)), nil
	case "iendswith":
		return "LOWER(" + col + ") LIKE LOWER(" + b.bind("%"+escapeLike(v)) + ")", nil
	case "gt":
		return col + " > " + b.bind(v), nil
	case "gte":
		return col + " >= " + b.bind(v), nil
	case "lt":
		return col + " < " + b.bind(v), nil
	case "lte":
		return col + " <= " + b.bind(v), nil
	case "in":
		items := toList(v)
		if len(items) == 0 {
			return "1 = 0", nil
		}

		ph := make([]string, len(items))
		for i, item := range items {
			ph[i] = b.bind(item)
		}

		return col + " IN (" + strings.Join(ph, ", ") + ")", nil
	case "isnull":
		if cast.ToBool(v) {
			return col + " IS NULL", nil
		}

		return col + " IS NOT NULL", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLookup, c.key)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v any) string {
	return likeEscaper.Replace(fmt.Sprint(v))
}
