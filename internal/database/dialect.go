// Package database opens the SQL connections reports query and describes the
// small set of dialect differences (placeholders, identifier quoting) that
// the SQL-backed sources need to generate statements.
package database

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderStyle is the bind parameter syntax of a driver.
type PlaceholderStyle int

// Supported placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

// Placeholder returns the bind parameter for the 1-based position n.
func (s PlaceholderStyle) Placeholder(n int) string {
	if s == PlaceholderDollar {
		return "$" + strconv.Itoa(n)
	}

	return "?"
}

// Dialect captures the per-driver syntax used when generating SQL.
type Dialect struct {
	Name        string
	Placeholder PlaceholderStyle
	quote       byte
}

// Built-in dialects.
var (
	Postgres = Dialect{Name: "postgres", Placeholder: PlaceholderDollar, quote: '"'}
	MySQL    = Dialect{Name: "mysql", Placeholder: PlaceholderQuestion, quote: '`'}
	SQLite   = Dialect{Name: "sqlite", Placeholder: PlaceholderQuestion, quote: '"'}
)

// DialectFor returns the dialect of a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres, "postgres", "postgresql":
		return Postgres, nil
	case DriverMySQL:
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q: must be one of %s, %s", driver, DriverPostgres, DriverMySQL)
	}
}

// QuoteIdent quotes a possibly schema-qualified identifier.
func (d Dialect) QuoteIdent(ident string) string {
	q := d.quote
	if q == 0 {
		q = '"'
	}

	parts := strings.Split(ident, ".")
	for i, p := range parts {
		escaped := strings.ReplaceAll(p, string(q), string(q)+string(q))
		parts[i] = string(q) + escaped + string(q)
	}

	return strings.Join(parts, ".")
}
