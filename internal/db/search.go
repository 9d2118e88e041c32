package db

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with the casefold SQL function registered on
// every connection.
const driverName = "sqlite3_vv"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", casefold, true)
		},
	})
}

// casefold lower-cases s with Unicode rules. SQLite's own lower() and LIKE
// only fold ASCII letters.
func casefold(s string) string {
	return strings.ToLower(s)
}

// ContainsPattern returns a LIKE pattern matching s as a case-folded
// substring, with LIKE wildcards in s escaped. Use it with Contains.
func ContainsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(casefold(s)) + "%"
}

// Contains returns a predicate matching column against one
// ContainsPattern argument. NULL columns compare as empty text.
func Contains(column string) string {
	return `casefold(COALESCE(` + column + `, '')) LIKE ? ESCAPE '\'`
}
