// Package sqlstore implements storage.Store on top of database/sql.
// The SQLite and PostgreSQL backends share it and differ only by Dialect.
package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the few places where SQLite and PostgreSQL disagree.
type Dialect struct {
	// Name is used in error messages and logs.
	Name string

	// Numbered placeholders ($1, $2, ...) instead of "?".
	Numbered bool

	// LockClause is appended to the SELECT that reads an expense for update.
	LockClause string

	// NoLimit is the LIMIT value meaning "no limit", needed when only OFFSET is set.
	NoLimit string

	// IsUniqueViolation reports whether err is a unique constraint violation.
	IsUniqueViolation func(err error) bool
}

// Rebind rewrites "?" placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) uniqueViolation(err error) bool {
	return d.IsUniqueViolation != nil && d.IsUniqueViolation(err)
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
