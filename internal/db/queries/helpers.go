// Package queries is generated by sqlc from internal/db/sql against the goose
// migrations; run `go tool sqlc generate -f internal/db/sqlc.yaml` after
// changing either. Only this file is written by hand.
package queries

import "database/sql"

// WithDBTX returns a copy bound to another connection. Unlike WithTx it
// accepts instrumented wrappers around a transaction.
func (q *Queries) WithDBTX(db DBTX) *Queries {
	return &Queries{db: db}
}

// NullString maps an empty string to NULL.
func NullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
