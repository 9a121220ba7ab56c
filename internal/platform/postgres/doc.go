// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver. It also owns the schema migrations and
// the mapping from driver errors to store sentinels.
package postgres
