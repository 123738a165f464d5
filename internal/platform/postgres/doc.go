// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces, plus helpers for mapping database errors to the
// store's error taxonomy.
package postgres
