package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/naskhq/nask/internal/store"
)

func TestMapErrorNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, MapError(nil))
}

func TestMapErrorNoRows(t *testing.T) {
	t.Parallel()

	err := MapError(fmt.Errorf("query task: %w", sql.ErrNoRows))
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMapErrorUniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "tasks_pkey"}
	err := MapError(pgErr)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.True(t, IsUniqueViolation(pgErr))
}

func TestMapErrorNotNullViolation(t *testing.T) {
	t.Parallel()

	err := MapError(&pgconn.PgError{Code: notNullViolationCode, ColumnName: "notify_url"})
	assert.ErrorIs(t, err, store.ErrUpdateFailed)
	assert.Contains(t, err.Error(), "notify_url")
}

func TestMapErrorPassesThroughUnknown(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("connection reset")
	assert.Same(t, sentinel, MapError(sentinel))
	assert.False(t, IsUniqueViolation(sentinel))
}

func TestNullableResult(t *testing.T) {
	t.Parallel()

	assert.Nil(t, nullableResult(nil))
	assert.Nil(t, nullableResult([]byte{}))
	assert.Equal(t, "true", nullableResult([]byte("true")))
}
