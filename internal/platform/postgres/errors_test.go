package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquell/vocab-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil error", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", pgError(uniqueViolationCode, "dictionary_entries_word_unique"), store.ErrDuplicate},
		{"foreign key violation", pgError(foreignKeyViolationCode, "review_items_entry_id_fkey"), store.ErrInvalidEntity},
		{"check violation", pgError(checkViolationCode, "review_items_status_range"), store.ErrInvalidEntity},
		{"not null violation", pgError(notNullViolationCode, ""), store.ErrInvalidEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MapError(tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}

	// Unknown errors pass through untouched.
	unknown := errors.New("connection reset")
	assert.Equal(t, unknown, MapError(unknown))

	// Wrapped pg errors are still recognized.
	wrapped := fmt.Errorf("insert failed: %w", pgError(uniqueViolationCode, ""))
	assert.ErrorIs(t, MapError(wrapped), store.ErrDuplicate)
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()
	assert.True(t, IsUniqueViolation(pgError(uniqueViolationCode, "")))
	assert.False(t, IsUniqueViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsUniqueViolation(errors.New("other")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()
	assert.True(t, IsForeignKeyViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsForeignKeyViolation(pgError(uniqueViolationCode, "")))
	assert.False(t, IsForeignKeyViolation(nil))
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "exam"))

	err := CheckRowsAffected(fakeResult{rows: 0}, "exam")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "exam")

	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, ""), store.ErrNotFound)

	assert.Error(t, CheckRowsAffected(nil, "exam"))
	assert.Error(t, CheckRowsAffected(fakeResult{err: errors.New("driver")}, "exam"))
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	specific := errors.New("word already exists")
	err := MapUniqueViolation(pgError(uniqueViolationCode, ""), specific)
	assert.ErrorIs(t, err, specific)

	// Falls back to the generic duplicate error.
	err = MapUniqueViolation(pgError(uniqueViolationCode, ""), nil)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// Non-unique errors pass through.
	other := errors.New("other")
	assert.Equal(t, other, MapUniqueViolation(other, specific))
}
