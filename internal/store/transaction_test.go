package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, dbMock
}

func TestRunInTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when the function succeeds", func(t *testing.T) {
		db, dbMock := newMockDB(t)
		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		ran := false
		err := RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ran)
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("rolls back and returns the function's error unchanged", func(t *testing.T) {
		db, dbMock := newMockDB(t)
		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		boom := errors.New("boom")
		err := RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("wraps a commit failure in ErrTransactionFailed", func(t *testing.T) {
		db, dbMock := newMockDB(t)
		dbMock.ExpectBegin()
		dbMock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		err := RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return nil
		})
		assert.ErrorIs(t, err, ErrTransactionFailed)
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("propagates a begin failure", func(t *testing.T) {
		db, dbMock := newMockDB(t)
		dbMock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			t.Fatal("function must not run without a transaction")
			return nil
		})
		assert.ErrorContains(t, err, "failed to begin transaction")
	})

	t.Run("rolls back before re-panicking", func(t *testing.T) {
		db, dbMock := newMockDB(t)
		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		assert.PanicsWithValue(t, "kaboom", func() {
			_ = RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
				panic("kaboom")
			})
		})
		require.NoError(t, dbMock.ExpectationsWereMet())
	})
}
