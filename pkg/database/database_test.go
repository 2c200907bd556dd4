package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		expected   bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: false,
		},
		{
			name:     "unique violation any constraint",
			err:      &pgconn.PgError{Code: UniqueViolation, ConstraintName: "coupons_code_key"},
			expected: true,
		},
		{
			name:       "unique violation matching constraint",
			err:        &pgconn.PgError{Code: UniqueViolation, ConstraintName: "coupons_code_key"},
			constraint: "coupons_code_key",
			expected:   true,
		},
		{
			name:       "unique violation other constraint",
			err:        &pgconn.PgError{Code: UniqueViolation, ConstraintName: "reviews_pkey"},
			constraint: "coupons_code_key",
			expected:   false,
		},
		{
			name:     "wrapped unique violation",
			err:      fmt.Errorf("insert coupon: %w", &pgconn.PgError{Code: UniqueViolation}),
			expected: true,
		},
		{
			name:     "foreign key violation",
			err:      &pgconn.PgError{Code: "23503"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUniqueViolation(tt.err, tt.constraint))
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
}

func TestWithTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE businesses").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err = WithTx(context.Background(), mock, func(tx pgx.Tx) error {
			_, err := tx.Exec(context.Background(), "UPDATE businesses SET review_count = review_count + 1")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("coupon insert failed")
		err = WithTx(context.Background(), mock, func(tx pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		called := false
		err = WithTx(context.Background(), mock, func(tx pgx.Tx) error { called = true; return nil })
		assert.ErrorContains(t, err, "begin transaction")
		assert.False(t, called)
	})

	t.Run("commit failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err = WithTx(context.Background(), mock, func(tx pgx.Tx) error { return nil })
		assert.ErrorContains(t, err, "commit transaction")
	})
}
