package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPoolOnce sync.Once
	testPool     *pgxpool.Pool
	testPoolErr  error
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// openTestPool connects to the integration database once per test binary.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			getEnvOrDefault("TEST_DB_USER", "postgres"),
			getEnvOrDefault("TEST_DB_PASSWORD", "password"),
			getEnvOrDefault("TEST_DB_HOST", "localhost"),
			getEnvOrDefault("TEST_DB_PORT", "5433"),
			getEnvOrDefault("TEST_DB_NAME", "consumption_test"),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		testPool, testPoolErr = Connect(ctx, dsn, 1, 0, nil)
		if testPoolErr != nil {
			return
		}
		testPoolErr = RunMigrations(dsn)
	})

	if testPoolErr != nil {
		t.Skipf("postgres not reachable: %v", testPoolErr)
	}
	return testPool
}

func TestPostgresStore(t *testing.T) {
	pool := openTestPool(t)

	runStoreTests(t, func(t *testing.T) Store {
		_, err := pool.Exec(context.Background(), "TRUNCATE consumption_records, users CASCADE")
		require.NoError(t, err)
		return NewPostgresStore(pool)
	})
}

func TestNumericConversion(t *testing.T) {
	t.Run("should keep scale through pgtype.Numeric", func(t *testing.T) {
		d := decimal.RequireFromString("123.45")

		n := numericFromDecimal(d)
		assert.True(t, n.Valid)
		assert.True(t, d.Equal(decimalFromNumeric(n)))
	})

	t.Run("should treat an invalid numeric as zero", func(t *testing.T) {
		assert.True(t, decimalFromNumeric(pgtype.Numeric{}).IsZero())
	})
}

func TestTranslateError(t *testing.T) {
	t.Run("should map unique violations to ErrConflict", func(t *testing.T) {
		err := translateError("create user", &pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("should map foreign key violations to a user_id validation error", func(t *testing.T) {
		err := translateError("create consumption", &pgconn.PgError{Code: "23503"})

		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "user_id", validation.Field)
	})

	t.Run("should map numeric overflow to an amount validation error", func(t *testing.T) {
		err := translateError("create consumption", &pgconn.PgError{Code: "22003"})

		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "amount", validation.Field)
	})

	t.Run("should pass validation errors through", func(t *testing.T) {
		in := Invalid("amount", "must not be negative")
		assert.Same(t, in, translateError("update consumption", in))
	})

	t.Run("should wrap anything else", func(t *testing.T) {
		err := translateError("list users", assert.AnError)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "list users")
	})
}
