package database

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "bookings_active_slot_key"})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "bookings_active_slot_key"))
	assert.False(t, IsUniqueViolation(err, "customers_tenant_email_key"))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain"), ""))
}

func TestIsLockNotAvailable(t *testing.T) {
	err := fmt.Errorf("lock slot: %w", &pgconn.PgError{Code: CodeLockNotAvailable})

	assert.True(t, IsLockNotAvailable(err))
	assert.False(t, IsQueryCanceled(err))
	assert.True(t, IsQueryCanceled(&pgconn.PgError{Code: CodeQueryCanceled}))
}

func TestDSN(t *testing.T) {
	dsn := DSN(testDatabaseConfig())
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "dbname=weddings")
	assert.Contains(t, dsn, "port=5432")
}
