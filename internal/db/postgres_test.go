package db

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Runs against a real database only when TEST_POSTGRES_DSN is set.
func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	gdb, err := Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	require.NoError(t, gdb.Exec("DELETE FROM records").Error)

	exerciseBackend(t, NewPostgres(gdb))
}
