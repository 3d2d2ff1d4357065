package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identities.db")

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	var count int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'identities'`,
	).Scan(&count))
	assert.Equal(t, 1, count)

	// Re-running on an up-to-date schema is a no-op.
	assert.NoError(t, RunMigrations(database))
}
