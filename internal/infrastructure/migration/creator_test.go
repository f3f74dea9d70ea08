package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add stock reservations", "reservation table for pending returns")
	require.NoError(t, err)

	assert.Len(t, mf.Version, len(versionFormat))
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_stock_reservations.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_stock_reservations.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add stock reservations up")
	assert.Contains(t, string(up), "reservation table for pending returns")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "add stock reservations down")
}

func TestCreateMigrationMakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)

	_, err = os.Stat(mf.UpPath)
	assert.NoError(t, err)
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"add stock reservations":  "add_stock_reservations",
		"Add-Stock--Reservations": "add_stock_reservations",
		"  spaces  everywhere  ":  "spaces_everywhere",
		"v2 Schema!":              "v2_schema",
		"___":                     "",
	}

	for in, want := range cases {
		assert.Equal(t, want, sanitizeName(in), "input %q", in)
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"20260801100000_create_materials",
		"20260801100500_create_stock_ledger",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".up.sql"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".down.sql"), nil, 0o644))
	}
	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), nil, 0o644))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20260801100000_create_materials",
		"20260801100500_create_stock_ledger",
	}, names)
}

func TestListMigrationsMissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
