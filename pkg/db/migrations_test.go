package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestEmbeddedMigrationsApply(t *testing.T) {
	ctx := context.Background()
	sqlDB := openTestDB(t)

	require.NoError(t, InitializeDatabase(ctx, sqlDB))

	for _, table := range []string{"settings", "search_history", "migrations"} {
		var name string
		err := sqlDB.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}

	pending, err := NewMigrationManager(sqlDB).PendingMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAvailableMigrationsSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "010_later.sql", "CREATE TABLE later (id INTEGER);")
	writeMigration(t, dir, "002_first.sql", "CREATE TABLE first (id INTEGER);")
	writeMigration(t, dir, "notes.txt", "ignored")
	writeMigration(t, dir, "abc_bad.sql", "ignored")
	writeMigration(t, dir, "nounderscore.sql", "ignored")

	migrations, err := NewMigrationManagerFromPath(openTestDB(t), dir).AvailableMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Version)
	assert.Equal(t, "later", migrations[1].Name)
}

func TestStatusMarksAppliedMigrations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeMigration(t, dir, "001_one.sql", "CREATE TABLE one (id INTEGER);")
	m := NewMigrationManagerFromPath(openTestDB(t), dir)

	n, err := m.ApplyPendingMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	writeMigration(t, dir, "002_two.sql", "CREATE TABLE two (id INTEGER);")
	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.NotNil(t, status[0].AppliedAt)
	assert.Nil(t, status[1].AppliedAt)

	n, err = m.ApplyPendingMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeMigration(t, dir, "001_broken.sql", "CREATE TABLE ok (id INTEGER); THIS IS NOT SQL;")
	sqlDB := openTestDB(t)
	m := NewMigrationManagerFromPath(sqlDB, dir)

	_, err := m.ApplyPendingMigrations(ctx)
	require.Error(t, err)

	applied, err := m.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}
