package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add printers table", "add_printers_table"},
		{"Add-Printer-Index", "add_printer_index"},
		{"ADD_PAYMENT_STATUS", "add_payment_status"},
		{"add__order__notes", "add_order_notes"},
		{"Backfill 2024", "backfill_2024"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add printer location", "Track where printers live", createdAt)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_printer_location.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_printer_location.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "add order notes", "", createdAt)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_printer_location")
	assert.Contains(t, string(up), "Track where printers live")
	assert.Contains(t, string(up), "2024-05-10T12:00:00Z")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "", createdAt)
	assert.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "", createdAt)
	require.NoError(t, err)
	assert.FileExists(t, mf.UpPath)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		files, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("orders by version and ignores other files", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000010_add_index.up.sql", "000010_add_index.down.sql",
			"000002_create_orders.up.sql", "000002_create_orders.down.sql",
			"README.md", "embed.go",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

		files, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, uint(2), files[0].Version)
		assert.Equal(t, "create_orders", files[0].Name)
		assert.Equal(t, uint(10), files[1].Version)
		assert.Equal(t, filepath.Join(dir, "000010_add_index.down.sql"), files[1].DownPath)
	})

	t.Run("shipped schema pairs every up with a down", func(t *testing.T) {
		dir := filepath.Join("..", "..", "..", "migrations")
		files, err := ListMigrations(dir)
		require.NoError(t, err)
		require.NotEmpty(t, files)
		for i, f := range files {
			assert.Equal(t, uint(i+1), f.Version, "versions must be contiguous")
			assert.FileExists(t, f.DownPath)
		}
	})
}
