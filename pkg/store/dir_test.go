package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirStore_ExistsAndRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeModule(t, dir, "intro.md", "# Intro\n")

	ds, err := NewDirStore(WithDirs(dir))
	require.NoError(t, err)

	assert.True(t, ds.Exists(ctx, "intro"))
	assert.False(t, ds.Exists(ctx, "missing"))

	content, err := ds.Read(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, "# Intro\n", content)

	_, err = ds.Read(ctx, "missing")
	var nfe NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestDirStore_BareNameFallback(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeModule(t, dir, "notes", "plain file without extension")

	ds, err := NewDirStore(WithDirs(dir))
	require.NoError(t, err)

	assert.True(t, ds.Exists(ctx, "notes"))
	content, err := ds.Read(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "plain file without extension", content)
}

func TestDirStore_PrecedenceFirstDirWins(t *testing.T) {
	ctx := context.Background()
	local := t.TempDir()
	global := t.TempDir()
	writeModule(t, local, "intro.md", "local copy")
	writeModule(t, global, "intro.md", "global copy")
	writeModule(t, global, "extra.md", "only global")

	ds, err := NewDirStore(WithDirs(local, global))
	require.NoError(t, err)

	content, err := ds.Read(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, "local copy", content)

	content, err = ds.Read(ctx, "extra")
	require.NoError(t, err)
	assert.Equal(t, "only global", content)
}

func TestDirStore_List(t *testing.T) {
	ctx := context.Background()
	local := t.TempDir()
	global := t.TempDir()
	writeModule(t, local, "bigquery.md", "---\ntitle: BigQuery\ndescription: Warehouse expertise\n---\n\nbody")
	writeModule(t, local, "neovim.md", "# Neovim\n")
	writeModule(t, global, "neovim.md", "shadowed")
	writeModule(t, global, "duckdb.md", "# DuckDB\n")

	ds, err := NewDirStore(WithDirs(local, global))
	require.NoError(t, err)

	entries, err := ds.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "bigquery", entries[0].Identifier)
	assert.Equal(t, "BigQuery", entries[0].Title)
	assert.Equal(t, "Warehouse expertise", entries[0].Description)
	assert.Equal(t, "duckdb", entries[1].Identifier)
	assert.Equal(t, "neovim", entries[2].Identifier)
}

func TestDirStore_ListMissingDirIsEmpty(t *testing.T) {
	ds, err := NewDirStore(WithDirs(filepath.Join(t.TempDir(), "does-not-exist")))
	require.NoError(t, err)

	entries, err := ds.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFilterByPattern(t *testing.T) {
	entries := []Entry{
		{Identifier: "duckdb"},
		{Identifier: "duckdb-wasm"},
		{Identifier: "neovim"},
	}

	filtered, err := FilterByPattern(entries, "duckdb*")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "duckdb", filtered[0].Identifier)
	assert.Equal(t, "duckdb-wasm", filtered[1].Identifier)

	all, err := FilterByPattern(entries, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = FilterByPattern(entries, "[")
	assert.Error(t, err)
}
