package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ss, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "modules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })
	return ss
}

func TestSQLiteStore_PutReadExists(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.Put(ctx, "intro", "# Intro\n\nbody"))

	assert.True(t, ss.Exists(ctx, "intro"))
	assert.False(t, ss.Exists(ctx, "missing"))

	content, err := ss.Read(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, "# Intro\n\nbody", content)

	_, err = ss.Read(ctx, "missing")
	var nfe NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "missing", nfe.Identifier)
}

func TestSQLiteStore_PutUpsertsAndExtractsMetadata(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.Put(ctx, "duckdb", "first version"))
	require.NoError(t, ss.Put(ctx, "duckdb", "---\ntitle: DuckDB\ndescription: SQL engine\n---\n\nsecond version"))

	content, err := ss.Read(ctx, "duckdb")
	require.NoError(t, err)
	assert.Contains(t, content, "second version")

	entries, err := ss.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "duckdb", entries[0].Identifier)
	assert.Equal(t, "DuckDB", entries[0].Title)
	assert.Equal(t, "SQL engine", entries[0].Description)
}

func TestSQLiteStore_ListOrdered(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.Put(ctx, "neovim", "n"))
	require.NoError(t, ss.Put(ctx, "bigquery", "b"))

	entries, err := ss.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bigquery", entries[0].Identifier)
	assert.Equal(t, "neovim", entries[1].Identifier)
}

func TestSQLiteStore_Remove(t *testing.T) {
	ctx := context.Background()
	ss := openTestStore(t)

	require.NoError(t, ss.Put(ctx, "intro", "body"))
	require.NoError(t, ss.Remove(ctx, "intro"))
	assert.False(t, ss.Exists(ctx, "intro"))

	err := ss.Remove(ctx, "intro")
	var nfe NotFoundError
	require.ErrorAs(t, err, &nfe)
}
