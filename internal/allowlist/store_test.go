package allowlist_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/raysh454/phishcatcher/internal/allowlist"
	"github.com/raysh454/phishcatcher/internal/testutil"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore_ImportSnapshot(t *testing.T) {
	ctx := context.Background()
	store, err := allowlist.NewStore(openTestDB(t), &testutil.DummyLogger{})
	require.NoError(t, err)

	n, err := store.Import(ctx, []string{"Example.com", "bank.example.", "example.com"}, "test")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bank.example", entries[0].Domain)
	assert.Equal(t, "test", entries[0].Source)

	set, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, set.IsTrusted("example.com"))
	assert.True(t, set.IsTrusted("bank.example"))

	require.NoError(t, store.Remove(ctx, "EXAMPLE.com"))
	set, err = store.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, set.IsTrusted("example.com"))
}

func TestStore_ImportRejectsBlank(t *testing.T) {
	ctx := context.Background()
	store, err := allowlist.NewStore(openTestDB(t), nil)
	require.NoError(t, err)

	_, err = store.Import(ctx, []string{"ok.com", "   "}, "test")
	require.True(t, errors.Is(err, allowlist.ErrEmptyDomain))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed import must roll back")
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := allowlist.NewStore(nil, nil)
	require.Error(t, err)
}
