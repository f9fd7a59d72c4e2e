package threadstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curielabs/curie/pkg/config"
)

func TestNewStoreBackends(t *testing.T) {
	store, err := NewStore(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore(config.StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore(config.StoreConfig{
		Backend: "sqlite",
		Path:    filepath.Join(t.TempDir(), "threads.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = NewStore(config.StoreConfig{Backend: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "conversation:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "conversation:u1", `[{"role":"user","content":"hi"}]`))

	value, ok, err := store.Get(ctx, "conversation:u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"role":"user","content":"hi"}]`, value)

	require.NoError(t, store.Delete(ctx, "conversation:u1"))
	_, ok, err = store.Get(ctx, "conversation:u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "threads.db"), 0)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "manager_agentu1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "manager_agentu1", "first"))
	require.NoError(t, store.Set(ctx, "manager_agentu1", "second"))

	value, ok, err := store.Get(ctx, "manager_agentu1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", value)

	require.NoError(t, store.Delete(ctx, "manager_agentu1"))
	_, ok, err = store.Get(ctx, "manager_agentu1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreTTLExpiry(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "threads.db"), time.Minute)
	require.NoError(t, err)
	defer store.Close()

	current := time.Now()
	store.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "conversation:u1", "thread-data"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "conversation:u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "thread-data", value)
}
