package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	_, found, err := store.Get(ctx, "category_list")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "category_list", []byte("[]"), time.Hour))

	val, found, err := store.Get(ctx, "category_list")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("[]"), val)

	require.NoError(t, store.Delete(ctx, "category_list", "never_set"))

	exists, err := store.Exists(ctx, "category_list")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{})
	now := time.Date(2024, 10, 16, 7, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "category_shoes", []byte("{}"), time.Hour))

	now = now.Add(59 * time.Minute)
	_, found, _ := store.Get(ctx, "category_shoes")
	assert.True(t, found)

	now = now.Add(time.Minute)
	_, found, _ = store.Get(ctx, "category_shoes")
	assert.False(t, found)
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", buf, time.Hour))
	buf[0] = 'z'

	val, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), val)
}

func TestMemoryStore_Invalidate(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "product_list", []byte("x"), time.Hour))
	require.NoError(t, store.Set(ctx, "product_red", []byte("x"), time.Hour))
	require.NoError(t, store.Set(ctx, "category_list", []byte("x"), time.Hour))

	require.NoError(t, store.Invalidate(ctx, DetailPrefix(KindProduct)))

	ok, _ := store.Exists(ctx, "product_red")
	assert.False(t, ok)
	ok, _ = store.Exists(ctx, "category_list")
	assert.True(t, ok)
}
