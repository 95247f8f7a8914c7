package cache

import (
	"context"
	"testing"
	"time"

	"github.com/specworks/reqregistry/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testLogger())
	defer c.Close()

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "doc", []byte(`{"a":1}`), time.Minute))

	val, found, err := c.Get(ctx, "doc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`{"a":1}`), val)

	require.NoError(t, c.Delete(ctx, "doc"))
	_, found, err = c.Get(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_ExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(testLogger())
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), -time.Second))

	_, found, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)
}

// fakeRedisStore is an in-memory stand-in for the redis client
type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: make(map[string]string)}
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, ok := f.values[key]
	return val, ok, nil
}

func (f *fakeRedisStore) Set(ctx context.Context, key, value string, expiry time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeRedisStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedisStore()
	c := NewRedisCache(store, testLogger())

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "view:abc", []byte(`{"rule":""}`), time.Hour))

	val, found, err := c.Get(ctx, "view:abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`{"rule":""}`), val)

	require.NoError(t, c.Delete(ctx, "view:abc"))
	_, found, err = c.Get(ctx, "view:abc")
	require.NoError(t, err)
	assert.False(t, found)
}
