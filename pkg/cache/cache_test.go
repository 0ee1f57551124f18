package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))
	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "value", string(data))

	require.NoError(t, c.Delete(ctx, "key"))
	_, hit, _ = c.Get(ctx, "key")
	assert.False(t, hit)
	require.NoError(t, c.Delete(ctx, "key"), "deleting a missing key is not an error")
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))
	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit, "NullCache should not store data")
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "key"))
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	require.NoError(t, err)
	defer c.Close()
	exercise(t, c)
}

func TestFileCache_Expired(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoFileExists(t, c.path("key"))
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	path := c.path("key")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoFileExists(t, path)
}

func TestDefaultDir(t *testing.T) {
	assert.NotEmpty(t, DefaultDir())
}

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(0)
	require.NoError(t, err)
	defer c.Close()
	exercise(t, c)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, hit, _ := c.Get(ctx, "b")
	assert.False(t, hit, "b was least recently used")
	_, hit, _ = c.Get(ctx, "a")
	assert.True(t, hit)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_TTLAndCopy(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(4)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	buf := []byte("value")
	require.NoError(t, c.Set(ctx, "key", buf, time.Minute))
	buf[0] = 'X'
	data, hit, _ := c.Get(ctx, "key")
	require.True(t, hit)
	assert.Equal(t, "value", string(data))

	now = now.Add(2 * time.Minute)
	_, hit, _ = c.Get(ctx, "key")
	assert.False(t, hit)
	assert.Zero(t, c.Len())
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	assert.Equal(t, h1, Hash([]byte("hello")))
	assert.NotEqual(t, h1, Hash([]byte("world")))
	assert.Len(t, h1, 64)
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", DiagramType: "graph"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", DiagramType: "graph"})
	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", DiagramType: "compact"})
	assert.NotEqual(t, ak1, ak2)
	assert.NotEqual(t, ak1, ak3)
	assert.Equal(t, ak1, k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", DiagramType: "graph"}))
	assert.Regexp(t, `^artifact:[0-9a-f]{64}$`, ak1)
}

func TestScopedKeyer(t *testing.T) {
	opts := ArtifactKeyOpts{Format: "svg"}
	scoped := NewScopedKeyer(NewDefaultKeyer(), "muleflow:")
	assert.Equal(t, "muleflow:"+NewDefaultKeyer().ArtifactKey("h", opts), scoped.ArtifactKey("h", opts))

	nilInner := NewScopedKeyer(nil, "p:")
	assert.Equal(t, "p:"+NewDefaultKeyer().ArtifactKey("h", opts), nilInner.ArtifactKey("h", opts))
}

func TestRetryableError(t *testing.T) {
	assert.NoError(t, Retryable(nil))

	err := Retryable(ErrNetwork)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrNetwork.Error(), err.Error())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 200 * time.Millisecond })

	calls := 0
	require.NoError(t, RetryWithBackoff(ctx, func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)

	plain := errors.New("plain")
	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return plain })
	assert.Equal(t, plain, err)
	assert.Equal(t, 1, calls, "non-retryable errors stop immediately")

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	assert.Equal(t, context.Canceled, err)
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-url://")
	require.Error(t, err)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.Equal(t, redis.Nil, classify(redis.Nil))

	plain := errors.New("WRONGTYPE")
	assert.Equal(t, plain, classify(plain))

	err := classify(fmt.Errorf("dial: %w", timeoutErr{}))
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, ErrNetwork)
}
