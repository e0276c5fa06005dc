package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, KeyEmail)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, b.Set(ctx, KeyEmail, []byte(`"me@example.com"`)))
	require.NoError(t, b.Set(ctx, KeyAuthKey, []byte(`"secret"`)))

	got, err := b.Get(ctx, KeyEmail)
	require.NoError(t, err)
	assert.JSONEq(t, `"me@example.com"`, string(got))

	require.NoError(t, b.Delete(ctx, KeyEmail, KeyAuthKey, "missing"))
	_, err = b.Get(ctx, KeyAuthKey)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFileCache(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir)
	require.NoError(t, err)
	exerciseBackend(t, fc)
}

func TestFileCachePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	fc, err := NewFileCache(dir)
	require.NoError(t, err)
	require.NoError(t, fc.Set(ctx, KeyMonitoring, []byte(`true`)))

	reopened, err := NewFileCache(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, KeyMonitoring)
	require.NoError(t, err)
	assert.Equal(t, "true", string(got))

	info, err := os.Stat(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileCacheWriteFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fc.Set(ctx, KeyEmail, []byte(`"old@example.com"`)))

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	fc.path = filepath.Join(blocker, "session.json")

	assert.Error(t, fc.Set(ctx, KeyEmail, []byte(`"new@example.com"`)))
	got, err := fc.Get(ctx, KeyEmail)
	require.NoError(t, err)
	assert.JSONEq(t, `"old@example.com"`, string(got))

	assert.Error(t, fc.Set(ctx, KeyAuthKey, []byte(`"secret"`)))
	_, err = fc.Get(ctx, KeyAuthKey)
	assert.ErrorIs(t, err, ErrMiss)

	assert.Error(t, fc.Delete(ctx, KeyEmail))
	_, err = fc.Get(ctx, KeyEmail)
	assert.NoError(t, err)
}

func TestFileCacheRejectsInvalidJSON(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, fc.Set(context.Background(), KeyAddons, []byte("{broken")))
}

func TestFileCacheCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("not json"), 0600))

	_, err := NewFileCache(dir)
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rc := NewRedisCacheWithClient(client, "addonctl:", time.Hour)
	defer rc.Close()

	exerciseBackend(t, rc)

	require.NoError(t, rc.Set(context.Background(), KeyAddons, []byte(`[]`)))
	assert.True(t, mr.Exists("addonctl:addons"))
	assert.Equal(t, time.Hour, mr.TTL("addonctl:addons"))
}

func TestNewRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url", "", 0)
	assert.Error(t, err)
}

func TestNewRedisCacheConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache("redis://"+mr.Addr()+"/0", "p:", 0)
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Set(context.Background(), KeyEmail, []byte(`"x"`)))
	assert.True(t, mr.Exists("p:email"))
}
