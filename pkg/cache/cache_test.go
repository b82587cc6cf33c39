package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	a := Key("wrap=0", []byte("<body>x</body>"))

	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("wrap=0", []byte("<body>x</body>")))
	assert.NotEqual(t, a, Key("wrap=80", []byte("<body>x</body>")))
	assert.NotEqual(t, a, Key("wrap=0", []byte("<body>y</body>")))
	assert.NotEqual(t, Key("ab", []byte("c")), Key("a", []byte("bc")))
}

func TestDiskStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	values := map[string]string{
		"aa01": "",
		"bb02": "/**\n * short\n */\n",
		"cc03": strings.Repeat("/**\n * repetitive text compresses well\n */\n", 50),
		"d":    "single character key",
	}

	for key, value := range values {
		require.NoError(t, store.Put(key, value))
	}

	for key, want := range values {
		got, ok := store.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}

	_, ok := store.Get("ffff")
	assert.False(t, ok)
}

func TestDiskStore_ConcurrentPutSameKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	key := Key("wrap=0", []byte("<body>same</body>"))
	value := "/**\n * same\n */\n"

	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)

	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 25 {
				if putErr := store.Put(key, value); putErr != nil {
					failed.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	assert.Zero(t, failed.Load())

	got, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, value, got)

	entries, err := os.ReadDir(filepath.Join(dir, key[:2]))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDiskStore_CompressesLargeEntries(t *testing.T) {
	t.Parallel()

	value := strings.Repeat("abcdefgh", 512)
	encoded := encodeEntry(value)

	assert.Equal(t, modeLZ4, encoded[0])
	assert.Less(t, len(encoded), len(value))
}

func TestDiskStore_CorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("abcd", strings.Repeat("xy", 100)))

	path := store.path("abcd")
	require.NoError(t, os.WriteFile(path, []byte{modeLZ4, 200, 0, 0, 0, 0xff}, 0o600))

	_, ok := store.Get("abcd")
	assert.False(t, ok)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestDecodeEntry_Errors(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{
		nil,
		{modeRaw, 1},
		{modeRaw, 3, 0, 0, 0, 'a'},
		{9, 0, 0, 0, 0},
	} {
		_, err := decodeEntry(data)
		assert.ErrorIs(t, err, errCorrupt)
	}
}

func TestCache_Tiers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first, err := New(1024, dir)
	require.NoError(t, err)

	key := Key("", []byte("input"))

	_, ok := first.Get(key)
	assert.False(t, ok)
	require.NoError(t, first.Put(key, "comment"))

	got, ok := first.Get(key)
	require.True(t, ok)
	assert.Equal(t, "comment", got)

	stats := first.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.DiskMisses)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)

	second, err := New(1024, dir)
	require.NoError(t, err)

	got, ok = second.Get(key)
	require.True(t, ok)
	assert.Equal(t, "comment", got)
	assert.Equal(t, int64(1), second.Stats().DiskHits)
	assert.Equal(t, 1, second.Stats().Entries)

	_, statErr := os.Stat(filepath.Join(dir, key[:2], key+entryExt))
	assert.NoError(t, statErr)
}

func TestCache_MemoryOnly(t *testing.T) {
	t.Parallel()

	c, err := New(0, "")
	require.NoError(t, err)

	require.NoError(t, c.Put("k", "v"))

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Zero(t, c.Stats().DiskHits)
	assert.Zero(t, Stats{}.HitRate())
}
