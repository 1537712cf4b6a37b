package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MemoryOnly(t *testing.T) {
	s, err := NewStore("", "https://api.example.com")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, ok := s.Get("missing")
	assert.False(t, ok)

	require.NoError(t, s.Set("profile_cache_own_profile", []byte(`{"ID":"u1"}`)))
	got, ok := s.Get("profile_cache_own_profile")
	require.True(t, ok)
	assert.Equal(t, `{"ID":"u1"}`, string(got))

	require.NoError(t, s.Remove("profile_cache_own_profile"))
	_, ok = s.Get("profile_cache_own_profile")
	assert.False(t, ok)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set("k", []byte("abc")))

	got, _ := s.Get("k")
	got[0] = 'z'

	again, _ := s.Get("k")
	assert.Equal(t, "abc", string(again))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir, "https://api.example.com/")
	require.NoError(t, err)
	require.NoError(t, s.Set("profile_cache_timestamp_own_profile", []byte("1700000000000")))
	require.NoError(t, s.Close())

	// Trailing slash and case do not change the per-server directory
	reopened, err := NewStore(dir, "HTTPS://API.EXAMPLE.COM")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, ok := reopened.Get("profile_cache_timestamp_own_profile")
	require.True(t, ok)
	assert.Equal(t, "1700000000000", string(got))
}

func TestStore_RemovePrefix(t *testing.T) {
	s, err := NewStore(t.TempDir(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	keys := []string{
		"profile_videos_cache_u1",
		"profile_videos_cache_u2",
		"profile_videos_cache_timestamp_u1",
		"profile_cache_u1",
	}
	for _, k := range keys {
		require.NoError(t, s.Set(k, []byte("x")))
	}

	require.NoError(t, s.RemovePrefix("profile_videos_"))

	for _, k := range keys[:3] {
		_, ok := s.Get(k)
		assert.False(t, ok, k)
	}
	_, ok := s.Get("profile_cache_u1")
	assert.True(t, ok)
}

func TestHashServerURL(t *testing.T) {
	a := hashServerURL("https://api.example.com/")
	b := hashServerURL("https://API.example.com")
	c := hashServerURL("https://other.example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 12)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `profile_cache_`, escapeGlob("profile_cache_"))
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}
