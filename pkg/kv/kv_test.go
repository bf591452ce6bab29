package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)

	redisStore, err := New(Config{Type: "redis", Prefix: "test:", Redis: RedisConfig{Addr: mr.Addr()}})
	require.NoError(t, err)
	sqlStore, err := New(Config{Type: "sql", SQL: SQLConfig{Driver: "sqlite"}})
	require.NoError(t, err)
	layered, err := New(Config{Type: "sql", Layered: true, LRU: LRUConfig{Size: 2}})
	require.NoError(t, err)
	lruStore, err := New(Config{Type: "lru", LRU: LRUConfig{Size: 16}})
	require.NoError(t, err)
	memory, err := New(Config{})
	require.NoError(t, err)

	stores := map[string]Store{
		"memory":  memory,
		"lru":     lruStore,
		"redis":   redisStore,
		"sql":     sqlStore,
		"layered": layered,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoreBackends(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "isAnonymous", []byte("true")))
			require.NoError(t, s.Set(ctx, "isAnonymous", []byte("false")))
			v, ok, err := s.Get(ctx, "isAnonymous")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "false", string(v))

			require.NoError(t, s.Set(ctx, "guardianlink-user-status", []byte(`"help"`)))
			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"guardianlink-user-status", "isAnonymous"}, keys)

			require.NoError(t, s.Delete(ctx, "isAnonymous"))
			require.NoError(t, s.Delete(ctx, "isAnonymous"))
			_, ok, err = s.Get(ctx, "isAnonymous")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type contact struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	in := []contact{{Name: "Mom", Phone: "111-222-3333"}}
	require.NoError(t, SetJSON(ctx, s, "guardianlink-trusted-contacts", in))

	var out []contact
	ok, err := GetJSON(ctx, s, "guardianlink-trusted-contacts", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)

	t.Run("undecodable value", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "broken", []byte("{not json")))
		var v []contact
		ok, err := GetJSON(ctx, s, "broken", &v)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'
	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestLRUEvicts(t *testing.T) {
	ctx := context.Background()
	s, err := NewLRUStore(2)
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, k, []byte(k)))
	}
	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)
	keys, _ := s.Keys(ctx)
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestUnsupportedType(t *testing.T) {
	_, err := New(Config{Type: "etcd"})
	assert.Error(t, err)
}
