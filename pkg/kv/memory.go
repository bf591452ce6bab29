package kv

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// memoryStore go-cache 包装器，不过期
type memoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() Store {
	return &memoryStore{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (ms *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := ms.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	return clone(v.([]byte)), true, nil
}

func (ms *memoryStore) Set(_ context.Context, key string, value []byte) error {
	ms.cache.Set(key, clone(value), gocache.NoExpiration)
	return nil
}

func (ms *memoryStore) Delete(_ context.Context, key string) error {
	ms.cache.Delete(key)
	return nil
}

func (ms *memoryStore) Keys(context.Context) ([]string, error) {
	items := ms.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return sortedKeys(keys), nil
}

func (ms *memoryStore) Close() error {
	ms.cache.Flush()
	return nil
}

// clone keeps callers from mutating stored bytes.
func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
