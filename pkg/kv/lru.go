package kv

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultLRUSize = 256

// lruStore 有界内存存储，超出容量时淘汰最久未使用的键
type lruStore struct {
	cache *lru.Cache[string, []byte]
}

// NewLRUStore 创建 LRU 存储
func NewLRUStore(size int) (Store, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &lruStore{cache: c}, nil
}

func (ls *lruStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := ls.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (ls *lruStore) Set(_ context.Context, key string, value []byte) error {
	ls.cache.Add(key, clone(value))
	return nil
}

func (ls *lruStore) Delete(_ context.Context, key string) error {
	ls.cache.Remove(key)
	return nil
}

func (ls *lruStore) Keys(context.Context) ([]string, error) {
	return sortedKeys(ls.cache.Keys()), nil
}

func (ls *lruStore) Close() error {
	ls.cache.Purge()
	return nil
}
