package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// New 创建存储实例
func New(config Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(config.Type) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "lru":
		return NewLRUStore(config.LRU.Size)
	case "redis":
		s, err = NewRedisStore(config.Redis, config.Prefix)
	case "sql":
		s, err = NewSQLStore(config.SQL)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	if config.Layered {
		return NewLayeredStore(s, config.LRU.Size)
	}
	return s, nil
}

// layeredStore 分层存储（LRU + 持久层）
type layeredStore struct {
	front *lruStore
	back  Store
}

// NewLayeredStore puts a bounded LRU in front of back. Writes go through to
// back first; reads fill the LRU.
func NewLayeredStore(back Store, size int) (Store, error) {
	front, err := NewLRUStore(size)
	if err != nil {
		return nil, err
	}
	return &layeredStore{front: front.(*lruStore), back: back}, nil
}

// Get 先读本地，未命中时读持久层并回填
func (ls *layeredStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, _ := ls.front.Get(ctx, key); ok {
		return v, true, nil
	}
	v, ok, err := ls.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = ls.front.Set(ctx, key, v)
	return v, true, nil
}

// Set 同时写两层
func (ls *layeredStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ls.back.Set(ctx, key, value); err != nil {
		return err
	}
	return ls.front.Set(ctx, key, value)
}

// Delete 从两层删除
func (ls *layeredStore) Delete(ctx context.Context, key string) error {
	_ = ls.front.Delete(ctx, key)
	return ls.back.Delete(ctx, key)
}

func (ls *layeredStore) Keys(ctx context.Context) ([]string, error) {
	return ls.back.Keys(ctx)
}

func (ls *layeredStore) Close() error {
	_ = ls.front.Close()
	return ls.back.Close()
}

func sortedKeys(keys []string) []string {
	sort.Strings(keys)
	return keys
}
