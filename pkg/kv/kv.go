// Package kv is the local persistence layer: a flat string-keyed store of
// JSON documents with pluggable backends.
package kv

import (
	"context"
	"encoding/json"
	"time"

	"GuardianLink/pkg/errors"
)

// Store 键值存储接口
type Store interface {
	// Get 获取值，不存在时 ok 为 false
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set 覆盖写入
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除键，不存在时不报错
	Delete(ctx context.Context, key string) error

	// Keys 列出所有键
	Keys(ctx context.Context) ([]string, error)

	// Close 关闭连接
	Close() error
}

// Config 存储配置
type Config struct {
	// 存储类型: "memory", "lru", "redis" 或 "sql"
	Type string `json:"type" yaml:"type" env:"STORE_TYPE" default:"memory"`

	// 键前缀, redis 使用
	Prefix string `json:"prefix" yaml:"prefix" env:"STORE_PREFIX" default:"guardianlink:"`

	// 在 redis/sql 之前加一层 LRU
	Layered bool `json:"layered" yaml:"layered" env:"STORE_LAYERED"`

	LRU   LRUConfig   `json:"lru" yaml:"lru"`
	Redis RedisConfig `json:"redis" yaml:"redis"`
	SQL   SQLConfig   `json:"sql" yaml:"sql"`
}

// LRUConfig LRU 配置
type LRUConfig struct {
	// 最大键数
	Size int `json:"size" yaml:"size" env:"STORE_LRU_SIZE" default:"256"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr" env:"REDIS_ADDR" default:"localhost:6379"`
	Password     string        `json:"password" yaml:"password" env:"REDIS_PASSWORD"`
	DB           int           `json:"db" yaml:"db" env:"REDIS_DB" default:"0"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size" env:"REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" env:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// SQLConfig 数据库配置
type SQLConfig struct {
	Driver string `json:"driver" yaml:"driver" env:"DB_DRIVER" default:"sqlite"`
	DSN    string `json:"dsn" yaml:"dsn" env:"DSN"`
}

// GetJSON decodes the value stored at key into v. A missing key reports
// ok=false and leaves v untouched.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return s.Set(ctx, key, raw)
}
