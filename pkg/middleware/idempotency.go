package middleware

import (
	"net/http"
	"strings"
	"time"

	"GuardianLink/pkg/response"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

type IdemStore interface {
	Set(key string, ttl time.Duration) bool // return true if set, false if exists
}

// memoryIdemStore go-cache 实现，过期键由 go-cache 清理
type memoryIdemStore struct {
	c *gocache.Cache
}

func NewMemoryIdemStore(cleanup time.Duration) IdemStore {
	return &memoryIdemStore{c: gocache.New(gocache.NoExpiration, cleanup)}
}

func (s *memoryIdemStore) Set(key string, ttl time.Duration) bool {
	return s.c.Add(key, struct{}{}, ttl) == nil
}

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 决定一段时间内重复请求的拒绝窗口
	Store      IdemStore     // 可选外部存储
}

// IdempotencyMiddleware rejects a repeated Idempotency-Key on the same route
// within TTL. Requests without the header pass through.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryIdemStore(time.Minute)
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			c.Next()
			return
		}
		key = c.Request.Method + " " + c.FullPath() + " " + key
		if !store.Set(key, cfg.TTL) {
			c.AbortWithStatusJSON(http.StatusConflict, response.Body{Code: http.StatusConflict, Msg: "duplicate request"})
			return
		}
		c.Next()
	}
}
