package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"GuardianLink/pkg/errors"
	"GuardianLink/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const defaultRate = "10-S"

// 限流维度
const (
	ByIP      = "ip"
	ByIPRoute = "ip+route"
	// ByClient 使用 X-Client-ID 头或 ?client=，与通知流的客户端 ID 一致，缺失时退回 IP
	ByClient = "client"
)

// RateLimiterConfig 限流配置
//
// Rate 为 ulule/limiter 格式，例如发消息 "10-M"；SkipPaths 前缀匹配
type RateLimiterConfig struct {
	Rate           string
	Identifier     string
	WhitelistCIDRs []string
	SkipPaths      []string
	AddHeaders     bool
	DenyMessage    string
}

// Observer 接收每次放行与拒绝
type Observer interface {
	OnAllow(route string)
	OnDeny(route string)
}

type PrometheusObserver struct {
	allow *prometheus.CounterVec
	deny  *prometheus.CounterVec
}

// NewPrometheusObserver registers the allow/deny counters on reg.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	p := &PrometheusObserver{
		allow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_allow_total",
			Help: "Requests let through by the rate limiter.",
		}, []string{"route"}),
		deny: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_deny_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}
	if reg != nil {
		reg.MustRegister(p.allow, p.deny)
	}
	return p
}

func (p *PrometheusObserver) OnAllow(route string) { p.allow.WithLabelValues(route).Inc() }
func (p *PrometheusObserver) OnDeny(route string)  { p.deny.WithLabelValues(route).Inc() }

// RateLimiter guards one group of routes with a single rate.
type RateLimiter struct {
	cfg   RateLimiterConfig
	lim   *limiter.Limiter
	white []*net.IPNet

	mu  sync.RWMutex
	obs Observer
}

// NewRateLimiter 构造限流器；store 为空时使用进程内存储，Rate 无法解析时退回 10-S
func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted(defaultRate)
	}
	l := &RateLimiter{cfg: cfg, lim: limiter.New(store, rate)}
	for _, s := range cfg.WhitelistCIDRs {
		if _, n, err := net.ParseCIDR(strings.TrimSpace(s)); err == nil {
			l.white = append(l.white, n)
		}
	}
	return l
}

func (l *RateLimiter) WithObserver(obs Observer) *RateLimiter {
	l.mu.Lock()
	l.obs = obs
	l.mu.Unlock()
	return l
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeOf(c)
		if l.skipped(route) {
			c.Next()
			return
		}
		ip := strings.TrimPrefix(c.ClientIP(), "::ffff:")
		if l.whitelisted(ip) {
			c.Next()
			return
		}

		res, err := l.lim.Get(c, l.key(c, ip, route))
		if err != nil {
			// 存储不可用时放行
			c.Next()
			return
		}
		if l.cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			c.Header("X-RateLimit-Reset", strconv.Itoa(secondsUntil(res.Reset)))
		}
		if res.Reached {
			c.Header("Retry-After", strconv.Itoa(secondsUntil(res.Reset)))
			l.report(route, false)
			msg := l.cfg.DenyMessage
			if msg == "" {
				msg = http.StatusText(http.StatusTooManyRequests)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Body{Code: errors.CodeLimitReached, Msg: msg})
			return
		}
		l.report(route, true)
		c.Next()
	}
}

func (l *RateLimiter) key(c *gin.Context, ip, route string) string {
	switch l.cfg.Identifier {
	case ByIPRoute:
		return "iprt:" + ip + ":" + route
	case ByClient:
		id := strings.TrimSpace(c.GetHeader("X-Client-ID"))
		if id == "" {
			id = c.Query("client")
		}
		if id != "" {
			return "client:" + id
		}
	}
	return "ip:" + ip
}

func (l *RateLimiter) skipped(route string) bool {
	for _, p := range l.cfg.SkipPaths {
		if p != "" && strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

func (l *RateLimiter) whitelisted(ip string) bool {
	pip := net.ParseIP(ip)
	if pip == nil {
		return false
	}
	for _, n := range l.white {
		if n.Contains(pip) {
			return true
		}
	}
	return false
}

func (l *RateLimiter) report(route string, allowed bool) {
	l.mu.RLock()
	obs := l.obs
	l.mu.RUnlock()
	if obs == nil {
		return
	}
	if allowed {
		obs.OnAllow(route)
	} else {
		obs.OnDeny(route)
	}
}

func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return c.Request.URL.Path
}

func secondsUntil(unix int64) int {
	if s := int(time.Until(time.Unix(unix, 0)).Seconds()); s > 0 {
		return s
	}
	return 0
}
