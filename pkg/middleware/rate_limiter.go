package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"HibiscusGuard/pkg/metrics"
)

// RateLimiterConfig 限流配置
//
// Rate: 默认速率，如 "600-M"；PerRouteRates 按注册路由覆盖，
// 事件上报与消息路由从配置单独给速率。
// Identifier: "ip" 或 "user"（会话中已有主体时按用户限，否则退回IP）。
// SkipPaths 前缀匹配；AddHeaders 写标准限流响应头。
type RateLimiterConfig struct {
	Rate          string            `json:"rate"`
	PerRouteRates map[string]string `json:"per_route_rates"`
	Identifier    string            `json:"identifier"`
	SkipPaths     []string          `json:"skip_paths"`
	AddHeaders    bool              `json:"add_headers"`
	DenyStatus    int               `json:"deny_status"` // 默认 429
	DenyMessage   string            `json:"deny_message"`
}

// RateLimiter 按路由速率缓存limiter实例的限流器
type RateLimiter struct {
	cfg            *RateLimiterConfig
	store          limiter.Store
	limitersByRate map[string]*limiter.Limiter // rate字符串 -> limiter
	mu             sync.RWMutex
}

// NewRateLimiter 构造限流器，store为nil时使用内存存储
func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	return &RateLimiter{
		cfg:            &cfg,
		store:          store,
		limitersByRate: make(map[string]*limiter.Limiter),
	}
}

// Middleware 返回 Gin 中间件
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := l.getConfig()

		if pathSkipped(*cfg, c.FullPath(), c.Request.URL.Path) {
			c.Next()
			return
		}

		key := buildLimitKey(*cfg, c)
		rateStr := l.pickRateForRoute(cfg, c)
		lim := l.getLimiter(rateStr)

		context, err := lim.Get(c, key)
		if err != nil {
			c.Next()
			return
		}
		if cfg.AddHeaders {
			setStandardHeaders(c, context)
		}
		if context.Reached {
			setRetryAfter(c, time.Until(time.Unix(context.Reset, 0)))
			metrics.RateLimited(routeOf(c))
			denyTooMany(c, *cfg)
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) getLimiter(rateStr string) *limiter.Limiter {
	l.mu.RLock()
	lim, ok := l.limitersByRate[rateStr]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limitersByRate[rateStr]; ok {
		return lim
	}
	r, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r = limiter.Rate{Period: time.Second, Limit: 10}
	}
	lim = limiter.New(l.store, r)
	l.limitersByRate[rateStr] = lim
	return lim
}

func (l *RateLimiter) pickRateForRoute(cfg *RateLimiterConfig, c *gin.Context) string {
	if cfg.PerRouteRates != nil {
		if r, ok := cfg.PerRouteRates[routeOf(c)]; ok && r != "" {
			return r
		}
	}
	if cfg.Rate != "" {
		return cfg.Rate
	}
	return "10-S"
}

func (l *RateLimiter) getConfig() *RateLimiterConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// UpdateConfig 动态更新配置；速率缓存重建
func (l *RateLimiter) UpdateConfig(cfg RateLimiterConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = &cfg
	l.limitersByRate = make(map[string]*limiter.Limiter)
}

// -------------------- 全局封装 --------------------
var (
	rateLimiterMutex  sync.RWMutex
	rateLimiterConfig = &RateLimiterConfig{Rate: "10-S", Identifier: "ip", AddHeaders: true, DenyStatus: http.StatusTooManyRequests}
	rlStore           limiter.Store
	globalRL          *RateLimiter
)

// SetRateLimiterStore 注入外部存储（如 Redis store）
func SetRateLimiterStore(store limiter.Store) {
	rateLimiterMutex.Lock()
	defer rateLimiterMutex.Unlock()
	rlStore = store
	globalRL = nil
}

// SetRateLimiterConfig 动态更新限流配置
func SetRateLimiterConfig(config RateLimiterConfig) {
	rateLimiterMutex.Lock()
	defer rateLimiterMutex.Unlock()
	rateLimiterConfig = &config
	if globalRL != nil {
		globalRL.UpdateConfig(config)
	}
}

// GetRateLimiterConfig 获取当前配置（拷贝）
func GetRateLimiterConfig() RateLimiterConfig {
	rateLimiterMutex.RLock()
	defer rateLimiterMutex.RUnlock()
	return *rateLimiterConfig
}

// RateLimiterMiddleware 全局限流中间件
func RateLimiterMiddleware() gin.HandlerFunc {
	ensureInitialized()
	return globalRL.Middleware()
}

// gin 官方中间件在每次请求创建 store/limiter，开销较大；我们缓存实例并支持动态更新
func ensureInitialized() {
	rateLimiterMutex.Lock()
	defer rateLimiterMutex.Unlock()
	if globalRL != nil {
		return
	}
	if rlStore == nil {
		rlStore = memory.NewStore()
	}
	globalRL = NewRateLimiter(*rateLimiterConfig, rlStore)
}

func pathSkipped(cfg RateLimiterConfig, fullPath, rawPath string) bool {
	if len(cfg.SkipPaths) == 0 {
		return false
	}
	p := fullPath
	if p == "" {
		p = rawPath
	}
	for _, pref := range cfg.SkipPaths {
		if pref != "" && strings.HasPrefix(p, pref) {
			return true
		}
	}
	return false
}

// routeOf 注册路由模板优先，未匹配路由退回原始路径
func routeOf(c *gin.Context) string {
	if full := c.FullPath(); full != "" {
		return full
	}
	return c.Request.URL.Path
}

func buildLimitKey(cfg RateLimiterConfig, c *gin.Context) string {
	if cfg.Identifier == "user" {
		if actor := Actor(c); actor != "" {
			return "user:" + actor
		}
	}
	ip := c.ClientIP()
	ip = strings.TrimPrefix(ip, "::ffff:")
	return "ip:" + ip
}

func setStandardHeaders(c *gin.Context, ctx limiter.Context) {
	c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
	resetSec := int(time.Until(time.Unix(ctx.Reset, 0)).Seconds())
	if resetSec < 0 {
		resetSec = 0
	}
	c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))
}

func setRetryAfter(c *gin.Context, d time.Duration) {
	sec := int(d.Seconds())
	if sec < 0 {
		sec = 0
	}
	c.Header("Retry-After", strconv.Itoa(sec))
}

func denyTooMany(c *gin.Context, cfg RateLimiterConfig) {
	status := cfg.DenyStatus
	if status == 0 {
		status = http.StatusTooManyRequests
	}
	msg := cfg.DenyMessage
	if msg == "" {
		msg = "Too Many Requests"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
