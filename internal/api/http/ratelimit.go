package http

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/deliverynote-service/internal/config"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

const defaultCleanupInterval = 5 * time.Minute

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles requests per client IP with a token bucket each.
type RateLimiter struct {
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration
	logger          *zap.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter builds a limiter from config and starts evicting idle clients. A
// non-positive rate disables limiting.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	rl := &RateLimiter{
		limit:           rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:           burst,
		cleanupInterval: defaultCleanupInterval,
		logger:          logger,
		limiters:        make(map[string]*clientLimiter),
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}
	if rl.enabled() {
		go rl.cleanupLoop()
	}
	return rl
}

func (rl *RateLimiter) enabled() bool {
	return rl != nil && rl.limit > 0
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Handle rejects a client once its bucket is empty.
func (rl *RateLimiter) Handle(c *fiber.Ctx) error {
	if !rl.enabled() {
		return c.Next()
	}
	ip := c.IP()
	if !rl.limiterFor(ip).Allow() {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(rl.retryAfter()))
		rl.logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Path()))
		return apperrors.NewRateLimited()
	}
	return c.Next()
}

// Size returns the number of tracked clients.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = rl.now()
	return entry.limiter
}

func (rl *RateLimiter) retryAfter() int {
	seconds := int(math.Ceil(1.0 / float64(rl.limit)))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops clients idle for more than two intervals.
func (rl *RateLimiter) cleanup() {
	ttl := rl.cleanupInterval * 2
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}
