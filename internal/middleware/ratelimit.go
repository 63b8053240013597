package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// RateLimiter keeps one token bucket per client IP. Buckets idle for a
// whole window are dropped by Sweep; at most maxClients are tracked.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*client
	limit      rate.Limit
	burst      int
	window     time.Duration
	maxClients int
	now        func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	window := cfg.Window
	if window <= 0 {
		window = 15 * time.Minute
	}
	maxReq := cfg.MaxRequests
	if maxReq <= 0 {
		maxReq = 100
	}
	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &RateLimiter{
		clients:    make(map[string]*client),
		limit:      rate.Limit(float64(maxReq) / window.Seconds()),
		burst:      maxReq,
		window:     window,
		maxClients: maxClients,
		now:        time.Now,
	}
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= rl.maxClients {
			rl.evict(now)
		}
		cl = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// evict makes room for one client: idle ones go first, otherwise the least
// recently seen. Caller holds rl.mu.
func (rl *RateLimiter) evict(now time.Time) {
	if rl.sweep(now) > 0 {
		return
	}
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, cl := range rl.clients {
		if oldestKey == "" || cl.lastSeen.Before(oldest) {
			oldestKey, oldest = key, cl.lastSeen
		}
	}
	delete(rl.clients, oldestKey)
}

// Sweep removes clients not seen for a full window and returns how many were dropped.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.sweep(rl.now())
}

func (rl *RateLimiter) sweep(now time.Time) int {
	cutoff := now.Add(-rl.window)
	dropped := 0
	for key, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			dropped++
		}
	}
	return dropped
}

// Len is the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Run sweeps once per window until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			util.Error(c, http.StatusTooManyRequests, util.CodeRateLimited, "Muitas requisições, tente novamente mais tarde")
			c.Abort()
			return
		}
		c.Next()
	}
}
