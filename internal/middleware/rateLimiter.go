package middleware

import (
	"sync"

	"github.com/akolanti/rulebook-rag/internal/config"
	"golang.org/x/time/rate"
)

var (
	limiterMu       sync.RWMutex
	limiterInstance = NewIPRateLimiter(rate.Limit(config.DefaultRateLimitPerSecond), config.DefaultRateLimitBurst)
)

type IPRateLimiter struct {
	ips       map[string]*rate.Limiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*rate.Limiter), rateLimit: r, burstRate: b}
}

// InitRateLimiter replaces the process limiter; a non-positive rate disables limiting.
func InitRateLimiter(perSecond float64, burst int) {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	limiterMu.Lock()
	defer limiterMu.Unlock()
	limiterInstance = NewIPRateLimiter(limit, burst)
}

func currentLimiter() *IPRateLimiter {
	limiterMu.RLock()
	defer limiterMu.RUnlock()
	return limiterInstance
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rateLimit, i.burstRate)
		i.ips[ip] = limiter
	}
	return limiter
}

//TODO: entries are never evicted; prune idle IPs once the API sees public traffic
