package web

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// errRateLimited is mapped to RATE001.
var errRateLimited = errors.New("rate limit exceeded")

// rateLimiter gives every client IP a token bucket holding perWindow
// requests, refilled evenly across the window.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client

	every      rate.Limit
	burst      int
	idle       time.Duration // clients unseen this long are forgotten
	retryAfter string

	done     chan struct{}
	stopOnce sync.Once
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(perWindow int, window time.Duration) *rateLimiter {
	interval := window / time.Duration(perWindow)
	rl := &rateLimiter{
		clients:    make(map[string]*client),
		every:      rate.Every(interval),
		burst:      perWindow,
		idle:       2 * window,
		retryAfter: strconv.Itoa(int(math.Ceil(interval.Seconds()))),
		done:       make(chan struct{}),
	}
	go rl.sweep(window)
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{lim: rate.NewLimiter(rl.every, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = time.Now()
	rl.mu.Unlock()

	return c.lim.Allow()
}

func (rl *rateLimiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-t.C:
			rl.mu.Lock()
			for ip, c := range rl.clients {
				if now.Sub(c.lastSeen) > rl.idle {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// middleware keys on RemoteAddr, which TrustedRealIP has already rewritten
// for requests arriving through a trusted proxy.
func (rl *rateLimiter) middleware(s *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !rl.allow(ip) {
				w.Header().Set("Retry-After", rl.retryAfter)
				s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
