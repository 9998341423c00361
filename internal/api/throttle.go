package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const visitorTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a per-client token bucket guarding the API.
type Throttle struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewThrottle allows requestsPerMinute per client IP with the given burst. A
// non-positive rate disables throttling.
func NewThrottle(requestsPerMinute float64, burst int) *Throttle {
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		limit:    rate.Limit(requestsPerMinute / 60.0),
		burst:    burst,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !t.obtain(clientID(r)).Allow() {
			httpReqTotal.WithLabelValues(r.Method, "throttled", strconv.Itoa(http.StatusTooManyRequests)).Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *Throttle) obtain(id string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) > visitorTTL {
		for key, v := range t.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(t.visitors, key)
			}
		}
		t.lastSweep = now
	}

	v, ok := t.visitors[id]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if parsed := net.ParseIP(strings.TrimSpace(first)); parsed != nil {
			return parsed.String()
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
