package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorTTL is how long a Visitor is remembered after its last request.
const visitorTTL = time.Hour

// A Visitor tracks a rate limiter and last seen time.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// A Visitors maps a Visitor to an IP address.
type Visitors struct {
	mu          sync.Mutex
	val         map[string]Visitor
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
}

// NewVisitors constructs a *Visitors whose Visitors may make limit requests a second
// with bursts of up to burst.
func NewVisitors(limit rate.Limit, burst int) *Visitors {
	return &Visitors{val: make(map[string]Visitor), limit: limit, burst: burst, lastCleanup: time.Now()}
}

// Fetch retrieves the Visitor for the given ip creating a new Visitor if not seen.
func (vs *Visitors) Fetch(ip string) Visitor {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	now := time.Now()
	if now.Sub(vs.lastCleanup) > time.Minute {
		vs.cleanup(now)
	}

	v, ok := vs.val[ip]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.limit, vs.burst)}
	}

	v.LastSeen = now
	vs.val[ip] = v
	return v
}

// Len reports the number of Visitors tracked.
func (vs *Visitors) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	return len(vs.val)
}

// cleanup deletes Visitors not seen in over visitorTTL. The caller holds vs.mu.
func (vs *Visitors) cleanup(now time.Time) {
	for ip, v := range vs.val {
		if now.Sub(v.LastSeen) > visitorTTL {
			delete(vs.val, ip)
		}
	}

	vs.lastCleanup = now
}

// RateLimit rejects requests from a client IP address exceeding its Visitor's limit with 429.
//
// Implementation found here:
// https://www.alexedwards.net/blog/how-to-rate-limit-http-requests
func RateLimit(visitors *Visitors) Adapter {
	if visitors == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !visitors.Fetch(clientIP(r)).Limiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(1))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
