package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultRateLimitConfig allows 600 requests a minute with bursts of 120
var DefaultRateLimitConfig = RateLimitInfo{
	WindowSeconds: 60,
	MaxRequests:   600,
	Burst:         120,
}

// limiterIdleTTL is how long a user's limiter survives without requests
const limiterIdleTTL = time.Hour

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Remaining  int           // whole tokens left after this request
	RetryAfter time.Duration // zero when allowed
	ResetAt    time.Time     // when the bucket is full again
}

// RateLimiter keeps one token bucket per authenticated user
// MaxRequests per WindowSeconds is the refill rate, Burst the bucket size.
type RateLimiter struct {
	mu     sync.Mutex
	users  map[string]*userLimiter
	policy RateLimitInfo
	limit  rate.Limit

	done chan struct{}
	once sync.Once
}

// NewRateLimiter creates a limiter and starts evicting idle users
// An incomplete policy falls back to DefaultRateLimitConfig. Call Stop to end eviction.
func NewRateLimiter(policy RateLimitInfo) *RateLimiter {
	if policy.WindowSeconds <= 0 || policy.MaxRequests <= 0 || policy.Burst <= 0 {
		policy = DefaultRateLimitConfig
	}
	rl := &RateLimiter{
		users:  make(map[string]*userLimiter),
		policy: policy,
		limit:  rate.Limit(float64(policy.MaxRequests) / float64(policy.WindowSeconds)),
		done:   make(chan struct{}),
	}
	go rl.evictLoop(10 * time.Minute)
	return rl
}

// Policy returns the effective policy
func (rl *RateLimiter) Policy() RateLimitInfo {
	return rl.policy
}

func (rl *RateLimiter) limiterFor(userID string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u, ok := rl.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.policy.Burst)}
		rl.users[userID] = u
	}
	u.lastSeen = now
	return u.limiter
}

// Allow takes one token from userID's bucket when one is available
func (rl *RateLimiter) Allow(userID string) Decision {
	return rl.allowAt(userID, time.Now())
}

func (rl *RateLimiter) allowAt(userID string, now time.Time) Decision {
	lim := rl.limiterFor(userID, now)

	res := lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		// Denied requests don't spend tokens
		res.CancelAt(now)
		return Decision{RetryAfter: delay, ResetAt: rl.fullAt(lim, now)}
	}

	return Decision{
		Allowed:   true,
		Remaining: int(math.Max(0, math.Floor(lim.TokensAt(now)))),
		ResetAt:   rl.fullAt(lim, now),
	}
}

// fullAt returns when lim will have refilled to its burst size
func (rl *RateLimiter) fullAt(lim *rate.Limiter, now time.Time) time.Time {
	missing := float64(rl.policy.Burst) - lim.TokensAt(now)
	if missing <= 0 {
		return now
	}
	return now.Add(time.Duration(missing / float64(rl.limit) * float64(time.Second)))
}

// evictIdle drops limiters unused since cutoff and returns how many remain
func (rl *RateLimiter) evictIdle(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for id, u := range rl.users {
		if u.lastSeen.Before(cutoff) {
			delete(rl.users, id)
		}
	}
	return len(rl.users)
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.evictIdle(now.Add(-limiterIdleTTL))
		}
	}
}

// Stop ends idle eviction; safe to call more than once
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Middleware enforces the per-user limit and reports it in X-RateLimit-* headers
// Must run after auth.Middleware; requests without a user pass through untouched.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		d := rl.Allow(userID)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.policy.MaxRequests))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		h.Set("X-RateLimit-Burst", strconv.Itoa(rl.policy.Burst))

		if !d.Allowed {
			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))

			log.Ctx(r.Context()).Warn().
				Str("path", r.URL.Path).
				Int("retryAfter", retryAfter).
				Msg("rate limit exceeded")

			writeError(w, r, http.StatusTooManyRequests,
				"Rate limit exceeded. Please retry after "+strconv.Itoa(retryAfter)+" seconds.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
