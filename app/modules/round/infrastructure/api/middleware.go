package roundapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	"github.com/Black-And-White-Club/scorecard/pkg/jwt"
	"golang.org/x/time/rate"
)

const (
	// limiterSweepSize is the bucket count above which idle buckets are dropped.
	limiterSweepSize = 500
	limiterIdleAfter = 10 * time.Minute

	// Headers the scoring UI sends with every request.
	corsAllowHeaders = "Content-Type, Authorization, X-Correlation-ID"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
)

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// SessionRateLimiter keeps one token bucket per golfer session. Requests
// without a session share a bucket per client IP.
type SessionRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	now     func() time.Time
}

func NewSessionRateLimiter(every rate.Limit, burst int) *SessionRateLimiter {
	return &SessionRateLimiter{
		buckets: map[string]*bucket{},
		every:   every,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow spends a token from key's bucket.
func (l *SessionRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.buckets) > limiterSweepSize {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > limiterIdleAfter {
				delete(l.buckets, k)
			}
		}
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

// rateKey identifies who a request is billed to.
func rateKey(r *http.Request) string {
	if c, ok := ClaimsFromContext(r.Context()); ok && c.Subject != "" {
		return "golfer:" + c.Club + "/" + c.Subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimitMiddleware answers 429 once a session or client IP runs out of tokens.
// Mount it after BearerAuthMiddleware so sessions are billed separately.
func RateLimitMiddleware(limiter *SessionRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(rateKey(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many score updates, slow down", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware lets the listed UI origins call the round API. Preflight
// requests are answered here and never reach the routes.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed[origin] {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type claimsCtxKey struct{}

// ClaimsFromContext returns the session claims set by BearerAuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*jwt.SessionClaims, bool) {
	c, ok := ctx.Value(claimsCtxKey{}).(*jwt.SessionClaims)
	return c, ok
}

// BearerAuthMiddleware validates the session token and hands it to the remote
// gateway through the request context. Websocket clients cannot set headers,
// so the access_token query parameter is accepted as well.
func BearerAuthMiddleware(validator jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := roundremote.WithToken(r.Context(), token)
			ctx = context.WithValue(ctx, claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
