package roundapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	"github.com/Black-And-White-Club/scorecard/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerAuthMiddleware(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Hour)
	token, err := svc.GenerateToken("golfer-1", "club-1", "1234567890", jwt.RoleGolfer, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{name: "bearer header", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "query token for websockets", query: "?access_token=" + token, wantStatus: http.StatusOK},
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotToken string
			var gotClub string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotToken, _ = roundremote.TokenFromContext(r.Context())
				if c, ok := ClaimsFromContext(r.Context()); ok {
					gotClub = c.Club
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/rounds"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			BearerAuthMiddleware(svc)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, token, gotToken)
				assert.Equal(t, "club-1", gotClub)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Hour)
	tokenFor := func(golfer string) string {
		tok, err := svc.GenerateToken(golfer, "club-1", "1234567890", jwt.RoleGolfer, time.Hour)
		require.NoError(t, err)
		return tok
	}
	sam, alex := tokenFor("golfer-sam"), tokenFor("golfer-alex")

	limiter := NewSessionRateLimiter(0.001, 1)
	h := BearerAuthMiddleware(svc)(RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/rounds/round-1/holes/3/score", nil)
		req.RemoteAddr = "10.0.0.8:5123"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send(sam).Code)
	limited := send(sam)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, send(alex).Code, "sessions behind one device IP are billed separately")
}

func TestRateLimitMiddlewareWithoutSession(t *testing.T) {
	limiter := NewSessionRateLimiter(0.001, 1)
	h := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/rounds/active", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:2000"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2:1000"))
}

func TestSessionRateLimiterDropsIdleBuckets(t *testing.T) {
	limiter := NewSessionRateLimiter(0.001, 1)
	at := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return at }

	for i := 0; i <= limiterSweepSize; i++ {
		limiter.Allow(fmt.Sprintf("ip:%d", i))
	}
	require.Len(t, limiter.buckets, limiterSweepSize+1)

	at = at.Add(limiterIdleAfter + time.Minute)
	assert.True(t, limiter.Allow("golfer:club-1/fresh"))
	assert.Len(t, limiter.buckets, 1)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://localhost:5173", wantStatus: http.StatusTeapot, wantAllow: "http://localhost:5173"},
		{name: "foreign origin", method: http.MethodGet, origin: "http://evil.test", wantStatus: http.StatusTeapot},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:5173", wantStatus: http.StatusNoContent, wantAllow: "http://localhost:5173"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
