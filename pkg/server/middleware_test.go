package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()
	h := rl.Middleware(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "192.0.2.2:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_EvictsOldest(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()
	rl.maxClients = 2

	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	rl.limiterFor("a")
	now = now.Add(time.Second)
	rl.limiterFor("b")
	now = now.Add(time.Second)
	rl.limiterFor("c")

	assert.Len(t, rl.clients, 2)
	assert.NotContains(t, rl.clients, "a")
	assert.Contains(t, rl.clients, "b")
	assert.Contains(t, rl.clients, "c")
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()

	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }
	rl.limiterFor("stale")
	now = now.Add(visitorIdleTTL + time.Second)
	rl.limiterFor("fresh")

	rl.evictIdle(visitorIdleTTL)
	assert.NotContains(t, rl.clients, "stale")
	assert.Contains(t, rl.clients, "fresh")

	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "198.51.100.7:5555", "198.51.100.7"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "10.0.0.2:1", "203.0.113.1"},
		{"invalid forwarded", map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "203.0.113.9"}, "10.0.0.2:1", "203.0.113.9"},
		{"no port", nil, "198.51.100.7", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	n, err := rw.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, int64(5), rw.bytesWritten)
	assert.Equal(t, rec, rw.Unwrap())
	rw.Flush()
	assert.True(t, rec.Flushed)
}

func TestTracingMiddleware(t *testing.T) {
	h := TracingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	h := BearerAuth("0123456789abcdef", "/v1/")(okHandler)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"open path", "/health", "", http.StatusOK},
		{"missing header", "/v1/estimate", "", http.StatusUnauthorized},
		{"wrong scheme", "/v1/estimate", "Basic 0123456789abcdef", http.StatusUnauthorized},
		{"wrong token", "/v1/estimate", "Bearer fedcba9876543210", http.StatusUnauthorized},
		{"valid", "/v1/estimate", "Bearer 0123456789abcdef", http.StatusOK},
		{"case-insensitive scheme", "/v1/committees", "bearer 0123456789abcdef", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
