package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictionary-writing-system/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func send(h http.Handler, addr string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	req.RemoteAddr = addr
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 10})
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, send(handler, "1.2.3.4:1234").Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 0.5, Burst: 5})
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send(handler, "1.2.3.4:1234").Code)
	}

	rec := send(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retry, 1)
	assert.LessOrEqual(t, retry, 2)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 0.1, Burst: 2})
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	for i := 0; i < 2; i++ {
		send(handler, "1.1.1.1:1234")
	}
	assert.Equal(t, http.StatusTooManyRequests, send(handler, "1.1.1.1:9999").Code, "port does not split a client")
	assert.Equal(t, http.StatusOK, send(handler, "2.2.2.2:5678").Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 10, Burst: 1})
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	assert.Equal(t, http.StatusOK, send(handler, "3.3.3.3:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(handler, "3.3.3.3:1234").Code)

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, http.StatusOK, send(handler, "3.3.3.3:1234").Code)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, TTL: time.Minute})
	defer rl.Stop()

	handler := rl.Limit()(okHandler())
	send(handler, "4.4.4.4:1")
	send(handler, "5.5.5.5:1")
	require.Equal(t, 2, rl.size())

	rl.evict(time.Now().Add(30 * time.Second))
	assert.Equal(t, 2, rl.size())

	rl.evict(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, rl.size())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1})
	rl.Stop()
	rl.Stop()
}
