package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	apperrors "kgexplorer/pkg/errors"
)

func TestClientRateLimiter_Allow(t *testing.T) {
	// Arrange
	limiter := NewClientRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	// Act
	first := limiter.Allow("10.0.0.1")
	second := limiter.Allow("10.0.0.1")
	third := limiter.Allow("10.0.0.1")
	other := limiter.Allow("10.0.0.2")
	now = now.Add(time.Second)
	refilled := limiter.Allow("10.0.0.1")

	// Assert
	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, third, "burst exhausted")
	assert.True(t, other, "clients have separate buckets")
	assert.True(t, refilled)
}

func TestClientRateLimiter_EvictsIdleClients(t *testing.T) {
	// Arrange
	limiter := NewClientRateLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }
	limiter.Allow("10.0.0.1")

	// Act
	now = now.Add(clientIdleTimeout + time.Second)
	limiter.Allow("10.0.0.2")

	// Assert
	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimit_Rejects(t *testing.T) {
	// Arrange
	limiter := NewClientRateLimiter(0.5, 1)
	handler := RateLimit(limiter, apperrors.NewErrorHandler(zap.NewNop(), false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)
	request := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/explorers", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Act
	allowed := request()
	rejected := request()

	// Assert
	assert.Equal(t, http.StatusNoContent, allowed.Code)
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "2", rejected.Header().Get("Retry-After"))
}
