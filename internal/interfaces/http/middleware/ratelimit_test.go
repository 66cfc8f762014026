package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/interfaces/http/dto"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func serveRateLimited(gate func(context.Context, string) bool) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/projects/:pid/prompts", PromptRateLimit(gate), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/projects/p1/prompts", nil))
	return rec
}

func TestPromptRateLimitRefusal(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	gate := PromptGate(config.RateLimitConfig{Enabled: true, PromptsPerMinute: 1}, limiter)

	rec := serveRateLimited(gate)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error == nil || body.Error.ErrorCode != "1006" {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if len(limiter.keys) != 1 {
		t.Fatalf("limiter calls = %v", limiter.keys)
	}
}

func TestPromptGateFailsOpen(t *testing.T) {
	gate := PromptGate(config.RateLimitConfig{Enabled: true, PromptsPerMinute: 1}, &stubLimiter{err: stderrors.New("redis down")})
	if rec := serveRateLimited(gate); rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}

	disabled := PromptGate(config.RateLimitConfig{}, &stubLimiter{})
	if rec := serveRateLimited(disabled); rec.Code != http.StatusAccepted {
		t.Fatalf("disabled gate status = %d", rec.Code)
	}
}
