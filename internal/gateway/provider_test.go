package gateway

import (
	"testing"
	"time"

	"go.uber.org/fx/fxtest"
)

func TestProvideRateLimiter_StopsOnShutdown(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	limiter := ProvideRateLimiter(lc, RateLimiterConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})

	lc.RequireStart()
	select {
	case <-limiter.loopDone:
		t.Fatal("cleanup should run until shutdown")
	default:
	}

	lc.RequireStop()
	select {
	case <-limiter.loopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("expected cleanup goroutine to exit on stop")
	}
}
