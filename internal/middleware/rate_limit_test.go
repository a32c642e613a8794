package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"galeri-gateway/internal/testutil"
)

func TestRateLimiter_BurstThenLimit(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 2, 2)

	handler := rl.Middleware()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "192.168.1.1:1234"

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatusCode(t, w, http.StatusOK)
	}

	// Burst exhausted
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	testutil.AssertStatusCode(t, w, http.StatusTooManyRequests)
	testutil.AssertContains(t, w.Body.String(), "Too many requests")
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 1)

	handler := rl.Middleware()(okHandler())

	serve := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	testutil.AssertStatusCode(t, serve("192.168.1.1:1234"), http.StatusOK)
	testutil.AssertStatusCode(t, serve("192.168.1.2:1234"), http.StatusOK)
	testutil.AssertStatusCode(t, serve("192.168.1.1:5678"), http.StatusTooManyRequests)
	testutil.AssertStatusCode(t, serve("192.168.1.2:5678"), http.StatusTooManyRequests)
}

func TestRateLimiter_CleanupRemovesIdleEntries(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 10, 1)

	for i := 0; i < 100; i++ {
		rl.getLimiter("10.0.0." + string(rune('a'+i%26)) + string(rune('a'+i/26)))
	}

	rl.mu.Lock()
	oldTime := time.Now().Add(-2 * limiterTTL)
	for key := range rl.limiters {
		rl.limiters[key].lastAccess = oldTime
	}
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.RLock()
	count := len(rl.limiters)
	rl.mu.RUnlock()
	testutil.AssertEqual(t, count, 0)
}

func TestRateLimiter_LastAccessUpdated(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 10, 1)

	rl.getLimiter("key")
	rl.mu.RLock()
	first := rl.limiters["key"].lastAccess
	rl.mu.RUnlock()

	time.Sleep(10 * time.Millisecond)
	rl.getLimiter("key")

	rl.mu.RLock()
	second := rl.limiters["key"].lastAccess
	rl.mu.RUnlock()

	testutil.AssertTrue(t, second.After(first), "lastAccess should advance on reuse")
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 100, 10)

	handler := rl.Middleware()(okHandler())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
				req.RemoteAddr = "10.0.0." + string(rune('a'+id%26)) + ":1234"
				handler.ServeHTTP(httptest.NewRecorder(), req)
			}
		}(i)
	}
	wg.Wait()

	rl.mu.RLock()
	count := len(rl.limiters)
	rl.mu.RUnlock()
	testutil.AssertTrue(t, count > 0, "limiters should have been created")
}

func TestRateLimiter_CleanupStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, 10, 1)

	rl.getLimiter("key")
	cancel()

	// The loop exits on cancellation; requests still work, they just stop
	// being garbage collected.
	time.Sleep(50 * time.Millisecond)
	handler := rl.Middleware()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	testutil.AssertStatusCode(t, w, http.StatusOK)
}
