package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"iptrack/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestIdempotencyMiddleware_NilCachePassesThrough(t *testing.T) {
	var calls int32
	mw := NewIdempotencyMiddleware(nil, time.Minute, logger.NewNop())
	h := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/data", nil)
		req.Header.Set("Idempotency-Key", "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, int32(2), calls)
}

func TestIdempotencyMiddleware_ConcurrentRequests(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available")
	}
	defer rdb.Close()

	mw := NewIdempotencyMiddleware(rdb, 10*time.Second, logger.NewNop())

	var calls int32
	slowHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"dataId":1}`))
	})
	wrapped := mw.Apply(slowHandler)
	key := uuid.NewString()

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/data", nil)
		req.Header.Set("Idempotency-Key", key)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		return w
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.Equal(t, http.StatusCreated, send().Code)
	}()
	go func() {
		defer wg.Done()
		time.Sleep(100 * time.Millisecond)
		w := send()
		// Replayed from the first request
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, `{"dataId":1}`, w.Body.String())
	}()
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
