package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const idempotencyHeader = "Idempotency-Key"

// IdempotencyMiddleware replays the stored response when a submission is
// retried with the same Idempotency-Key. Requests without the header pass
// straight through, as does everything when no Redis client is configured.
type IdempotencyMiddleware struct {
	cache  *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger logger.Logger
}

// NewIdempotencyMiddleware constructs an IdempotencyMiddleware with a TTL.
// cache may be nil.
func NewIdempotencyMiddleware(cache *redis.Client, ttl time.Duration, log logger.Logger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{
		cache:  cache,
		ttl:    ttl,
		wait:   5 * time.Second,
		logger: log,
	}
}

// Apply must run after Authenticate: keys are scoped to the subject so one
// user can never replay another user's response.
func (m *IdempotencyMiddleware) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyHeader)
		if m.cache == nil || key == "" || r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > 128 {
			jsonError(w, http.StatusUnprocessableEntity, "Idempotency-Key is too long.")
			return
		}

		scope := "anonymous"
		if s, ok := SubjectFromContext(r.Context()); ok {
			scope = strconv.FormatInt(s.UserID, 10)
		}
		dataKey := fmt.Sprintf("idempotency:data:%s:%s:%s", scope, r.URL.Path, key)
		lockKey := fmt.Sprintf("idempotency:lock:%s:%s:%s", scope, r.URL.Path, key)

		// Fast path: cached response exists
		if m.replayCached(w, r, dataKey) {
			m.logger.Debug("Idempotent replay", map[string]interface{}{"key": key, "path": r.URL.Path})
			return
		}

		requestID := RequestIDFromContext(r.Context())
		if requestID == "" {
			requestID = "unknown"
		}

		ok, err := m.cache.SetNX(r.Context(), lockKey, requestID, m.ttl).Result()
		if err != nil {
			// Redis trouble must not block ingestion; serve without replay protection.
			m.logger.Warn("Idempotency store unavailable", map[string]interface{}{"error": err.Error()})
			next.ServeHTTP(w, r)
			return
		}

		if !ok {
			// Another request with this key is in flight; wait for its result.
			deadline := time.Now().Add(m.wait)
			for time.Now().Before(deadline) {
				select {
				case <-r.Context().Done():
					return
				case <-time.After(100 * time.Millisecond):
				}
				if m.replayCached(w, r, dataKey) {
					return
				}
			}
			m.logger.Warn("Idempotency key still in flight", map[string]interface{}{"key": key})
			jsonError(w, http.StatusConflict, apperrors.ErrDuplicateRequest.Error())
			return
		}
		defer m.cache.Del(r.Context(), lockKey)

		cw := newCaptureWriter(w, 1<<20) // 1MB cap
		next.ServeHTTP(cw, r)

		if err := m.cacheResponse(r, dataKey, cw); err != nil {
			m.logger.Warn("Caching idempotent response failed", map[string]interface{}{"error": err.Error()})
		}
	})
}

type capturedResponse struct {
	Status  int               `json:"status"`
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers"`
}

func (m *IdempotencyMiddleware) replayCached(w http.ResponseWriter, r *http.Request, dataKey string) bool {
	payload, err := m.cache.Get(r.Context(), dataKey).Bytes()
	if err != nil {
		return false
	}

	var cr capturedResponse
	if err := json.Unmarshal(payload, &cr); err != nil {
		return false
	}

	for k, v := range cr.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cr.Status)
	_, _ = w.Write(cr.Body)
	return true
}

func (m *IdempotencyMiddleware) cacheResponse(r *http.Request, dataKey string, cw *captureWriter) error {
	// Server errors and truncated bodies are not replayed so the client can retry.
	if cw.status == 0 || cw.status >= http.StatusInternalServerError || cw.truncated || len(cw.buf) == 0 {
		return nil
	}

	payload, err := json.Marshal(capturedResponse{
		Status:  cw.status,
		Body:    cw.buf,
		Headers: cw.headers,
	})
	if err != nil {
		return err
	}
	return m.cache.Set(r.Context(), dataKey, payload, m.ttl).Err()
}

type captureWriter struct {
	http.ResponseWriter
	buf       []byte
	limit     int
	status    int
	truncated bool
	headers   map[string]string
}

func newCaptureWriter(w http.ResponseWriter, limit int) *captureWriter {
	return &captureWriter{
		ResponseWriter: w,
		buf:            make([]byte, 0, 1024),
		limit:          limit,
		headers:        make(map[string]string),
	}
}

func (w *captureWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	for k, v := range w.ResponseWriter.Header() {
		if len(v) > 0 {
			w.headers[k] = v[0]
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	space := w.limit - len(w.buf)
	if len(p) > space {
		w.truncated = true
		if space > 0 {
			w.buf = append(w.buf, p[:space]...)
		}
	} else {
		w.buf = append(w.buf, p...)
	}
	return w.ResponseWriter.Write(p)
}
