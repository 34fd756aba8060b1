// Package middleware hosts the HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"iptrack/internal/domain"
	"iptrack/internal/metrics"
	"iptrack/pkg/logger"
)

// contextKey avoids collisions when storing values in request contexts.
type contextKey string

const ctxSubjectKey contextKey = "subject"

const msgAuthFailed = "Authentication failed!"

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.Subject, error)
}

// AuthMiddleware is the request gate for mutating routes.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   logger.Logger
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(verifier TokenVerifier, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: log}
}

// Authenticate enforces bearer auth and puts the subject on the request
// context. Every failure gets the same 403. OPTIONS requests pass through
// unauthenticated.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			m.reject(w, r, "missing or malformed authorization header")
			return
		}

		subject, err := m.verifier.VerifyToken(token)
		if err != nil {
			m.reject(w, r, err.Error())
			return
		}

		metrics.AuthEvents.WithLabelValues("verify", "success").Inc()
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), *subject)))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.AuthEvents.WithLabelValues("verify", "rejected").Inc()
	m.logger.Warn("Request rejected by auth gate", map[string]interface{}{
		"method":     r.Method,
		"path":       r.URL.Path,
		"reason":     reason,
		"request_id": RequestIDFromContext(r.Context()),
	})
	jsonError(w, http.StatusForbidden, msgAuthFailed)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// SubjectFromContext returns the authenticated subject from context.
func SubjectFromContext(ctx context.Context) (domain.Subject, bool) {
	s, ok := ctx.Value(ctxSubjectKey).(domain.Subject)
	return s, ok
}

// WithSubject returns a copy of ctx carrying s.
func WithSubject(ctx context.Context, s domain.Subject) context.Context {
	return context.WithValue(ctx, ctxSubjectKey, s)
}
