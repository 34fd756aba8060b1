package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"iptrack/internal/domain"
	"iptrack/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyToken(token string) (*domain.Subject, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func TestAuthenticate_RejectsWithUniformForbidden(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("VerifyToken", "bad").Return(nil, errors.New("signature is invalid"))
	gate := NewAuthMiddleware(verifier, logger.NewNop())

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"no token", "Bearer"},
		{"extra parts", "Bearer a b"},
		{"invalid token", "Bearer bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := gate.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/data", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.JSONEq(t, `{"message":"Authentication failed!"}`, rec.Body.String())
		})
	}
}

func TestAuthenticate_AttachesSubject(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("VerifyToken", "good").Return(&domain.Subject{UserID: 3, Email: "a@b.com", Role: domain.RoleUser}, nil)
	gate := NewAuthMiddleware(verifier, logger.NewNop())

	var got domain.Subject
	h := gate.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = SubjectFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/data/1", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(3), got.UserID)
	assert.Equal(t, "a@b.com", got.Email)
}

func TestAuthenticate_PreflightPassesThrough(t *testing.T) {
	verifier := new(MockVerifier)
	gate := NewAuthMiddleware(verifier, logger.NewNop())

	h := gate.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := SubjectFromContext(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/data", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	verifier.AssertNotCalled(t, "VerifyToken", mock.Anything)
}

func TestCorrelationID(t *testing.T) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"An unknown error occurred"}`, rec.Body.String())
}
