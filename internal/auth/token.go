package auth

import (
	"fmt"
	"time"

	"iptrack/internal/domain"
	apperrors "iptrack/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload of an access token.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens. Tokens are never
// stored; verification relies on the signature and expiry alone.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source used for iat/exp and for validation.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Issue signs a token for user that expires after the configured TTL.
func (t *TokenIssuer) Issue(user *domain.User) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
func (t *TokenIssuer) Verify(tokenString string) (*domain.Subject, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, fmt.Sprint(err))
	}
	if claims.UserID <= 0 {
		return nil, apperrors.ErrInvalidToken
	}

	return &domain.Subject{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   domain.Role(claims.Role),
	}, nil
}
