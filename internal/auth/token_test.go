package auth

import (
	"strings"
	"testing"
	"time"

	"iptrack/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = &domain.User{ID: 3, Email: "a@b.com", Role: domain.RoleUser}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer("secret", time.Hour).WithClock(func() time.Time { return now })

	token, expiresAt, err := issuer.Issue(testUser)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	subject, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Subject{UserID: 3, Email: "a@b.com", Role: domain.RoleUser}, *subject)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	issuer := NewTokenIssuer("secret", time.Hour).WithClock(func() time.Time { return clock })

	token, _, err := issuer.Issue(testUser)
	require.NoError(t, err)

	clock = issued.Add(61 * time.Minute)
	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsTamperedPayload(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(testUser)
	require.NoError(t, err)

	other, _, err := issuer.Issue(&domain.User{ID: 4, Email: "admin@b.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	// Splice the second token's claims onto the first token's signature.
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = issuer.Verify(forged)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("someone-else", time.Hour).Issue(testUser)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsUnsignedToken(t *testing.T) {
	claims := Claims{
		UserID: 3,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(unsigned)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsMissingExpiry(t *testing.T) {
	claims := Claims{UserID: 3}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(token)
	assert.Error(t, err)
}
