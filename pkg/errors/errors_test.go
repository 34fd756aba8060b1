package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusUnprocessableEntity,
		KindConflict:     http.StatusUnprocessableEntity,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindNotFound:     http.StatusNotFound,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestKindOfFollowsWrapChain(t *testing.T) {
	base := E(KindNotFound, "Could not find this data", ErrVisitNotFound)
	wrapped := fmt.Errorf("handler: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "Could not find this data", MessageOf(wrapped, "fallback"))
	assert.ErrorIs(t, wrapped, ErrVisitNotFound)
}

func TestKindOfPlainErrorIsInternal(t *testing.T) {
	err := fmt.Errorf("connection reset")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.EqualError(t, Wrap(ErrUserNotFound, "find"), "find: user not found")
}
