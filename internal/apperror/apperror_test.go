package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedChain(t *testing.T) {
	base := Conflict("you have already taken this test")
	wrapped := fmt.Errorf("submit: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:          http.StatusBadRequest,
		KindUnauthorized:        http.StatusUnauthorized,
		KindForbidden:           http.StatusForbidden,
		KindNotFound:            http.StatusNotFound,
		KindConflict:            http.StatusConflict,
		KindUpstreamFailure:     http.StatusBadGateway,
		KindUpstreamUnavailable: http.StatusServiceUnavailable,
		KindUpstreamTimeout:     http.StatusGatewayTimeout,
		KindInternal:            http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus())
	}
}

func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal(cause, "failed to load test %d", 7)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load test 7: db down", err.Error())
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	base := Validation("invalid input")
	withDetails := base.WithDetails("title is required")

	assert.Empty(t, base.Details)
	assert.Equal(t, []string{"title is required"}, withDetails.Details)
}
