package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrDependency, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err))
	}
}

func TestHTTPStatusUnwrapsSentinels(t *testing.T) {
	wrapped := fmt.Errorf("%w: request awaits team_lead", ErrForbidden)
	assert.Equal(t, http.StatusForbidden, HTTPStatus(wrapped))

	doubly := fmt.Errorf("act: %w", wrapped)
	assert.Equal(t, http.StatusForbidden, HTTPStatus(doubly))
}
