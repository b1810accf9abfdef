package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinereviews/internal/apperror"
)

func TestError_IsMapsStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, apperror.ErrNotFound},
		{http.StatusConflict, apperror.ErrConflict},
		{http.StatusForbidden, apperror.ErrForbidden},
		{http.StatusUnauthorized, apperror.ErrUnauthenticated},
		{http.StatusBadRequest, apperror.ErrValidation},
	}
	for _, tt := range tests {
		err := fmt.Errorf("wrapped: %w", &Error{Status: tt.status, Message: "x"})
		assert.True(t, errors.Is(err, tt.want), tt.status)
		assert.False(t, errors.Is(err, apperror.ErrCancelled))
	}
	assert.False(t, errors.Is(&Error{Status: 500}, apperror.ErrNotFound))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "User already registered", (&Error{Status: 409, Message: AlreadyRegistered}).Error())
	assert.Equal(t, "request failed with status 502", (&Error{Status: 502}).Error())
	assert.Equal(t, "User already registered", apperror.Message(&Error{Status: 409, Message: AlreadyRegistered}))
}

func TestSubscriptionFunc(t *testing.T) {
	called := false
	var s Subscription = SubscriptionFunc(func() { called = true })
	s.Unsubscribe()
	assert.True(t, called)
}
