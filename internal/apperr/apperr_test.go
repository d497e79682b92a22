package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/chorequest/internal/docstore"
)

func TestIsMatchesCodeThenKind(t *testing.T) {
	assert.True(t, errors.Is(ErrTaskNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrInvalidHouseholdCode, ErrNotFound))
	assert.False(t, errors.Is(ErrTaskNotFound, ErrInvalidHouseholdCode))
	assert.False(t, errors.Is(ErrNotFound, ErrTaskNotFound))

	wrapped := fmt.Errorf("complete task: %w", ErrTaskNotFound.WithCause(docstore.ErrNotFound))
	assert.True(t, errors.Is(wrapped, ErrTaskNotFound))
	assert.True(t, errors.Is(wrapped, docstore.ErrNotFound))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"app error", ErrWeakPassword, KindInvalidInput},
		{"store not found", fmt.Errorf("get task: %w", docstore.ErrNotFound), KindNotFound},
		{"store unavailable", fmt.Errorf("get: %w: %w", docstore.ErrUnavailable, errors.New("disk")), KindUnavailable},
		{"deadline", context.DeadlineExceeded, KindUnavailable},
		{"invalid name", docstore.ErrInvalidName, KindInvalidInput},
		{"plain", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestUserMessageNeverLeaksRawError(t *testing.T) {
	raw := errors.New("sqlite: database is locked (SQLITE_BUSY)")
	err := fmt.Errorf("update points: %w: %w", docstore.ErrUnavailable, raw)

	msg := UserMessage(err)
	assert.Equal(t, "Service temporarily unavailable. Please try again later.", msg)
	assert.NotContains(t, msg, "SQLITE")

	assert.Equal(t, "An unexpected error occurred. Please try again later.", UserMessage(raw))
	assert.Equal(t, "Incorrect email or password. Please try again.", UserMessage(ErrInvalidCredentials))
	assert.Equal(t, "The requested information could not be found.", UserMessage(New(KindNotFound, "household gone")))
	assert.Empty(t, UserMessage(nil))
}

func TestWrapKeepsClassification(t *testing.T) {
	err := Wrap(ErrTaskCompleted, "complete task")
	assert.True(t, errors.Is(err, ErrTaskCompleted))
	assert.Equal(t, KindInvalidInput, Classify(err))

	err = Wrap(docstore.ErrUnavailable, "load profile")
	assert.Equal(t, KindUnavailable, Classify(err))

	assert.NoError(t, Wrap(nil, "noop"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrAuthenticationRequired))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrInvalidToken))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrTaskNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrEmailInUse))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrNotMember))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrTaskCompleted))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Invalid("bad", map[string]string{"name": "required"})))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(docstore.ErrUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
