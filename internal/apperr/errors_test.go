package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	cause := errors.New("disk full")
	err := IO("ingest.store_upload", cause)

	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "ingest.store_upload: io failure: disk full", err.Error())

	wrapped := fmt.Errorf("upload: %w", err)
	require.ErrorIs(t, wrapped, ErrIO)

	var appErr *Error
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, "ingest.store_upload", appErr.Op)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFound("video.get", "video %s not found", "abc"), http.StatusNotFound},
		{"validation", Validation("progress.update", "progress out of range"), http.StatusBadRequest},
		{"conflict", Conflict("user.register", "username taken"), http.StatusConflict},
		{"unauthorized", fmt.Errorf("x: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unavailable", New(ErrUnavailable, "ingest", nil), http.StatusServiceUnavailable},
		{"io", IO("op", errors.New("boom")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "video abc not found", PublicMessage(NotFound("video.get", "video %s not found", "abc")))
	assert.Equal(t, "internal error", PublicMessage(IO("op", errors.New("secret path /var/x"))))
	assert.Equal(t, "forbidden", PublicMessage(New(ErrForbidden, "op", nil)))
}
