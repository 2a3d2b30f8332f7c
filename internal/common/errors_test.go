package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("room x: %w", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrValidation, http.StatusBadRequest},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrNoRoomSelected, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrNotSupported, http.StatusNotImplemented},
		{ErrBackend, http.StatusBadGateway},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusFromError(tt.err), "%v", tt.err)
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusConflict, ErrConflict},
		{0, ErrServiceUnavailable},
		{http.StatusInternalServerError, ErrBackend},
	}
	for _, tt := range tests {
		err := &BackendError{Status: tt.status, Message: "Room not found"}
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		assert.Equal(t, "Room not found", err.Error())
	}
}

func TestRespondWithFile(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithFile(rec, "text/csv; charset=utf-8", "leaderboard.csv", []byte("Rank\n"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="leaderboard.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Rank\n", rec.Body.String())
}
