package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Gin_postgres_redis_tool_lending/db"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{db.ErrItemNotFound, http.StatusNotFound},
		{db.ErrLoanNotFound, http.StatusNotFound},
		{errors.Wrap(db.ErrOperatorNotFound, "lookup"), http.StatusNotFound},
		{db.ErrItemUnavailable, http.StatusConflict},
		{db.ErrItemOnLoan, http.StatusConflict},
		{db.ErrBorrowerHasLoans, http.StatusConflict},
		{db.ErrLoanLimitReached, http.StatusConflict},
		{db.ErrEmailTaken, http.StatusConflict},
		{db.ErrRequestReused, http.StatusConflict},
		{db.ErrProtectedOperator, http.StatusForbidden},
		{db.ErrSelfDelete, http.StatusBadRequest},
		{db.ErrWeakPassword, http.StatusBadRequest},
		{db.ErrInvalidRole, http.StatusBadRequest},
		{db.ErrInvalidEmail, http.StatusBadRequest},
		{db.ErrInvalidID, http.StatusBadRequest},
		{db.ErrInvalidSettings, http.StatusBadRequest},
		{db.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.Wrap(context.Canceled, "query"), statusClientClosed},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.code, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)

	respondError(c, zap.NewNop(), errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, `{"error":"internal error"}`, strings.Trim(w.Body.String(), "\n"))
}
