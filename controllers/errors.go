package controllers

import (
	"context"
	"net/http"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// statusClientClosed is nginx's code for a request the client gave up on.
const statusClientClosed = 499

func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrItemNotFound),
		errors.Is(err, db.ErrBorrowerNotFound),
		errors.Is(err, db.ErrLoanNotFound),
		errors.Is(err, db.ErrOperatorNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrItemUnavailable),
		errors.Is(err, db.ErrItemOnLoan),
		errors.Is(err, db.ErrBorrowerHasLoans),
		errors.Is(err, db.ErrLoanLimitReached),
		errors.Is(err, db.ErrEmailTaken),
		errors.Is(err, db.ErrRequestReused):
		return http.StatusConflict
	case errors.Is(err, db.ErrProtectedOperator):
		return http.StatusForbidden
	case errors.Is(err, db.ErrSelfDelete),
		errors.Is(err, db.ErrWeakPassword),
		errors.Is(err, db.ErrInvalidRole),
		errors.Is(err, db.ErrInvalidEmail),
		errors.Is(err, db.ErrInvalidID),
		errors.Is(err, db.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	}
	return http.StatusInternalServerError
}

// respondError writes the domain error as JSON. Unexpected errors are logged
// and hidden behind a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	code := statusFor(err)
	switch code {
	case http.StatusInternalServerError:
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.Writer.Header().Get(app.RequestIDHeader)),
			zap.Error(err))
		c.JSON(code, app.H{"error": "internal error"})
	case statusClientClosed:
		c.Status(code)
	default:
		c.JSON(code, app.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
}
