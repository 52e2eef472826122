package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
)

// Context keys filled by the router middlewares.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "user_id"
	CtxUserRole  = "user_role"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error  string                `json:"error"`
	Kind   string                `json:"kind"`
	Fields []apperror.FieldError `json:"fields,omitempty"`
}

// respondError maps err onto an HTTP status. Internal failures are logged with
// op and answered with an opaque message.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	kind := apperror.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindConflict:
		status = http.StatusConflict
	case apperror.KindValidation:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err), zap.String("request_id", c.GetString(CtxRequestID)))
		c.AbortWithStatusJSON(status, ErrorResponse{Error: "internal error", Kind: kind.String()})
		return
	}

	msg := err.Error()
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Kind: kind.String(), Fields: apperror.FieldsOf(err)})
}

// respondBadBody answers a request whose body could not be decoded.
func respondBadBody(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error: "invalid request body: " + err.Error(),
		Kind:  apperror.KindValidation.String(),
	})
}
