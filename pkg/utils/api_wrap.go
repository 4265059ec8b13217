package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// TraceIDKey is the gin context key holding the request trace id.
const TraceIDKey = "trace_id"

func traceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	RespondStatus(c, http.StatusOK, data, message)
}

func RespondStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	RespondError(c, code, message)
	c.Abort()
}

// HandleServiceError maps service sentinels onto the response envelope.
// Anything unrecognised is logged and answered with a generic 500.
func HandleServiceError(c *gin.Context, err error) {
	code, message := classify(err)
	if code == http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		LoggerFrom(c).Error("request failed",
			zap.String("trace_id", traceID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	RespondError(c, code, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict, "Operation not allowed in the current state"
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, ErrEmailAlreadyExists):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, ErrPlanLimitReached):
		return http.StatusPaymentRequired, "Upgrade your plan to track more subscriptions"
	case errors.Is(err, ErrBillingNotConfigured):
		return http.StatusServiceUnavailable, "Billing is not available"
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	case errors.Is(err, ErrDatabaseError):
		return http.StatusInternalServerError, "Internal server error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// validationMessage exposes the validation detail, which only ever describes
// the caller's own input.
func validationMessage(err error) string {
	return err.Error()
}
