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

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
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

// HandleServiceError maps service errors onto HTTP outcomes. Validation
// and not-found errors surface verbatim; anything unexpected is logged
// and flattened into a generic 500.
func HandleServiceError(c *gin.Context, err error) {
	var vErr *ValidationError
	var tErr *InvalidTransitionError

	switch {
	case errors.As(err, &vErr):
		RespondError(c, http.StatusBadRequest, vErr.Msg)
	case errors.As(err, &tErr):
		RespondError(c, http.StatusBadRequest, tErr.Error())
	case errors.Is(err, ErrInvalidAssignee),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrSlugTaken),
		errors.Is(err, ErrEmailAlreadyExists):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInviteNotFound),
		errors.Is(err, ErrInviteUsed),
		errors.Is(err, ErrInviteExpired),
		errors.Is(err, ErrInviteEmailMismatch):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountDisabled):
		RespondError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, ErrNotAMember):
		RespondError(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, ErrSiteNotFound),
		errors.Is(err, ErrWorkspaceNotFound),
		errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrProspectNotFound),
		errors.Is(err, ErrAccountNotFound):
		RespondError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrNoBillingCustomer):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrFormKeyInvalid), errors.Is(err, ErrFormDisabled):
		RespondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDatabaseError):
		zap.L().Error("database error", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		zap.L().Error("unhandled service error", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
