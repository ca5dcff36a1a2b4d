// Package dto provides data transfer objects for HTTP requests/responses
package dto

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"answerdesk/chat-api/internal/domain/ratelimit"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

// ErrorInfo holds error information
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// WriteError maps a pipeline or repository error to its HTTP shape. Rate
// limit errors additionally carry a Retry-After header, the only error
// clients are told to retry.
func WriteError(c *gin.Context, err error) {
	var rlErr *ratelimit.Error
	if errors.As(err, &rlErr) {
		seconds := int(math.Ceil(rlErr.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: ErrorInfo{
			Code:    ratelimit.CodeRateLimited,
			Message: rlErr.Error(),
		}})
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorInfo{
			Code:    "not_found",
			Message: "not found",
		}})
		return
	}

	status := http.StatusInternalServerError
	message := "internal error"
	switch platformerrors.TypeOf(err) {
	case platformerrors.ErrorTypeValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case platformerrors.ErrorTypeNotFound:
		status = http.StatusNotFound
		message = "not found"
	case platformerrors.ErrorTypeForbidden:
		status = http.StatusForbidden
		message = "forbidden"
	case platformerrors.ErrorTypeConsentRequired:
		status = http.StatusForbidden
		message = "consent required before chatting"
	case platformerrors.ErrorTypeConflict:
		status = http.StatusConflict
		message = err.Error()
	case platformerrors.ErrorTypeUnavailable:
		status = http.StatusServiceUnavailable
		message = "temporarily unavailable"
	}

	code := platformerrors.CodeOf(err)
	if code == "" {
		code = "internal_error"
	}
	c.JSON(status, ErrorResponse{Error: ErrorInfo{Code: code, Message: message}})
}
