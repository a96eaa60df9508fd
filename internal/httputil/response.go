// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/users/internal/errors"
)

// nowFunc is the clock used to stamp error responses.
var nowFunc = time.Now

// Error codes returned in the "error" field of an ErrorResponse.
const (
	CodeValidationError     = "validation_error"
	CodeMalformedJSON       = "malformed_json"
	CodeMissingParameter    = "missing_parameter"
	CodeConstraintViolation = "constraint_violation"
	CodeConflict            = "conflict"
	CodeNotFound            = "not_found"
	CodeTooManyRequests     = "too_many_requests"
	CodeInternalError       = "internal_error"
)

const (
	validationFailedMessage = "Validation failed"
	unexpectedErrorMessage  = "Unexpected error"
)

// FieldError describes a single invalid field in an ErrorResponse.
type FieldError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Timestamp string       `json:"timestamp"`
	Path      *string      `json:"path"`
	Status    int          `json:"status"`
	Error     string       `json:"error"`
	Message   *string      `json:"message"`
	Fields    []FieldError `json:"fields"`
}

// fieldErrorer is implemented by errors that carry per-field details.
type fieldErrorer interface {
	FieldErrors() []apperrors.FieldError
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON response using Gin.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var code string
	var message string
	var fields []FieldError

	var withFields fieldErrorer
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidInput) && apperrors.As(err, &withFields):
		statusCode = http.StatusBadRequest
		code = CodeValidationError
		message = validationFailedMessage
		fields = toFieldErrors(withFields.FieldErrors())

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		code = CodeValidationError
		message = err.Error()

	case apperrors.Is(err, apperrors.ErrConstraintViolation):
		statusCode = http.StatusConflict
		code = CodeConstraintViolation
		message = err.Error()

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		code = CodeConflict
		message = err.Error()

	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		code = CodeNotFound
		message = err.Error()

	default:
		// Unknown errors never leak details to the client
		statusCode = http.StatusInternalServerError
		code = CodeInternalError
		message = unexpectedErrorMessage
	}

	if logger != nil {
		attrs := []any{
			slog.Int("status_code", statusCode),
			slog.String("error_code", code),
			slog.Any("error", err),
		}
		if statusCode >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request failed", attrs...)
		}
	}

	writeError(c, statusCode, code, &message, fields)
}

// HandleMalformedJSONGin writes a 400 Bad Request response for a body that could not be decoded.
func HandleMalformedJSONGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("malformed request body", slog.Any("error", err))
	}

	message := "Request body is invalid"
	if err != nil {
		message = err.Error()
	}
	writeError(c, http.StatusBadRequest, CodeMalformedJSON, &message, nil)
}

// HandleMissingParameterGin writes a 400 Bad Request response for a required query parameter
// that was not supplied.
func HandleMissingParameterGin(c *gin.Context, name string, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("missing request parameter", slog.String("parameter", name))
	}

	message := "Missing parameter: " + name
	writeError(c, http.StatusBadRequest, CodeMissingParameter, &message, nil)
}

// HandleConstraintViolationGin writes a 400 Bad Request response for invalid path or query
// parameters.
func HandleConstraintViolationGin(c *gin.Context, fields []apperrors.FieldError, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("request parameter constraint violated", slog.Any("fields", fields))
	}

	message := validationFailedMessage
	writeError(c, http.StatusBadRequest, CodeConstraintViolation, &message, toFieldErrors(fields))
}

// HandleValidationErrorGin writes a 400 Bad Request response for request body validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	message := validationFailedMessage
	var fields []FieldError
	var withFields fieldErrorer
	if apperrors.As(err, &withFields) {
		fields = toFieldErrors(withFields.FieldErrors())
	} else if err != nil {
		message = err.Error()
	}
	writeError(c, http.StatusBadRequest, CodeValidationError, &message, fields)
}

// AbortWithError writes an ErrorResponse and aborts the middleware chain. Middlewares use it to
// keep their rejections in the same shape as handler errors.
func AbortWithError(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, NewErrorResponse(c, statusCode, code, &message, nil))
}

// NewErrorResponse builds an ErrorResponse for the current request.
func NewErrorResponse(c *gin.Context, statusCode int, code string, message *string, fields []FieldError) ErrorResponse {
	var path *string
	if c.Request != nil && c.Request.URL != nil {
		p := c.Request.URL.Path
		path = &p
	}

	return ErrorResponse{
		Timestamp: nowFunc().UTC().Format(time.RFC3339Nano),
		Path:      path,
		Status:    statusCode,
		Error:     code,
		Message:   message,
		Fields:    fields,
	}
}

func writeError(c *gin.Context, statusCode int, code string, message *string, fields []FieldError) {
	c.JSON(statusCode, NewErrorResponse(c, statusCode, code, message, fields))
}

func toFieldErrors(in []apperrors.FieldError) []FieldError {
	if len(in) == 0 {
		return nil
	}
	out := make([]FieldError, 0, len(in))
	for _, f := range in {
		out = append(out, FieldError{Name: f.Name, Reason: f.Reason})
	}
	return out
}
