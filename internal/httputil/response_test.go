package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/users/internal/errors"
)

var fixedNow = time.Date(2025, 8, 23, 18, 27, 11, 0, time.UTC)

type fieldsErr struct{}

func (fieldsErr) Error() string { return "cpf must have 11 digits" }

func (fieldsErr) Unwrap() error { return apperrors.ErrInvalidInput }

func (fieldsErr) FieldErrors() []apperrors.FieldError {
	return []apperrors.FieldError{{Name: "cpf", Reason: "cpf must have 11 digits"}}
}

func setupContext(t *testing.T, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	previous := nowFunc
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() { nowFunc = previous })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
		expectedFields  []FieldError
	}{
		{
			name:            "conflict keeps message",
			err:             apperrors.Wrap(apperrors.ErrConflict, "email already used: x@y.com"),
			expectedStatus:  http.StatusConflict,
			expectedCode:    "conflict",
			expectedMessage: "email already used: x@y.com: conflict",
		},
		{
			name:            "constraint violation",
			err:             apperrors.Wrap(apperrors.ErrConstraintViolation, "uk_users_email"),
			expectedStatus:  http.StatusConflict,
			expectedCode:    "constraint_violation",
			expectedMessage: "uk_users_email: constraint violation",
		},
		{
			name:            "not found",
			err:             apperrors.Wrap(apperrors.ErrNotFound, "user"),
			expectedStatus:  http.StatusNotFound,
			expectedCode:    "not_found",
			expectedMessage: "user: not found",
		},
		{
			name: "validation error with fields",
			err: &apperrors.ValidationError{
				Message: "Validation failed",
				Fields:  []apperrors.FieldError{{Name: "name", Reason: "name is required"}},
			},
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    "validation_error",
			expectedMessage: "Validation failed",
			expectedFields:  []FieldError{{Name: "name", Reason: "name is required"}},
		},
		{
			name:            "field error from domain",
			err:             fieldsErr{},
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    "validation_error",
			expectedMessage: "Validation failed",
			expectedFields:  []FieldError{{Name: "cpf", Reason: "cpf must have 11 digits"}},
		},
		{
			name:            "plain invalid input",
			err:             apperrors.Wrap(apperrors.ErrInvalidInput, "bad"),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    "validation_error",
			expectedMessage: "bad: invalid input",
		},
		{
			name:            "unknown error is hidden",
			err:             errors.New("connection refused"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "internal_error",
			expectedMessage: "Unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupContext(t, "/v1/users")

			HandleErrorGin(c, tt.err, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.Equal(t, tt.expectedCode, resp.Error)
			require.NotNil(t, resp.Message)
			assert.Equal(t, tt.expectedMessage, *resp.Message)
			assert.Equal(t, tt.expectedFields, resp.Fields)
			require.NotNil(t, resp.Path)
			assert.Equal(t, "/v1/users", *resp.Path)
			assert.Equal(t, "2025-08-23T18:27:11Z", resp.Timestamp)
		})
	}
}

func TestHandleErrorGin_NilError(t *testing.T) {
	c, w := setupContext(t, "/v1/users")

	HandleErrorGin(c, nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleErrorGin_FieldsNullWhenAbsent(t *testing.T) {
	c, w := setupContext(t, "/v1/users")

	HandleErrorGin(c, fmt.Errorf("wrapped: %w", apperrors.ErrConflict), nil)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "fields")
	assert.Nil(t, raw["fields"])
}

func TestHandleMalformedJSONGin(t *testing.T) {
	c, w := setupContext(t, "/v1/users")

	HandleMalformedJSONGin(c, errors.New("unexpected EOF"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "malformed_json", resp.Error)
	assert.Equal(t, "unexpected EOF", *resp.Message)
}

func TestHandleMissingParameterGin(t *testing.T) {
	c, w := setupContext(t, "/v1/users")

	HandleMissingParameterGin(c, "email", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "missing_parameter", resp.Error)
	assert.Equal(t, "Missing parameter: email", *resp.Message)
}

func TestHandleConstraintViolationGin(t *testing.T) {
	c, w := setupContext(t, "/v1/users/abc")

	HandleConstraintViolationGin(c, []apperrors.FieldError{{Name: "id", Reason: "must be a valid UUID"}}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "constraint_violation", resp.Error)
	assert.Equal(t, "Validation failed", *resp.Message)
	assert.Equal(t, []FieldError{{Name: "id", Reason: "must be a valid UUID"}}, resp.Fields)
	assert.Equal(t, "/v1/users/abc", *resp.Path)
}

func TestHandleValidationErrorGin(t *testing.T) {
	t.Run("Success_WithFields", func(t *testing.T) {
		c, w := setupContext(t, "/v1/users")

		HandleValidationErrorGin(c, &apperrors.ValidationError{
			Message: "Validation failed",
			Fields:  []apperrors.FieldError{{Name: "email", Reason: "email must be valid"}},
		}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Len(t, resp.Fields, 1)
	})

	t.Run("Success_WithoutFields", func(t *testing.T) {
		c, w := setupContext(t, "/v1/users")

		HandleValidationErrorGin(c, errors.New("bad body"), nil)

		resp := decodeResponse(t, w)
		assert.Equal(t, "bad body", *resp.Message)
		assert.Nil(t, resp.Fields)
	})
}

func TestAbortWithError(t *testing.T) {
	c, w := setupContext(t, "/v1/users")

	AbortWithError(c, http.StatusTooManyRequests, CodeTooManyRequests, "Too many requests")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "too_many_requests", resp.Error)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
}
