// Package http provides HTTP handlers for user-related operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/httputil"
	"github.com/allisson/users/internal/user/http/dto"
	"github.com/allisson/users/internal/user/usecase"
	appValidation "github.com/allisson/users/internal/validation"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userUseCase usecase.UseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// CreateHandler registers a new user.
// POST /v1/users - Returns 201 Created with the stored user.
func (h *UserHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateUserRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleMalformedJSONGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	output, err := h.userUseCase.Create(c.Request.Context(), dto.ToCreateUserInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(output))
}

// GetByIDHandler retrieves a user by ID.
// GET /v1/users/:id - Returns 200 OK, 400 when the id is not a UUID, 404 when absent.
func (h *UserHandler) GetByIDHandler(c *gin.Context) {
	rawID := c.Param("id")
	if err := validation.Validate(rawID, validation.Required, appValidation.UUID); err != nil {
		httputil.HandleConstraintViolationGin(
			c,
			[]apperrors.FieldError{{Name: "id", Reason: err.Error()}},
			h.logger,
		)
		return
	}

	output, err := h.userUseCase.GetByID(c.Request.Context(), uuid.MustParse(rawID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(output))
}

// GetByEmailHandler retrieves a user by email.
// GET /v1/users?email=... - Returns 200 OK, 400 when the parameter is missing, 404 when absent.
func (h *UserHandler) GetByEmailHandler(c *gin.Context) {
	email, ok := c.GetQuery("email")
	if !ok {
		httputil.HandleMissingParameterGin(c, "email", h.logger)
		return
	}

	output, err := h.userUseCase.GetByEmail(c.Request.Context(), email)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(output))
}
