package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/pixmix/pixmix-backend/pkg/tokenregistry"
)

type RegisterTokenRequest struct {
	UserID   string `json:"userId" validate:"required"`
	FCMToken string `json:"fcmToken" validate:"required,min=10"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android"`
}

type RegisterTokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TokenHandler registers device push tokens against user identifiers.
// It does not verify the token with the push provider.
type TokenHandler struct {
	registry tokenregistry.Registry
	validate *validator.Validate
	logger   *slog.Logger
}

func NewTokenHandler(registry tokenregistry.Registry, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		registry: registry,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *TokenHandler) Handle(c echo.Context) error {
	var request RegisterTokenRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields: userId and fcmToken"})
	}

	if err := h.validate.Struct(&request); err != nil {
		if request.UserID == "" || request.FCMToken == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields: userId and fcmToken"})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid FCM token format"})
	}

	platform := request.Platform
	if platform == "" {
		platform = "ios"
	}

	if err := h.registry.Store(c.Request().Context(), request.UserID, request.FCMToken, platform); err != nil {
		h.logger.Error("token registration failed", "userId", request.UserID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to register token"})
	}

	h.logger.Info("token registered", "userId", request.UserID, "platform", platform)

	return c.JSON(http.StatusOK, RegisterTokenResponse{
		Success: true,
		Message: "Token registered successfully",
	})
}
