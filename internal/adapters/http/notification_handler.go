package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

// NotificationHandler handles reminder requests
type NotificationHandler struct {
	notificationService ports.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService ports.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// SendEmail godoc
// @Summary Send a due-date reminder
// @Description Queue a reminder e-mail to the caller. Delivery happens in the background.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body ports.NotificationRequest true "Reminder"
// @Success 202 {object} ports.MessageResponse
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /notifications/email [post]
func (h *NotificationHandler) SendEmail(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req ports.NotificationRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("body", "invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.notificationService.Notify(c.Request().Context(), user, req); err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, ports.MessageResponse{Message: "Email notification queued"})
}
