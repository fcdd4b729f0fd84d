package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
	"salon-booking/internal/gate"
	"salon-booking/internal/service"
)

type NotificationSettingsService interface {
	Get(ctx context.Context, creds backend.Credentials) service.NotificationView
	Update(ctx context.Context, creds backend.Credentials, in domain.NotificationSettings) service.NotificationView
	SendTest(ctx context.Context, creds backend.Credentials) error
}

type NotificationHandler struct {
	logger        *zap.Logger
	notifications NotificationSettingsService
}

func NewNotificationHandler(logger *zap.Logger, notifications NotificationSettingsService) *NotificationHandler {
	return &NotificationHandler{logger: logger, notifications: notifications}
}

// GetSettings maneja GET /notifications/settings.
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	ids := gate.GetIdentities(c)
	c.JSON(http.StatusOK, h.notifications.Get(c.Request.Context(), ids.Credentials))
}

// UpdateSettings maneja PUT /notifications/settings.
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	var req domain.NotificationSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid notification settings request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ids := gate.GetIdentities(c)
	view := h.notifications.Update(c.Request.Context(), ids.Credentials, req)
	if len(view.Fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, view)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SendTest maneja POST /notifications/test.
func (h *NotificationHandler) SendTest(c *gin.Context) {
	ids := gate.GetIdentities(c)
	err := h.notifications.SendTest(c.Request.Context(), ids.Credentials)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		case errors.Is(err, service.ErrNotificationsDisabled):
			c.JSON(http.StatusConflict, gin.H{"error": "email notifications are disabled"})
		case errors.Is(err, service.ErrNoUser), errors.Is(err, backend.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		default:
			h.logger.Error("send test notification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send test notification"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
