package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-booking/internal/domain"
	"salon-booking/internal/service"
)

// FormHandler expone los validadores de login para el frontend.
type FormHandler struct {
	logger *zap.Logger
}

func NewFormHandler(logger *zap.Logger) *FormHandler {
	return &FormHandler{logger: logger}
}

// ValidateLogin maneja POST /forms/login/validate.
func (h *FormHandler) ValidateLogin(c *gin.Context) {
	var req service.LoginForm
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid login form", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	respondForm(c, service.ValidateLoginForm(req))
}

// ValidateStylistLogin maneja POST /forms/stylist-login/validate.
func (h *FormHandler) ValidateStylistLogin(c *gin.Context) {
	var req service.StylistLoginForm
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid stylist login form", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	respondForm(c, service.ValidateStylistLoginForm(req))
}

func respondForm(c *gin.Context, errs domain.FormErrors) {
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
