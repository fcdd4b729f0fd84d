package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-booking/internal/async"
	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
	"salon-booking/internal/gate"
	"salon-booking/internal/service"
)

type LandingResolver interface {
	Destination(ctx context.Context, creds backend.Credentials) string
}

type LoyaltyReader interface {
	GetUserLoyaltyPoints(ctx context.Context, creds backend.Credentials) float64
}

type ServiceDeleter interface {
	DeleteService(ctx context.Context, creds backend.Credentials, serviceID string) error
}

type AppointmentLister interface {
	ListUpcoming(ctx context.Context, creds backend.Credentials) async.State[[]domain.Appointment]
}

// AccountHandler agrupa los endpoints del usuario logueado.
type AccountHandler struct {
	logger       *zap.Logger
	landing      LandingResolver
	loyalty      LoyaltyReader
	catalog      ServiceDeleter
	appointments AppointmentLister
}

func NewAccountHandler(
	logger *zap.Logger,
	landing LandingResolver,
	loyalty LoyaltyReader,
	catalog ServiceDeleter,
	appointments AppointmentLister,
) *AccountHandler {
	return &AccountHandler{
		logger:       logger,
		landing:      landing,
		loyalty:      loyalty,
		catalog:      catalog,
		appointments: appointments,
	}
}

// Landing maneja GET /auth/landing: redirige segun el tipo de cuenta.
func (h *AccountHandler) Landing(c *gin.Context) {
	ids := gate.GetIdentities(c)
	dest := h.landing.Destination(c.Request.Context(), ids.Credentials)
	c.Redirect(http.StatusFound, dest)
}

// LoyaltyPoints maneja GET /loyalty/points.
func (h *AccountHandler) LoyaltyPoints(c *gin.Context) {
	ids := gate.GetIdentities(c)
	points := h.loyalty.GetUserLoyaltyPoints(c.Request.Context(), ids.Credentials)
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// DeleteService maneja DELETE /services/:id.
func (h *AccountHandler) DeleteService(c *gin.Context) {
	ids := gate.GetIdentities(c)
	err := h.catalog.DeleteService(c.Request.Context(), ids.Credentials, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidServiceID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		case errors.Is(err, service.ErrNoUser), errors.Is(err, backend.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		case errors.Is(err, service.ErrServiceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		default:
			h.logger.Error("delete service failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not delete service"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Appointments maneja GET /appointments.
func (h *AccountHandler) Appointments(c *gin.Context) {
	ids := gate.GetIdentities(c)
	c.JSON(http.StatusOK, h.appointments.ListUpcoming(c.Request.Context(), ids.Credentials))
}
