package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"salon-booking/internal/gate"
)

const requestIDHeader = "X-Request-ID"

// AuthSources son las dos fuentes de identidad y la fabrica del Session
// Store para el guard admin.
type AuthSources struct {
	Primary   gate.Source
	Secondary gate.Source
	Stores    gate.StoreFactory
}

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	auth AuthSources,
	adminH *AdminHandler,
	accountH *AccountHandler,
	notificationH *NotificationHandler,
	formH *FormHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: request id, logging, recovery y JSON content-type.
	r.Use(requestIDMiddleware(), zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	withAuth := r.Group("", gate.LoadIdentities(auth.Primary, auth.Secondary))

	public := withAuth.Group("", gate.PublicRoute())
	public.GET("/public/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "anonymous"})
	})
	forms := public.Group("/forms")
	forms.POST("/login/validate", formH.ValidateLogin)
	forms.POST("/stylist-login/validate", formH.ValidateStylistLogin)

	admin := withAuth.Group("/admin")
	admin.GET("/authorization", adminH.Authorization)
	admin.GET("/session/stream", adminH.SessionStream)
	protected := admin.Group("", gate.LoadAdmin(auth.Stores, logger), gate.AdminRoute())
	protected.GET("/analytics", adminH.Analytics)
	protected.GET("/permissions", adminH.Permissions)

	user := withAuth.Group("", gate.RequireUser())
	user.GET("/auth/landing", accountH.Landing)
	user.GET("/loyalty/points", accountH.LoyaltyPoints)
	user.DELETE("/services/:id", accountH.DeleteService)
	user.GET("/appointments", accountH.Appointments)
	user.GET("/notifications/settings", notificationH.GetSettings)
	user.PUT("/notifications/settings", notificationH.UpdateSettings)
	user.POST("/notifications/test", notificationH.SendTest)

	return r
}

// requestIDMiddleware propaga X-Request-ID o genera uno nuevo.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
