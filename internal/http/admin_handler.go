package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-booking/internal/async"
	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
	"salon-booking/internal/gate"
	"salon-booking/internal/guard"
)

const defaultHeartbeat = 25 * time.Second

type AnalyticsLoader interface {
	Load(ctx context.Context, creds backend.Credentials) async.State[domain.Analytics]
}

type PermissionChecker interface {
	CheckServicePermissions(ctx context.Context, creds backend.Credentials) domain.ServicePermissions
}

// TokenRevoker invalida localmente un access token cuyo refresh fallo.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, token string) error
}

// credentialHolder lo implementan los stores que pueden rotar tokens.
type credentialHolder interface {
	Credentials() backend.Credentials
	ExpiresAt() *time.Time
}

// AdminHandler mantiene dependencias para las vistas de administracion.
type AdminHandler struct {
	logger      *zap.Logger
	newStore    gate.StoreFactory
	analytics   AnalyticsLoader
	permissions PermissionChecker
	revoker     TokenRevoker
	interval    time.Duration
	heartbeat   time.Duration
	ticker      guard.TickerFunc
}

func NewAdminHandler(
	logger *zap.Logger,
	newStore gate.StoreFactory,
	analytics AnalyticsLoader,
	permissions PermissionChecker,
	revoker TokenRevoker,
	refreshInterval time.Duration,
) *AdminHandler {
	if refreshInterval <= 0 {
		refreshInterval = guard.DefaultRefreshInterval
	}
	return &AdminHandler{
		logger:      logger,
		newStore:    newStore,
		analytics:   analytics,
		permissions: permissions,
		revoker:     revoker,
		interval:    refreshInterval,
		heartbeat:   defaultHeartbeat,
	}
}

// Authorization maneja GET /admin/authorization: chequeo puntual, sin refresh.
func (h *AdminHandler) Authorization(c *gin.Context) {
	requireAdmin := true
	if raw := c.Query("require_admin"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid require_admin"})
			return
		}
		requireAdmin = v
	}

	var navigateTo string
	g := guard.New(h.storeFor(gate.GetIdentities(c)), guard.NavigatorFunc(func(to string) {
		navigateTo = to
	}), guard.WithLogger(h.logger))

	decision := g.CheckAuthorization(c.Request.Context(), requireAdmin)
	resp := gin.H{"decision": decision.String()}
	if navigateTo != "" {
		resp["navigate"] = navigateTo
	}
	if session, ok := g.Session(); ok {
		resp["admin"] = session.Identity
	}
	c.JSON(http.StatusOK, resp)
}

type streamEvent struct {
	name    string
	payload any
}

// SessionStream maneja GET /admin/session/stream. Mantiene montado el guard
// mientras la conexion siga abierta y emite decision, refreshed y navigate.
// Si el store roto los tokens, refreshed trae el par nuevo y el cliente debe
// adoptarlo: el refresh token anterior ya no sirve.
func (h *AdminHandler) SessionStream(c *gin.Context) {
	ids := gate.GetIdentities(c)
	ctx := c.Request.Context()
	store := h.storeFor(ids)
	holder, _ := store.(credentialHolder)

	events := make(chan streamEvent, 8)
	push := func(ev streamEvent) {
		select {
		case events <- ev:
		default:
			h.logger.Warn("admin stream event dropped", zap.String("event", ev.name))
		}
	}

	// solo lo toca el loop de refresh del guard.
	issued := ids.Credentials
	opts := []guard.Option{
		guard.WithInterval(h.interval),
		guard.WithLogger(h.logger),
		guard.WithOnRefresh(func(s domain.AdminSession) {
			payload := gin.H{
				"refresh_count": s.RefreshCount,
				"validated_at":  s.ValidatedAt,
			}
			if holder != nil {
				if creds := holder.Credentials(); creds != issued {
					issued = creds
					payload["access_token"] = creds.AccessToken
					payload["refresh_token"] = creds.RefreshToken
					if exp := holder.ExpiresAt(); exp != nil {
						payload["expires_at"] = exp.Unix()
					}
				}
			}
			push(streamEvent{name: "refreshed", payload: payload})
		}),
	}
	if h.ticker != nil {
		opts = append(opts, guard.WithTicker(h.ticker))
	}
	g := guard.New(store, guard.NavigatorFunc(func(to string) {
		push(streamEvent{name: "navigate", payload: gin.H{"to": to}})
	}), opts...)
	defer g.Unmount()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	initial := g.Mount(ctx, true)
	h.writeEvent(c, "decision", gin.H{"decision": initial.String()})

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.name == "navigate" && initial == guard.Authorized {
				// el refresh fallo con la vista montada.
				h.writeEvent(c, "decision", gin.H{"decision": guard.Unauthorized.String()})
				current := ids.Credentials
				if holder != nil {
					current = holder.Credentials()
				}
				h.revoke(ctx, current.AccessToken)
			}
			h.writeEvent(c, ev.name, ev.payload)
			if ev.name == "navigate" {
				return
			}
		case <-heartbeat.C:
			h.writeEvent(c, "ping", gin.H{"at": time.Now().UTC()})
		}
	}
}

// Analytics maneja GET /admin/analytics.
func (h *AdminHandler) Analytics(c *gin.Context) {
	ids := gate.GetIdentities(c)
	c.JSON(http.StatusOK, h.analytics.Load(c.Request.Context(), ids.Credentials))
}

// Permissions maneja GET /admin/permissions.
func (h *AdminHandler) Permissions(c *gin.Context) {
	ids := gate.GetIdentities(c)
	c.JSON(http.StatusOK, h.permissions.CheckServicePermissions(c.Request.Context(), ids.Credentials))
}

// storeFor devuelve nil sin sesion primaria: el guard lo trata como sin admin.
func (h *AdminHandler) storeFor(ids gate.Identities) guard.SessionStore {
	if h.newStore == nil || !ids.Primary.IsAuthenticated() {
		return nil
	}
	return h.newStore(ids.Credentials)
}

func (h *AdminHandler) revoke(ctx context.Context, accessToken string) {
	if h.revoker == nil || accessToken == "" {
		return
	}
	if err := h.revoker.RevokeToken(ctx, accessToken); err != nil {
		h.logger.Warn("revoke admin session failed", zap.Error(err))
	}
}

func (h *AdminHandler) writeEvent(c *gin.Context, name string, payload any) {
	c.SSEvent(name, payload)
	c.Writer.Flush()
}
