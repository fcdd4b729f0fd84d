package gate

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-booking/internal/backend"
	"salon-booking/internal/guard"
)

const identitiesKey = "gate_identities"

// Nombres de cookies y headers de donde se leen los tokens.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
	OAuthTokenCookie   = "oauth_id_token"
	RefreshTokenHeader = "X-Refresh-Token"
	OAuthTokenHeader   = "X-OAuth-Token"
)

// Source resuelve el estado de una fuente de identidad a partir de su token.
type Source interface {
	Resolve(ctx context.Context, token string) IdentityState
}

// StoreFactory liga el Session Store a los tokens del actor.
type StoreFactory func(creds backend.Credentials) guard.SessionStore

// Identities es el estado de auth cargado para el request.
type Identities struct {
	Primary     IdentityState
	Secondary   IdentityState
	Admin       IdentityState
	Credentials backend.Credentials
}

// LoadIdentities resuelve ambas fuentes y las guarda en el contexto. Las
// fuentes se mantienen separadas, cada una con su propio estado de carga.
func LoadIdentities(primary, secondary Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := backend.Credentials{
			AccessToken:  bearerToken(c),
			RefreshToken: headerOrCookie(c, RefreshTokenHeader, RefreshTokenCookie),
		}
		ids := Identities{
			Primary:     Unauthenticated(),
			Secondary:   Unauthenticated(),
			Admin:       Loading(),
			Credentials: creds,
		}
		ctx := c.Request.Context()
		if primary != nil {
			ids.Primary = primary.Resolve(ctx, creds.AccessToken)
		}
		if secondary != nil {
			ids.Secondary = secondary.Resolve(ctx, headerOrCookie(c, OAuthTokenHeader, OAuthTokenCookie))
		}
		c.Set(identitiesKey, ids)
		c.Next()
	}
}

// LoadAdmin corre la variante no periodica del guard y deja el resultado en
// el contexto para que AdminRoute decida sin tocar la red.
func LoadAdmin(newStore StoreFactory, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ids := GetIdentities(c)
		ids.Admin = Unauthenticated()
		if ids.Primary.IsAuthenticated() && newStore != nil {
			g := guard.New(newStore(ids.Credentials), nil, guard.WithLogger(logger))
			if g.CheckAuthorization(c.Request.Context(), true) == guard.Authorized {
				session, _ := g.Session()
				ids.Admin = Authenticated(session.Identity.ID)
			}
		}
		c.Set(identitiesKey, ids)
		c.Next()
	}
}

// AdminRoute deja pasar solo con identidad admin cargada.
func AdminRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		apply(c, DecideAdmin(GetIdentities(c).Admin))
	}
}

// PublicRoute deja pasar solo si ninguna fuente reporta usuario autenticado.
func PublicRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := GetIdentities(c)
		apply(c, DecidePublic(ids.Primary, ids.Secondary))
	}
}

// RequireUser deja pasar solo con sesion primaria.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		apply(c, DecideUser(GetIdentities(c).Primary))
	}
}

// GetIdentities obtiene las identidades cargadas. Sin LoadIdentities todo
// queda como no autenticado.
func GetIdentities(c *gin.Context) Identities {
	val, ok := c.Get(identitiesKey)
	if !ok {
		return Identities{
			Primary:   Unauthenticated(),
			Secondary: Unauthenticated(),
			Admin:     Unauthenticated(),
		}
	}
	ids, ok := val.(Identities)
	if !ok {
		return Identities{Primary: Unauthenticated(), Secondary: Unauthenticated(), Admin: Unauthenticated()}
	}
	return ids
}

// apply ejecuta la decision. Los redirects son silenciosos: sin mensaje de
// error para no revelar si el recurso existe.
func apply(c *gin.Context, d Decision) {
	switch d.Action {
	case Render:
		c.Next()
	case Wait:
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "resolving"})
	case Redirect:
		code := http.StatusFound
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			code = http.StatusSeeOther
		}
		c.Redirect(code, d.Location)
		c.Abort()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > len("Bearer ") && strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func headerOrCookie(c *gin.Context, header, cookie string) string {
	if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
		return v
	}
	if v, err := c.Cookie(cookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}
