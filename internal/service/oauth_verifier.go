package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"salon-booking/internal/gate"
)

var ErrOAuthTokenInvalid = errors.New("oauth token invalid")

// OAuthVerifier valida tokens del proveedor OAuth secundario contra su JWKS.
// Hasta que el JWKS se cargue la fuente reporta Loading.
type OAuthVerifier struct {
	audience string
	issuer   string
	logger   *zap.Logger

	mu      sync.RWMutex
	ready   bool
	keyFunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
}

func NewOAuthVerifier(audience, issuer string, logger *zap.Logger) *OAuthVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthVerifier{
		audience: strings.TrimSpace(audience),
		issuer:   strings.TrimSpace(issuer),
		logger:   logger,
	}
}

// Load descarga el JWKS, reintentando hasta lograrlo o hasta que ctx termine.
// Sin URL el proveedor queda deshabilitado y todo token es no autenticado.
func (v *OAuthVerifier) Load(ctx context.Context, jwksURL string) {
	if strings.TrimSpace(jwksURL) == "" {
		v.SetKeyfunc(nil)
		return
	}
	backoff := time.Second
	for {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx: ctx,
			RefreshErrorHandler: func(err error) {
				v.logger.Warn("jwks background refresh failed", zap.Error(err))
			},
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
		})
		if err == nil {
			v.mu.Lock()
			v.jwks = jwks
			v.keyFunc = jwks.Keyfunc
			v.ready = true
			v.mu.Unlock()
			v.logger.Info("oauth jwks loaded")
			return
		}
		v.logger.Warn("oauth jwks load failed", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// SetKeyfunc marca el verificador como listo con una keyfunc fija.
func (v *OAuthVerifier) SetKeyfunc(kf jwt.Keyfunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keyFunc = kf
	v.ready = true
}

func (v *OAuthVerifier) Ready() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ready
}

// Verify devuelve el subject del token.
func (v *OAuthVerifier) Verify(token string) (string, error) {
	v.mu.RLock()
	kf := v.keyFunc
	v.mu.RUnlock()
	if kf == nil || strings.TrimSpace(token) == "" {
		return "", ErrOAuthTokenInvalid
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "ES256"})}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, kf); err != nil {
		return "", ErrOAuthTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrOAuthTokenInvalid
	}
	return claims.Subject, nil
}

func (v *OAuthVerifier) Resolve(_ context.Context, token string) gate.IdentityState {
	if strings.TrimSpace(token) == "" {
		return gate.Unauthenticated()
	}
	if !v.Ready() {
		return gate.Loading()
	}
	subject, err := v.Verify(token)
	if err != nil {
		return gate.Unauthenticated()
	}
	return gate.Authenticated(subject)
}

func (v *OAuthVerifier) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
		v.jwks = nil
	}
}
