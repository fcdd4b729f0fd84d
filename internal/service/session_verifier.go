package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"salon-booking/internal/gate"
)

var (
	ErrSessionInvalid = errors.New("session token invalid")
	ErrSessionExpired = errors.New("session token expired")
)

// SessionClaims son las claims del access token que emite el backend.
type SessionClaims struct {
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role"`
	SessionID    string         `json:"session_id,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

// revocationKey identifica un access token concreto, no la sesion: los
// tokens que el proveedor emita despues para la misma sesion siguen validos.
func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "tok:" + hex.EncodeToString(sum[:])
}

// SessionVerifier valida localmente tokens HS256 firmados con el secreto
// del proyecto. No hace llamadas de red.
type SessionVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewSessionVerifier(secret, issuer, audience string) *SessionVerifier {
	return &SessionVerifier{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
	}
}

func (v *SessionVerifier) Verify(token string) (SessionClaims, error) {
	if v == nil || len(v.secret) == 0 {
		return SessionClaims{}, ErrSessionInvalid
	}
	if strings.TrimSpace(token) == "" {
		return SessionClaims{}, ErrSessionInvalid
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims SessionClaims
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrSessionExpired
		}
		return SessionClaims{}, ErrSessionInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return SessionClaims{}, ErrSessionInvalid
	}
	if claims.Role != "" && claims.Role != "authenticated" {
		return SessionClaims{}, ErrSessionInvalid
	}
	return claims, nil
}

// RawClaims valida el token y devuelve sus claims en JSON (modo Postgres).
func (v *SessionVerifier) RawClaims(token string) (json.RawMessage, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// PrimarySource es la fuente de identidad de la sesion del backend.
type PrimarySource struct {
	verifier    *SessionVerifier
	revocations RevocationStore
	logger      *zap.Logger
}

func NewPrimarySource(verifier *SessionVerifier, revocations RevocationStore, logger *zap.Logger) *PrimarySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrimarySource{verifier: verifier, revocations: revocations, logger: logger}
}

// Resolve nunca devuelve Loading: la verificacion es local.
func (s *PrimarySource) Resolve(ctx context.Context, token string) gate.IdentityState {
	if strings.TrimSpace(token) == "" {
		return gate.Unauthenticated()
	}
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return gate.Unauthenticated()
	}
	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, revocationKey(token))
		if err != nil {
			// fail closed: sin poder confirmar, la sesion no cuenta.
			s.logger.Warn("revocation lookup failed", zap.Error(err))
			return gate.Unauthenticated()
		}
		if revoked {
			return gate.Unauthenticated()
		}
	}
	return gate.Authenticated(claims.Subject)
}

// RevokeToken marca el token como revocado hasta que expire.
func (s *PrimarySource) RevokeToken(ctx context.Context, token string) error {
	if s.revocations == nil {
		return nil
	}
	claims, err := s.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil
		}
		return err
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return s.revocations.Revoke(ctx, revocationKey(token), ttl)
}
