package domain

import (
	"strconv"
	"strings"
	"time"
)

// Session es la prueba confirmada por el servidor de un actor logueado.
type Session struct {
	User      User           `json:"user"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// IsStylist interpreta el flag is_stylist de la metadata. El backend lo
// guarda a veces como bool, a veces como string o numero.
func (s Session) IsStylist() bool {
	return truthy(s.Metadata["is_stylist"])
}

func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	case float64:
		return val == 1
	case int:
		return val == 1
	case int64:
		return val == 1
	default:
		return false
	}
}

// AdminIdentity es el handle opaco que prueba privilegios de administrador.
type AdminIdentity struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// AdminSession representa la autorizacion vigente de un administrador.
// Nunca se cachea: IsValid solo es true mientras el proveedor la confirme.
type AdminSession struct {
	Identity     AdminIdentity `json:"identity"`
	ValidatedAt  time.Time     `json:"validated_at"`
	RefreshCount int           `json:"refresh_count"`
	Invalidated  bool          `json:"invalidated"`
}

func (s AdminSession) IsValid() bool {
	return s.Identity.ID != "" && !s.Invalidated
}
