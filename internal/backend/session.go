package backend

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"salon-booking/internal/domain"
)

// SessionHandle es la vista del Session Store ligada a los tokens de un actor.
// Implementa guard.SessionStore.
type SessionHandle struct {
	client *Client
	procs  Procedures

	mu        sync.Mutex
	creds     Credentials
	expiresAt *time.Time
}

func NewSessionHandle(client *Client, procs Procedures, creds Credentials) *SessionHandle {
	if procs == nil {
		procs = client
	}
	return &SessionHandle{
		client: client,
		procs:  procs,
		creds:  creds,
	}
}

// Credentials devuelve los tokens vigentes. Cambian solo cuando
// RefreshSession tuvo que rotar un access token vencido.
func (h *SessionHandle) Credentials() Credentials {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.creds
}

func (h *SessionHandle) ExpiresAt() *time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.expiresAt
}

// GetAdminIdentity consulta get_current_admin. Sin sesion o sin rol admin
// devuelve nil sin error.
func (h *SessionHandle) GetAdminIdentity(ctx context.Context) (*domain.AdminIdentity, error) {
	creds := h.Credentials()
	if creds.Empty() {
		return nil, nil
	}
	var raw json.RawMessage
	err := h.procs.Call(ctx, creds, "get_current_admin", nil, &raw)
	if errors.Is(err, ErrUnauthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var admin domain.AdminIdentity
	found, err := DecodeSingle(raw, &admin)
	if err != nil {
		return nil, err
	}
	if !found || admin.ID == "" {
		return nil, nil
	}
	return &admin, nil
}

// RefreshSession confirma la sesion con el proveedor. Mientras el access
// token siga vigente solo se valida con /auth/v1/user y el refresh token
// del cliente queda intacto. Solo con el access token rechazado se rota el
// par; el llamador debe entregar los tokens nuevos (ver Credentials).
func (h *SessionHandle) RefreshSession(ctx context.Context) (bool, error) {
	creds := h.Credentials()
	if !creds.Empty() {
		user, err := h.client.GetUser(ctx, creds)
		if err != nil {
			return false, err
		}
		if user != nil {
			return true, nil
		}
	}
	if creds.RefreshToken == "" {
		return false, nil
	}
	next, expiresAt, err := h.client.RefreshCredentials(ctx, creds.RefreshToken)
	if errors.Is(err, ErrUnauthenticated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	h.creds = next
	h.expiresAt = expiresAt
	h.mu.Unlock()
	return true, nil
}
