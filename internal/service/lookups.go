package service

import (
	"context"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
)

// UserLookup obtiene el usuario actual del proveedor de auth.
type UserLookup interface {
	GetUser(ctx context.Context, creds backend.Credentials) (*domain.User, error)
}

// SessionLookup obtiene la sesion actual con su metadata.
type SessionLookup interface {
	GetSession(ctx context.Context, creds backend.Credentials) (*domain.Session, error)
}
