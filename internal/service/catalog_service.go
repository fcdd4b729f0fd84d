package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"salon-booking/internal/backend"
)

// CatalogService opera sobre los servicios publicados por un estilista.
type CatalogService struct {
	users  UserLookup
	tables backend.Tables
	logger *zap.Logger
}

func NewCatalogService(users UserLookup, tables backend.Tables, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{users: users, tables: tables, logger: logger}
}

// DeleteService borra el servicio solo si pertenece al usuario actual.
func (s *CatalogService) DeleteService(ctx context.Context, creds backend.Credentials, serviceID string) error {
	if s.users == nil || s.tables == nil {
		return ErrNotConfigured
	}
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return ErrInvalidServiceID
	}
	user, err := s.users.GetUser(ctx, creds)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrNoUser
	}
	n, err := s.tables.Delete(ctx, creds, "services", backend.Eq("id", serviceID, "owner_id", user.ID))
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if n == 0 {
		return ErrServiceNotFound
	}
	s.logger.Info("service deleted", zap.String("service_id", serviceID), zap.String("owner_id", user.ID))
	return nil
}
