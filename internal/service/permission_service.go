package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
)

// PermissionService consulta que puede hacer el actor sobre el catalogo.
type PermissionService struct {
	procs  backend.Procedures
	logger *zap.Logger
}

func NewPermissionService(procs backend.Procedures, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{procs: procs, logger: logger}
}

// CheckServicePermissions devuelve todo en false ante cualquier error.
func (s *PermissionService) CheckServicePermissions(ctx context.Context, creds backend.Credentials) domain.ServicePermissions {
	if s.procs == nil {
		return domain.ServicePermissions{}
	}
	var raw json.RawMessage
	if err := s.procs.Call(ctx, creds, "check_service_permissions", nil, &raw); err != nil {
		s.logger.Warn("check service permissions failed", zap.Error(err))
		return domain.ServicePermissions{}
	}
	var perms domain.ServicePermissions
	if _, err := backend.DecodeSingle(raw, &perms); err != nil {
		s.logger.Warn("decode service permissions failed", zap.Error(err))
		return domain.ServicePermissions{}
	}
	return perms
}
