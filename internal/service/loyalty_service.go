package service

import (
	"context"

	"go.uber.org/zap"

	"salon-booking/internal/backend"
)

// LoyaltyService obtiene los puntos acumulados; la acumulacion vive en el backend.
type LoyaltyService struct {
	users  UserLookup
	procs  backend.Procedures
	logger *zap.Logger
}

func NewLoyaltyService(users UserLookup, procs backend.Procedures, logger *zap.Logger) *LoyaltyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoyaltyService{users: users, procs: procs, logger: logger}
}

// GetUserLoyaltyPoints devuelve el total tal cual lo calcula el backend,
// fracciones incluidas. 0 sin usuario o ante cualquier error.
func (s *LoyaltyService) GetUserLoyaltyPoints(ctx context.Context, creds backend.Credentials) float64 {
	if s.users == nil || s.procs == nil {
		return 0
	}
	user, err := s.users.GetUser(ctx, creds)
	if err != nil {
		s.logger.Warn("get user for loyalty points failed", zap.Error(err))
		return 0
	}
	if user == nil {
		return 0
	}
	var points *float64
	if err := s.procs.Call(ctx, creds, "get_user_loyalty_points", map[string]any{"user_id": user.ID}, &points); err != nil {
		s.logger.Warn("get user loyalty points failed", zap.Error(err), zap.String("user_id", user.ID))
		return 0
	}
	if points == nil {
		return 0
	}
	return *points
}
