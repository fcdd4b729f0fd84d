package service

import (
	"context"

	"go.uber.org/zap"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
)

// LandingService decide a donde navegar despues del login.
type LandingService struct {
	sessions SessionLookup
	logger   *zap.Logger
}

func NewLandingService(sessions SessionLookup, logger *zap.Logger) *LandingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LandingService{sessions: sessions, logger: logger}
}

// Destination: sin sesion -> /login; estilista -> /stylist-dashboard; resto -> /profile.
func (s *LandingService) Destination(ctx context.Context, creds backend.Credentials) string {
	if s.sessions == nil {
		return domain.LoginPath
	}
	session, err := s.sessions.GetSession(ctx, creds)
	if err != nil {
		s.logger.Warn("get session failed", zap.Error(err))
		return domain.LoginPath
	}
	if session == nil {
		return domain.LoginPath
	}
	if session.IsStylist() {
		return domain.StylistDashboardPath
	}
	return domain.ProfilePath
}
