package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salon-booking/internal/async"
	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
	"salon-booking/internal/repository"
)

type AppointmentService struct {
	users  UserLookup
	repo   repository.AppointmentRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewAppointmentService(users UserLookup, repo repository.AppointmentRepository, logger *zap.Logger) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{users: users, repo: repo, logger: logger, now: time.Now}
}

// ListUpcoming devuelve las proximas citas del usuario actual.
func (s *AppointmentService) ListUpcoming(ctx context.Context, creds backend.Credentials) async.State[[]domain.Appointment] {
	op := async.New[[]domain.Appointment](s.logger, "appointments")
	_, _ = op.Execute(ctx, func(ctx context.Context) ([]domain.Appointment, error) {
		if s.users == nil || s.repo == nil {
			return nil, ErrNotConfigured
		}
		user, err := s.users.GetUser(ctx, creds)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrNoUser
		}
		return s.repo.ListUpcomingByCustomer(ctx, creds, user.ID, s.now().UTC())
	}, "could not load appointments")
	return op.Snapshot()
}
