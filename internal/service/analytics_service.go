package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salon-booking/internal/async"
	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
)

const analyticsFallbackMessage = "could not load analytics"

// AnalyticsService arma el dashboard de administracion con tres RPC en paralelo.
type AnalyticsService struct {
	procs  backend.Procedures
	logger *zap.Logger
}

func NewAnalyticsService(procs backend.Procedures, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{procs: procs, logger: logger}
}

// Load no devuelve error: el fallo queda en el estado de la operacion.
func (s *AnalyticsService) Load(ctx context.Context, creds backend.Credentials) async.State[domain.Analytics] {
	op := async.New[domain.Analytics](s.logger, "analytics")
	_, _ = op.Execute(ctx, func(ctx context.Context) (domain.Analytics, error) {
		return s.fetch(ctx, creds)
	}, analyticsFallbackMessage)
	return op.Snapshot()
}

func (s *AnalyticsService) fetch(ctx context.Context, creds backend.Credentials) (domain.Analytics, error) {
	if s.procs == nil {
		return domain.Analytics{}, ErrNotConfigured
	}
	var (
		result   domain.Analytics
		statsRaw json.RawMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.procs.Call(gctx, creds, "get_booking_stats", nil, &statsRaw)
	})
	g.Go(func() error {
		return s.procs.Call(gctx, creds, "get_revenue_by_month", map[string]any{"months": 12}, &result.Revenue)
	})
	g.Go(func() error {
		return s.procs.Call(gctx, creds, "get_top_services", map[string]any{"max_results": 5}, &result.TopServices)
	})
	if err := g.Wait(); err != nil {
		return domain.Analytics{}, err
	}
	if _, err := backend.DecodeSingle(statsRaw, &result.Stats); err != nil {
		return domain.Analytics{}, err
	}
	if result.Revenue == nil {
		result.Revenue = []domain.MonthlyRevenue{}
	}
	if result.TopServices == nil {
		result.TopServices = []domain.TopService{}
	}
	return result, nil
}
