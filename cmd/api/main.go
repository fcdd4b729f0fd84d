package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"salon-booking/internal/backend"
	"salon-booking/internal/config"
	"salon-booking/internal/db"
	"salon-booking/internal/email"
	"salon-booking/internal/gate"
	"salon-booking/internal/guard"
	apihttp "salon-booking/internal/http"
	"salon-booking/internal/repository"
	"salon-booking/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
	}

	var (
		revocations service.RevocationStore
		notifyLimit service.RateLimiter
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			revocations = service.NewRedisRevocationStore(redisClient)
			notifyLimit = service.NewRedisRateLimiter(redisClient, "notify:test:", cfg.NotifyTestWindow, cfg.NotifyTestLimit)
		}
		cancel()
		defer redisClient.Close()
	}
	if revocations == nil {
		revocations = service.NewMemoryRevocationStore()
	}
	if notifyLimit == nil {
		notifyLimit = service.NewMemoryRateLimiter(cfg.NotifyTestWindow, cfg.NotifyTestLimit)
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(email.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			ImplicitTLS: cfg.SMTPUseTLS,
		})
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	verifier := service.NewSessionVerifier(cfg.SessionJWTSecret, cfg.SessionJWTIssuer, "")
	primary := service.NewPrimarySource(verifier, revocations, logger)

	oauth := service.NewOAuthVerifier(cfg.OAuthAudience, cfg.OAuthIssuer, logger)
	go oauth.Load(ctx, cfg.OAuthJWKSURL)
	defer oauth.Close()

	client := backend.NewClient(cfg.BackendURL, cfg.BackendAnonKey, &http.Client{Timeout: cfg.BackendTimeout}, logger)
	var procs backend.Procedures = client
	if cfg.BackendRPCMode == config.RPCModePostgres {
		procs = backend.NewPgProcedures(pool, verifier.RawClaims)
		logger.Info("rpc via postgres")
	}
	stores := gate.StoreFactory(func(creds backend.Credentials) guard.SessionStore {
		return backend.NewSessionHandle(client, procs, creds)
	})

	var appointmentRepo repository.AppointmentRepository = repository.NewBackendAppointmentRepository(client)
	if pool != nil {
		appointmentRepo = repository.NewPgAppointmentRepository(pool)
	}

	permissionSvc := service.NewPermissionService(procs, logger)
	loyaltySvc := service.NewLoyaltyService(client, procs, logger)
	analyticsSvc := service.NewAnalyticsService(procs, logger)
	catalogSvc := service.NewCatalogService(client, client, logger)
	landingSvc := service.NewLandingService(client, logger)
	notificationSvc := service.NewNotificationService(client, client, emailSender, notifyLimit, logger)
	appointmentSvc := service.NewAppointmentService(client, appointmentRepo, logger)

	adminHandler := apihttp.NewAdminHandler(logger, stores, analyticsSvc, permissionSvc, primary, cfg.AdminRefreshInterval)
	accountHandler := apihttp.NewAccountHandler(logger, landingSvc, loyaltySvc, catalogSvc, appointmentSvc)
	notificationHandler := apihttp.NewNotificationHandler(logger, notificationSvc)
	formHandler := apihttp.NewFormHandler(logger)
	router := apihttp.NewRouter(
		logger,
		apihttp.AuthSources{Primary: primary, Secondary: oauth, Stores: stores},
		adminHandler,
		accountHandler,
		notificationHandler,
		formHandler,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("rpc_mode", cfg.BackendRPCMode))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
