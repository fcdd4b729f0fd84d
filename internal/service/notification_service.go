package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
	"salon-booking/internal/email"
)

const notificationSettingsTable = "notification_settings"

// NotificationView es lo que ve la pantalla de preferencias. Error lleva el
// fallo remoto ya convertido en mensaje; Fields los errores de validacion.
type NotificationView struct {
	Settings domain.NotificationSettings `json:"settings"`
	Error    string                      `json:"error,omitempty"`
	Fields   domain.FormErrors           `json:"fields,omitempty"`
}

type NotificationService struct {
	users   UserLookup
	tables  backend.Tables
	sender  email.Sender
	limiter RateLimiter
	logger  *zap.Logger
}

func NewNotificationService(users UserLookup, tables backend.Tables, sender email.Sender, limiter RateLimiter, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		users:   users,
		tables:  tables,
		sender:  sender,
		limiter: limiter,
		logger:  logger,
	}
}

// Get devuelve las preferencias guardadas o las de por defecto si no hay fila.
func (s *NotificationService) Get(ctx context.Context, creds backend.Credentials) NotificationView {
	user, msg := s.currentUser(ctx, creds)
	if user == nil {
		return NotificationView{Settings: domain.DefaultNotificationSettings(""), Error: msg}
	}
	settings, err := s.load(ctx, creds, user.ID)
	if err != nil {
		s.logger.Warn("load notification settings failed", zap.Error(err), zap.String("user_id", user.ID))
		return NotificationView{Settings: domain.DefaultNotificationSettings(user.ID), Error: "could not load notification settings"}
	}
	return NotificationView{Settings: settings}
}

// Update guarda las preferencias del usuario actual. El user_id del cuerpo
// se ignora: siempre se usa el de la sesion.
func (s *NotificationService) Update(ctx context.Context, creds backend.Credentials, in domain.NotificationSettings) NotificationView {
	user, msg := s.currentUser(ctx, creds)
	if user == nil {
		return NotificationView{Settings: in, Error: msg}
	}
	in.UserID = user.ID
	in.UpdatedAt = nil
	if fields := ValidateNotificationSettings(in); len(fields) > 0 {
		return NotificationView{Settings: in, Fields: fields}
	}

	var rows []domain.NotificationSettings
	if err := s.tables.Upsert(ctx, creds, notificationSettingsTable, in, &rows); err != nil {
		s.logger.Warn("save notification settings failed", zap.Error(err), zap.String("user_id", user.ID))
		return NotificationView{Settings: in, Error: "could not save notification settings"}
	}
	if len(rows) > 0 {
		return NotificationView{Settings: rows[0]}
	}
	return NotificationView{Settings: in}
}

// SendTest envia un correo de prueba. A diferencia de Get/Update devuelve
// error para que el handler elija el status.
func (s *NotificationService) SendTest(ctx context.Context, creds backend.Credentials) error {
	if s.users == nil || s.tables == nil || s.sender == nil {
		return ErrNotConfigured
	}
	user, err := s.users.GetUser(ctx, creds)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return ErrNoUser
	}
	if s.limiter != nil && !s.limiter.Allow(user.ID) {
		return ErrRateLimited
	}
	settings, err := s.load(ctx, creds, user.ID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.EmailEnabled {
		return ErrNotificationsDisabled
	}
	body := fmt.Sprintf("This is a test notification.\nAppointment reminders are sent %d hours before your booking.\n", settings.ReminderHours)
	if err := s.sender.SendNotification(ctx, user.Email, "Test notification", body); err != nil {
		s.logger.Error("send test notification failed", zap.Error(err), zap.String("user_id", user.ID))
		return fmt.Errorf("%w: %v", ErrEmailSendFailure, err)
	}
	s.logger.Info("test notification sent", zap.String("user_id", user.ID))
	return nil
}

func (s *NotificationService) currentUser(ctx context.Context, creds backend.Credentials) (*domain.User, string) {
	if s.users == nil || s.tables == nil {
		return nil, ErrNotConfigured.Error()
	}
	user, err := s.users.GetUser(ctx, creds)
	if err != nil {
		s.logger.Warn("get user for notifications failed", zap.Error(err))
		return nil, "could not load user"
	}
	if user == nil {
		return nil, ErrNoUser.Error()
	}
	return user, ""
}

func (s *NotificationService) load(ctx context.Context, creds backend.Credentials, userID string) (domain.NotificationSettings, error) {
	var rows []domain.NotificationSettings
	if err := s.tables.Select(ctx, creds, notificationSettingsTable, backend.Eq("user_id", userID), &rows); err != nil {
		return domain.NotificationSettings{}, err
	}
	if len(rows) == 0 {
		return domain.DefaultNotificationSettings(userID), nil
	}
	return rows[0], nil
}
