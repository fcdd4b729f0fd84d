package domain

import "time"

type NotificationSettings struct {
	UserID         string     `json:"user_id"`
	EmailEnabled   bool       `json:"email_enabled"`
	SMSEnabled     bool       `json:"sms_enabled"`
	PushEnabled    bool       `json:"push_enabled"`
	ReminderHours  int        `json:"reminder_hours"`
	MarketingOptIn bool       `json:"marketing_opt_in"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// DefaultNotificationSettings es lo que ve un usuario sin fila guardada.
func DefaultNotificationSettings(userID string) NotificationSettings {
	return NotificationSettings{
		UserID:        userID,
		EmailEnabled:  true,
		ReminderHours: 24,
	}
}
