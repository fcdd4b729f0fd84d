package service

import "errors"

var (
	ErrNotConfigured         = errors.New("service not configured")
	ErrNoUser                = errors.New("no authenticated user")
	ErrInvalidServiceID      = errors.New("invalid service id")
	ErrServiceNotFound       = errors.New("service not found")
	ErrRateLimited           = errors.New("rate limited")
	ErrNotificationsDisabled = errors.New("email notifications disabled")
	ErrEmailSendFailure      = errors.New("email send failed")
)
