package service

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"salon-booking/internal/domain"
)

const minPasswordLength = 6

// LoginForm es el formulario generico de login.
type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// StylistLoginForm es el formulario de login de especialistas. Hoy valida lo
// mismo que LoginForm pero se mantiene aparte.
type StylistLoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (f LoginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Password, validation.Required, validation.Length(minPasswordLength, 0)),
	)
}

func (f StylistLoginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required.Error("email is required"), is.Email.Error("enter a valid email")),
		validation.Field(&f.Password, validation.Required.Error("password is required"), validation.Length(minPasswordLength, 0).Error("password must be at least 6 characters")),
	)
}

// ValidateLoginForm devuelve nil si el formulario es valido.
func ValidateLoginForm(f LoginForm) domain.FormErrors {
	f.Email = normalizeEmail(f.Email)
	return formErrors(f.Validate())
}

func ValidateStylistLoginForm(f StylistLoginForm) domain.FormErrors {
	f.Email = normalizeEmail(f.Email)
	return formErrors(f.Validate())
}

func ValidateNotificationSettings(s domain.NotificationSettings) domain.FormErrors {
	return formErrors(validation.ValidateStruct(&s,
		validation.Field(&s.ReminderHours, validation.Min(0), validation.Max(168)),
	))
}

func formErrors(err error) domain.FormErrors {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return domain.FormErrors{"form": err.Error()}
	}
	out := make(domain.FormErrors, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
