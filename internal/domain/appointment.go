package domain

import "time"

type Appointment struct {
	ID              string    `json:"id"`
	ServiceID       string    `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	StylistID       string    `json:"stylist_id"`
	CustomerID      string    `json:"customer_id"`
	Status          string    `json:"status"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// FormErrors es la bolsa campo -> mensaje que devuelven los validadores.
type FormErrors map[string]string
