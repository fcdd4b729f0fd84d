package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
)

const upcomingLimit = 50

type AppointmentRepository interface {
	ListUpcomingByCustomer(ctx context.Context, creds backend.Credentials, customerID string, from time.Time) ([]domain.Appointment, error)
}

type PgAppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgAppointmentRepository(pool *pgxpool.Pool) *PgAppointmentRepository {
	return &PgAppointmentRepository{pool: pool}
}

// ListUpcomingByCustomer lee directo de Postgres; creds no se usa porque el
// pool ya corre con el rol del servicio.
func (r *PgAppointmentRepository) ListUpcomingByCustomer(ctx context.Context, _ backend.Credentials, customerID string, from time.Time) ([]domain.Appointment, error) {
	const query = `
		SELECT a.id, a.service_id, COALESCE(s.name, ''), a.stylist_id, a.customer_id,
		       a.status, a.starts_at, a.duration_minutes, a.price_cents, a.notes, a.created_at
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		WHERE a.customer_id = $1 AND a.starts_at >= $2 AND a.status <> 'cancelled'
		ORDER BY a.starts_at ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, customerID, from, upcomingLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []domain.Appointment{}
	for rows.Next() {
		var appt domain.Appointment
		var notes *string

		err = rows.Scan(
			&appt.ID,
			&appt.ServiceID,
			&appt.ServiceName,
			&appt.StylistID,
			&appt.CustomerID,
			&appt.Status,
			&appt.StartsAt,
			&appt.DurationMinutes,
			&appt.PriceCents,
			&notes,
			&appt.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if notes != nil {
			appt.Notes = *notes
		}
		appointments = append(appointments, appt)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

// BackendAppointmentRepository lee la misma tabla via la API REST del
// backend, con las politicas de fila del usuario. Se usa sin DATABASE_URL.
type BackendAppointmentRepository struct {
	tables backend.Tables
}

func NewBackendAppointmentRepository(tables backend.Tables) *BackendAppointmentRepository {
	return &BackendAppointmentRepository{tables: tables}
}

func (r *BackendAppointmentRepository) ListUpcomingByCustomer(ctx context.Context, creds backend.Credentials, customerID string, from time.Time) ([]domain.Appointment, error) {
	filters := backend.Eq("customer_id", customerID)
	filters.Set("starts_at", "gte."+from.UTC().Format(time.RFC3339))
	filters.Set("status", "neq.cancelled")
	filters.Set("order", "starts_at.asc")
	filters.Set("limit", strconv.Itoa(upcomingLimit))
	filters.Set("select", "*,service:services(name)")

	var rows []struct {
		domain.Appointment
		Service *struct {
			Name string `json:"name"`
		} `json:"service"`
	}
	if err := r.tables.Select(ctx, creds, "appointments", filters, &rows); err != nil {
		return nil, err
	}
	appointments := make([]domain.Appointment, 0, len(rows))
	for _, row := range rows {
		appt := row.Appointment
		if row.Service != nil {
			appt.ServiceName = row.Service.Name
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}
