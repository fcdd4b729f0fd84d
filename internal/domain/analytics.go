package domain

type BookingStats struct {
	TotalBookings     int `json:"total_bookings"`
	CompletedBookings int `json:"completed_bookings"`
	CancelledBookings int `json:"cancelled_bookings"`
	UniqueCustomers   int `json:"unique_customers"`
}

type MonthlyRevenue struct {
	Month        string `json:"month"`
	RevenueCents int64  `json:"revenue_cents"`
}

type TopService struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Bookings  int    `json:"bookings"`
}

// Analytics agrupa los datos del dashboard de administracion.
type Analytics struct {
	Stats       BookingStats     `json:"stats"`
	Revenue     []MonthlyRevenue `json:"revenue"`
	TopServices []TopService     `json:"top_services"`
}
