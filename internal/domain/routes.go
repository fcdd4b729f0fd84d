package domain

// Destinos de navegacion que disparan los guards y gates.
const (
	HomePath             = "/"
	LoginPath            = "/login"
	AdminLoginPath       = "/admin-login"
	ProfilePath          = "/profile"
	StylistDashboardPath = "/stylist-dashboard"
)
