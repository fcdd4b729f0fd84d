package domain

// ServicePermissions es lo que devuelve check_service_permissions.
type ServicePermissions struct {
	CanCreate bool `json:"canCreate"`
	CanUpdate bool `json:"canUpdate"`
	CanDelete bool `json:"canDelete"`
}
