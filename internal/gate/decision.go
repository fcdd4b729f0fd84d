// Package gate toma decisiones de ruteo a partir del estado de auth ya
// cargado en el request. Las decisiones son funciones puras.
package gate

import "salon-booking/internal/domain"

// Status es la etiqueta de la union por fuente de identidad.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// IdentityState es {Loading, Authenticated(handle), Unauthenticated} para
// una sola fuente. Handle solo tiene sentido con StatusAuthenticated.
type IdentityState struct {
	Status Status `json:"status"`
	Handle string `json:"-"`
}

func Loading() IdentityState { return IdentityState{Status: StatusLoading} }

func Authenticated(handle string) IdentityState {
	return IdentityState{Status: StatusAuthenticated, Handle: handle}
}

func Unauthenticated() IdentityState { return IdentityState{Status: StatusUnauthenticated} }

func (s IdentityState) IsAuthenticated() bool { return s.Status == StatusAuthenticated }
func (s IdentityState) IsLoading() bool       { return s.Status == StatusLoading }

type Action int

const (
	Render Action = iota
	Redirect
	Wait
)

func (a Action) String() string {
	switch a {
	case Redirect:
		return "redirect"
	case Wait:
		return "wait"
	default:
		return "render"
	}
}

// Decision es lo que una ruta hace con el request.
type Decision struct {
	Action   Action
	Location string
}

func redirectTo(path string) Decision { return Decision{Action: Redirect, Location: path} }

// DecideAdmin renderiza solo si hay identidad admin cargada.
func DecideAdmin(admin IdentityState) Decision {
	switch admin.Status {
	case StatusAuthenticated:
		return Decision{Action: Render}
	case StatusLoading:
		return Decision{Action: Wait}
	default:
		return redirectTo(domain.AdminLoginPath)
	}
}

// DecideUser renderiza solo si la sesion primaria esta autenticada.
func DecideUser(primary IdentityState) Decision {
	switch primary.Status {
	case StatusAuthenticated:
		return Decision{Action: Render}
	case StatusLoading:
		return Decision{Action: Wait}
	default:
		return redirectTo(domain.LoginPath)
	}
}

// DecidePublic combina las dos fuentes sin mezclarlas. Precedencia:
// autenticado > cargando > render. A diferencia de DecideAdmin y DecideUser,
// aca un Loading no espera si la otra fuente ya esta autenticada: el OR ya
// quedo resuelto y ningun resultado pendiente puede cambiar la redireccion.
// Solo con ambas no autenticadas se renderiza.
func DecidePublic(primary, secondary IdentityState) Decision {
	if primary.IsAuthenticated() || secondary.IsAuthenticated() {
		return redirectTo(domain.HomePath)
	}
	if primary.IsLoading() || secondary.IsLoading() {
		return Decision{Action: Wait}
	}
	return Decision{Action: Render}
}
