// Package guard decide si el actor actual puede ver vistas de administracion
// y mantiene viva la sesion mientras la vista siga montada.
package guard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"salon-booking/internal/domain"
)

// DefaultRefreshInterval es la cadencia de revalidacion de la sesion admin.
const DefaultRefreshInterval = 30 * time.Minute

// Decision es el resultado tri-estado del guard.
type Decision int

const (
	// Unknown es el estado inicial: no renderizar nada todavia.
	Unknown Decision = iota
	Authorized
	Unauthorized
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// SessionStore es la sesion del proveedor de auth vista por el guard.
type SessionStore interface {
	GetAdminIdentity(ctx context.Context) (*domain.AdminIdentity, error)
	RefreshSession(ctx context.Context) (bool, error)
}

// Navigator ejecuta el efecto de navegacion (redirect, evento SSE, etc).
type Navigator interface {
	Navigate(to string)
}

// NavigatorFunc adapta una funcion a Navigator.
type NavigatorFunc func(to string)

func (f NavigatorFunc) Navigate(to string) {
	if f != nil {
		f(to)
	}
}

// TickerFunc crea el reloj del refresh periodico. Devuelve el canal de ticks
// y la funcion que lo detiene.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Option func(*AdminGuard)

func WithInterval(d time.Duration) Option {
	return func(g *AdminGuard) {
		if d > 0 {
			g.interval = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *AdminGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithTicker reemplaza el reloj (tests).
func WithTicker(fn TickerFunc) Option {
	return func(g *AdminGuard) {
		if fn != nil {
			g.ticker = fn
		}
	}
}

// WithOnRefresh registra un callback para cada refresh exitoso.
func WithOnRefresh(fn func(domain.AdminSession)) Option {
	return func(g *AdminGuard) {
		g.onRefresh = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *AdminGuard) {
		if now != nil {
			g.now = now
		}
	}
}

// AdminGuard es la maquina de estados Unknown -> Authorized | Unauthorized,
// Authorized -> Unauthorized. Unauthorized es terminal hasta un nuevo montaje.
type AdminGuard struct {
	store     SessionStore
	nav       Navigator
	logger    *zap.Logger
	interval  time.Duration
	ticker    TickerFunc
	onRefresh func(domain.AdminSession)
	now       func() time.Time

	mu        sync.Mutex
	decision  Decision
	session   domain.AdminSession
	cancel    context.CancelFunc
	unmounted bool
	wg        sync.WaitGroup
}

func New(store SessionStore, nav Navigator, opts ...Option) *AdminGuard {
	g := &AdminGuard{
		store:    store,
		nav:      nav,
		logger:   zap.NewNop(),
		interval: DefaultRefreshInterval,
		ticker:   realTicker,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decision devuelve el estado actual.
func (g *AdminGuard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Session devuelve la sesion admin observada, si alguna vez fue autorizada.
func (g *AdminGuard) Session() (domain.AdminSession, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session, g.session.Identity.ID != ""
}

// CheckAuthorization consulta al Session Store. Cualquier error o la
// ausencia de identidad admin se tratan como Unauthorized y disparan la
// navegacion al login, una vez por chequeo fallido.
func (g *AdminGuard) CheckAuthorization(ctx context.Context, requireAdmin bool) Decision {
	if !requireAdmin {
		g.mu.Lock()
		if g.decision == Unknown {
			g.decision = Authorized
		}
		g.mu.Unlock()
		return Authorized
	}

	g.mu.Lock()
	if g.decision == Unauthorized {
		g.mu.Unlock()
		g.navigate()
		return Unauthorized
	}
	g.mu.Unlock()

	var (
		admin *domain.AdminIdentity
		err   error
	)
	if g.store != nil {
		admin, err = g.store.GetAdminIdentity(ctx)
	}

	g.mu.Lock()
	if g.unmounted {
		d := g.decision
		g.mu.Unlock()
		return d
	}
	if g.decision == Unauthorized {
		// un refresh fallo mientras esperabamos; ya navego.
		g.mu.Unlock()
		return Unauthorized
	}
	if err != nil || admin == nil {
		g.decision = Unauthorized
		g.session.Invalidated = true
		g.mu.Unlock()
		if err != nil {
			g.logger.Warn("admin identity check failed", zap.Error(err))
		} else {
			g.logger.Info("no admin identity for session")
		}
		g.navigate()
		return Unauthorized
	}
	g.decision = Authorized
	g.session = domain.AdminSession{
		Identity:    *admin,
		ValidatedAt: g.now(),
	}
	g.mu.Unlock()
	return Authorized
}

// Mount hace el primer chequeo y, si requireAdmin y quedo autorizado, arranca
// el refresh periodico atado a ctx. Cancelar ctx equivale a Unmount.
func (g *AdminGuard) Mount(ctx context.Context, requireAdmin bool) Decision {
	d := g.CheckAuthorization(ctx, requireAdmin)
	if !requireAdmin || d != Authorized {
		return d
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unmounted || g.cancel != nil || g.decision != Authorized {
		return g.decision
	}
	loopCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	tick, stop := g.ticker(g.interval)
	g.wg.Add(1)
	go g.refreshLoop(loopCtx, tick, stop)
	return Authorized
}

// Unmount cancela el refresh y espera a que termine. Despues de que retorna
// no hay mas llamadas a RefreshSession.
func (g *AdminGuard) Unmount() {
	g.mu.Lock()
	g.unmounted = true
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	g.wg.Wait()
}

func (g *AdminGuard) refreshLoop(ctx context.Context, tick <-chan time.Time, stop func()) {
	defer g.wg.Done()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		}
		if ctx.Err() != nil {
			return
		}

		ok, err := g.store.RefreshSession(ctx)
		if ctx.Err() != nil {
			// desmontado durante la llamada: el resultado se descarta.
			return
		}

		if err == nil && ok {
			g.mu.Lock()
			g.session.ValidatedAt = g.now()
			g.session.RefreshCount++
			snapshot := g.session
			g.mu.Unlock()
			g.logger.Debug("admin session refreshed", zap.Int("refresh_count", snapshot.RefreshCount))
			if g.onRefresh != nil {
				g.onRefresh(snapshot)
			}
			continue
		}

		g.mu.Lock()
		if g.unmounted {
			g.mu.Unlock()
			return
		}
		g.decision = Unauthorized
		g.session.Invalidated = true
		g.mu.Unlock()

		if err != nil {
			g.logger.Warn("admin session refresh failed", zap.Error(err))
		} else {
			g.logger.Info("admin session no longer valid")
		}
		g.navigate()
		return
	}
}

func (g *AdminGuard) navigate() {
	if g.nav != nil {
		g.nav.Navigate(domain.AdminLoginPath)
	}
}
