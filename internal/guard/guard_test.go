package guard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"salon-booking/internal/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	admin     *domain.AdminIdentity
	adminErr  error
	refreshes []bool
	refreshN  atomic.Int32
	lookups   atomic.Int32
}

func (s *fakeStore) GetAdminIdentity(context.Context) (*domain.AdminIdentity, error) {
	s.lookups.Add(1)
	return s.admin, s.adminErr
}

// RefreshSession devuelve los resultados programados en orden; el ultimo se repite.
func (s *fakeStore) RefreshSession(context.Context) (bool, error) {
	n := int(s.refreshN.Add(1))
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.refreshes) == 0 {
		return true, nil
	}
	if n > len(s.refreshes) {
		return s.refreshes[len(s.refreshes)-1], nil
	}
	return s.refreshes[n-1], nil
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newRecordingNavigator() *recordingNavigator {
	return &recordingNavigator{ch: make(chan string, 16)}
}

func (n *recordingNavigator) Navigate(to string) {
	n.mu.Lock()
	n.paths = append(n.paths, to)
	n.mu.Unlock()
	n.ch <- to
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.paths)
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) factory(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() { m.stopped.Store(true) }
}

// tick entrega un tick y falla si nadie lo recibe a tiempo.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatalf("refresh loop did not receive tick")
	}
}

// tryTick intenta entregar un tick sin bloquear mucho.
func (m *manualTicker) tryTick() bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-time.After(20 * time.Millisecond):
		return false
	}
}

func TestCheckAuthorization_NotRequiredAuthorizesWithoutLookup(t *testing.T) {
	store := &fakeStore{}
	nav := newRecordingNavigator()
	g := New(store, nav)

	if d := g.CheckAuthorization(context.Background(), false); d != Authorized {
		t.Fatalf("expected authorized, got %s", d)
	}
	if store.lookups.Load() != 0 {
		t.Fatalf("expected no session lookup")
	}
	if nav.count() != 0 {
		t.Fatalf("expected no navigation")
	}
}

func TestCheckAuthorization_InitialStateUnknown(t *testing.T) {
	g := New(&fakeStore{}, nil)
	if g.Decision() != Unknown {
		t.Fatalf("expected unknown before first check, got %s", g.Decision())
	}
}

func TestCheckAuthorization_AdminPresent(t *testing.T) {
	store := &fakeStore{admin: &domain.AdminIdentity{ID: "a1"}}
	nav := newRecordingNavigator()
	g := New(store, nav)

	if d := g.CheckAuthorization(context.Background(), true); d != Authorized {
		t.Fatalf("expected authorized, got %s", d)
	}
	session, ok := g.Session()
	if !ok || session.Identity.ID != "a1" || !session.IsValid() {
		t.Fatalf("unexpected session %+v", session)
	}
	if nav.count() != 0 {
		t.Fatalf("expected no navigation")
	}
}

func TestCheckAuthorization_NavigatesOncePerFailedCheck(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{name: "no admin identity", store: &fakeStore{}},
		{name: "lookup error", store: &fakeStore{adminErr: errors.New("network down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := newRecordingNavigator()
			g := New(tt.store, nav)
			for i := 1; i <= 3; i++ {
				if d := g.CheckAuthorization(context.Background(), true); d != Unauthorized {
					t.Fatalf("check %d: expected unauthorized, got %s", i, d)
				}
				if nav.count() != i {
					t.Fatalf("check %d: expected %d navigations, got %d", i, i, nav.count())
				}
			}
			for _, p := range nav.paths {
				if p != domain.AdminLoginPath {
					t.Fatalf("unexpected navigation target %q", p)
				}
			}
		})
	}
}

func TestCheckAuthorization_UnauthorizedIsTerminal(t *testing.T) {
	store := &fakeStore{}
	g := New(store, newRecordingNavigator())
	g.CheckAuthorization(context.Background(), true)

	store.admin = &domain.AdminIdentity{ID: "a1"}
	if d := g.CheckAuthorization(context.Background(), true); d != Unauthorized {
		t.Fatalf("expected guard to stay unauthorized, got %s", d)
	}
}

func TestMount_RefreshFailureNavigatesBeforeNextTick(t *testing.T) {
	store := &fakeStore{
		admin:     &domain.AdminIdentity{ID: "a1"},
		refreshes: []bool{true, false},
	}
	nav := newRecordingNavigator()
	ticker := newManualTicker()
	var refreshed atomic.Int32
	g := New(store, nav,
		WithTicker(ticker.factory),
		WithOnRefresh(func(domain.AdminSession) { refreshed.Add(1) }),
	)
	defer g.Unmount()

	if d := g.Mount(context.Background(), true); d != Authorized {
		t.Fatalf("expected authorized, got %s", d)
	}

	ticker.tick(t)
	ticker.tick(t)

	select {
	case to := <-nav.ch:
		if to != domain.AdminLoginPath {
			t.Fatalf("unexpected navigation target %q", to)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected navigation after failed refresh")
	}

	if g.Decision() != Unauthorized {
		t.Fatalf("expected unauthorized, got %s", g.Decision())
	}
	if ticker.tryTick() {
		t.Fatalf("refresh loop should stop after failure")
	}
	if got := store.refreshN.Load(); got != 2 {
		t.Fatalf("expected 2 refresh calls, got %d", got)
	}
	if refreshed.Load() != 1 {
		t.Fatalf("expected 1 successful refresh callback, got %d", refreshed.Load())
	}
	if session, _ := g.Session(); session.IsValid() {
		t.Fatalf("expected session invalidated")
	}
}

func TestMount_RefreshErrorFailsClosed(t *testing.T) {
	store := &errRefreshStore{fakeStore: fakeStore{admin: &domain.AdminIdentity{ID: "a1"}}}
	nav := newRecordingNavigator()
	ticker := newManualTicker()
	g := New(store, nav, WithTicker(ticker.factory))
	defer g.Unmount()

	g.Mount(context.Background(), true)
	ticker.tick(t)

	select {
	case <-nav.ch:
	case <-time.After(time.Second):
		t.Fatalf("expected navigation after refresh error")
	}
	if g.Decision() != Unauthorized {
		t.Fatalf("expected unauthorized, got %s", g.Decision())
	}
}

type errRefreshStore struct {
	fakeStore
}

func (s *errRefreshStore) RefreshSession(context.Context) (bool, error) {
	s.refreshN.Add(1)
	return true, errors.New("provider unavailable")
}

func TestUnmount_StopsRefreshCalls(t *testing.T) {
	store := &fakeStore{admin: &domain.AdminIdentity{ID: "a1"}}
	nav := newRecordingNavigator()
	ticker := newManualTicker()
	g := New(store, nav, WithTicker(ticker.factory))

	g.Mount(context.Background(), true)
	ticker.tick(t)

	g.Unmount()
	before := store.refreshN.Load()

	for i := 0; i < 3; i++ {
		if ticker.tryTick() {
			t.Fatalf("tick delivered after unmount")
		}
	}
	if got := store.refreshN.Load(); got != before {
		t.Fatalf("refresh called after unmount: before=%d after=%d", before, got)
	}
	if !ticker.stopped.Load() {
		t.Fatalf("expected ticker to be stopped")
	}
	if nav.count() != 0 {
		t.Fatalf("expected no navigation on unmount")
	}
}

func TestMount_ContextCancelActsAsUnmount(t *testing.T) {
	store := &fakeStore{admin: &domain.AdminIdentity{ID: "a1"}}
	ticker := newManualTicker()
	g := New(store, newRecordingNavigator(), WithTicker(ticker.factory))

	ctx, cancel := context.WithCancel(context.Background())
	g.Mount(ctx, true)
	cancel()
	g.Unmount()

	if ticker.tryTick() {
		t.Fatalf("tick delivered after context cancel")
	}
	if store.refreshN.Load() != 0 {
		t.Fatalf("expected no refresh calls")
	}
}

func TestMount_NoRefreshWhenNotRequired(t *testing.T) {
	store := &fakeStore{}
	ticker := newManualTicker()
	g := New(store, newRecordingNavigator(), WithTicker(ticker.factory))
	defer g.Unmount()

	if d := g.Mount(context.Background(), false); d != Authorized {
		t.Fatalf("expected authorized, got %s", d)
	}
	if ticker.tryTick() {
		t.Fatalf("no refresh loop expected when admin is not required")
	}
}

func TestMount_UnauthorizedDoesNotStartRefresh(t *testing.T) {
	store := &fakeStore{}
	nav := newRecordingNavigator()
	ticker := newManualTicker()
	g := New(store, nav, WithTicker(ticker.factory))
	defer g.Unmount()

	if d := g.Mount(context.Background(), true); d != Unauthorized {
		t.Fatalf("expected unauthorized, got %s", d)
	}
	if nav.count() != 1 {
		t.Fatalf("expected 1 navigation, got %d", nav.count())
	}
	if ticker.tryTick() {
		t.Fatalf("no refresh loop expected for unauthorized guard")
	}
}
