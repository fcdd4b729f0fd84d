package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
	"salon-booking/internal/guard"
)

type staticSource struct {
	state     IdentityState
	lastToken string
}

func (s *staticSource) Resolve(_ context.Context, token string) IdentityState {
	s.lastToken = token
	if token == "" {
		return Unauthenticated()
	}
	return s.state
}

type fakeAdminStore struct {
	admin *domain.AdminIdentity
	err   error
	calls int
}

func (s *fakeAdminStore) GetAdminIdentity(context.Context) (*domain.AdminIdentity, error) {
	s.calls++
	return s.admin, s.err
}

func (s *fakeAdminStore) RefreshSession(context.Context) (bool, error) { return true, nil }

func newGateRouter(primary, secondary Source, store guard.SessionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoadIdentities(primary, secondary))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/login", PublicRoute(), ok)
	r.GET("/me", RequireUser(), ok)
	r.DELETE("/me", RequireUser(), ok)
	factory := func(backend.Credentials) guard.SessionStore { return store }
	r.GET("/admin", LoadAdmin(factory, zap.NewNop()), AdminRoute(), ok)
	return r
}

func doRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoute_RendersForAnonymous(t *testing.T) {
	r := newGateRouter(&staticSource{state: Authenticated("u1")}, &staticSource{state: Authenticated("o1")}, nil)
	rec := doRequest(r, http.MethodGet, "/login", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPublicRoute_RedirectsWhenEitherSourceAuthenticated(t *testing.T) {
	r := newGateRouter(&staticSource{state: Unauthenticated()}, &staticSource{state: Authenticated("o1")}, nil)
	rec := doRequest(r, http.MethodGet, "/login", map[string]string{OAuthTokenHeader: "oauth-token"})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != domain.HomePath {
		t.Fatalf("expected redirect to home, got %q", loc)
	}
	if strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("expected silent redirect, got body %q", rec.Body.String())
	}
}

func TestPublicRoute_WaitsWhileSecondaryLoading(t *testing.T) {
	secondary := &staticSource{state: Loading()}
	r := newGateRouter(&staticSource{state: Unauthenticated()}, secondary, nil)
	rec := doRequest(r, http.MethodGet, "/login", map[string]string{OAuthTokenHeader: "oauth-token"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if secondary.lastToken != "oauth-token" {
		t.Fatalf("expected oauth token from header, got %q", secondary.lastToken)
	}
}

func TestRequireUser_ReadsBearerAndCookie(t *testing.T) {
	primary := &staticSource{state: Authenticated("u1")}
	r := newGateRouter(primary, nil, nil)

	rec := doRequest(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer abc"})
	if rec.Code != http.StatusOK || primary.lastToken != "abc" {
		t.Fatalf("expected 200 with bearer token, got %d token=%q", rec.Code, primary.lastToken)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || primary.lastToken != "from-cookie" {
		t.Fatalf("expected 200 with cookie token, got %d token=%q", rec.Code, primary.lastToken)
	}
}

func TestRequireUser_RedirectsToLogin(t *testing.T) {
	r := newGateRouter(&staticSource{state: Authenticated("u1")}, nil, nil)

	rec := doRequest(r, http.MethodGet, "/me", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != domain.LoginPath {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = doRequest(r, http.MethodDelete, "/me", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for non-GET redirect, got %d", rec.Code)
	}
}

func TestAdminRoute(t *testing.T) {
	tests := []struct {
		name      string
		primary   IdentityState
		store     *fakeAdminStore
		wantCode  int
		wantCalls int
	}{
		{
			name:      "admin present renders",
			primary:   Authenticated("u1"),
			store:     &fakeAdminStore{admin: &domain.AdminIdentity{ID: "a1"}},
			wantCode:  http.StatusOK,
			wantCalls: 1,
		},
		{
			name:      "no admin identity redirects",
			primary:   Authenticated("u1"),
			store:     &fakeAdminStore{},
			wantCode:  http.StatusFound,
			wantCalls: 1,
		},
		{
			name:      "lookup failure fails closed",
			primary:   Authenticated("u1"),
			store:     &fakeAdminStore{err: errors.New("timeout")},
			wantCode:  http.StatusFound,
			wantCalls: 1,
		},
		{
			name:      "anonymous skips lookup",
			primary:   Unauthenticated(),
			store:     &fakeAdminStore{admin: &domain.AdminIdentity{ID: "a1"}},
			wantCode:  http.StatusFound,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newGateRouter(&staticSource{state: tt.primary}, nil, tt.store)
			rec := doRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer tok"})
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if rec.Code == http.StatusFound && rec.Header().Get("Location") != domain.AdminLoginPath {
				t.Fatalf("expected redirect to admin login, got %q", rec.Header().Get("Location"))
			}
			if tt.store.calls != tt.wantCalls {
				t.Fatalf("expected %d lookups, got %d", tt.wantCalls, tt.store.calls)
			}
		})
	}
}

func TestGetIdentities_DefaultsWithoutLoader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	ids := GetIdentities(c)
	if ids.Primary.IsAuthenticated() || ids.Secondary.IsAuthenticated() || ids.Admin.IsAuthenticated() {
		t.Fatalf("expected unauthenticated defaults, got %+v", ids)
	}
}
