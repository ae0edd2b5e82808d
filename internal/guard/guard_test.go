package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankportal.org/internal/session"
	"bankportal.org/internal/tokenstore"
)

const storageKey = "bankToken:sid"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

// initializedStore persists claims (if any) and initializes a session from them.
func initializedStore(t *testing.T, claims jwt.MapClaims) *session.Store {
	t.Helper()
	tokens := tokenstore.NewMemory()
	if claims != nil {
		require.NoError(t, tokens.Set(context.Background(), storageKey, signed(t, claims)))
	}
	s := session.NewStore(storageKey, tokens, nil)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func employeeClaims() jwt.MapClaims {
	return jwt.MapClaims{"sub": "a@b.com", "role": "EMPLOYEE", "exp": time.Now().Add(time.Hour).Unix()}
}

func TestEmployeeTokenAuthorizedForEmployeePage(t *testing.T) {
	s := initializedStore(t, employeeClaims())
	require.Equal(t, session.RoleEmployee, s.Snapshot().Role())

	d := NewMount(Allow(session.RoleEmployee)).Evaluate(s.Snapshot())
	assert.Equal(t, Decision{State: StateAuthorized, Render: true}, d)
}

func TestEmployeeTokenForbiddenOnUserPage(t *testing.T) {
	s := initializedStore(t, employeeClaims())

	d := NewMount(Allow(session.RoleUser)).Evaluate(s.Snapshot())
	assert.Equal(t, StateForbiddenRole, d.State)
	assert.Equal(t, EmployeeDashboard, d.Redirect)
	assert.False(t, d.Render)
}

func TestUserForbiddenOnEmployeePageGoesToUserDashboard(t *testing.T) {
	s := initializedStore(t, jwt.MapClaims{"sub": "u@b.com", "exp": time.Now().Add(time.Hour).Unix()})

	d := NewMount(Allow(session.RoleEmployee)).Evaluate(s.Snapshot())
	assert.Equal(t, StateForbiddenRole, d.State)
	assert.Equal(t, UserDashboard, d.Redirect)
}

func TestLoadingUntilInitialized(t *testing.T) {
	m := NewMount(Allow(session.RoleUser))
	d := m.Evaluate(session.Snapshot{})
	assert.Equal(t, StateLoading, d.State)
	assert.Empty(t, d.Redirect)
	assert.False(t, d.Render)

	d = m.Evaluate(session.Snapshot{Initialized: true})
	assert.Equal(t, StateUnauthenticated, d.State)
	assert.Equal(t, EntryPath, d.Redirect)
}

func TestRedirectsAtMostOncePerMount(t *testing.T) {
	m := NewMount(Policy{Allowed: []session.Role{session.RoleUser}, RedirectTo: "/login"})
	empty := session.Snapshot{Initialized: true}

	first := m.Evaluate(empty)
	require.Equal(t, "/login", first.Redirect)
	for i := 0; i < 5; i++ {
		d := m.Evaluate(empty)
		assert.Equal(t, StateUnauthenticated, d.State)
		assert.Empty(t, d.Redirect)
		assert.False(t, d.Render)
	}

	// Even a later valid session does not re-render a mount that already redirected.
	id := session.Identity{Role: session.RoleUser, ExpiresAt: time.Now().Add(time.Hour)}
	d := m.Evaluate(session.Snapshot{Initialized: true, Token: "t", Identity: &id})
	assert.Equal(t, StateUnauthenticated, d.State)
	assert.False(t, d.Render)
}

func TestSessionLossReevaluatesFromLoading(t *testing.T) {
	tokens := tokenstore.NewMemory()
	claims := jwt.MapClaims{"sub": "u@b.com", "role": "USER", "exp": time.Now().Add(time.Hour).Unix()}
	require.NoError(t, tokens.Set(context.Background(), storageKey, signed(t, claims)))
	s := session.NewStore(storageKey, tokens, nil)
	require.NoError(t, s.Initialize(context.Background()))

	m := NewMount(Allow(session.RoleUser))
	require.True(t, m.Evaluate(s.Snapshot()).Render)

	s.HandleUnauthorized(context.Background())
	_, err := tokens.Get(context.Background(), storageKey)
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	d := m.Evaluate(s.Snapshot())
	assert.Equal(t, StateUnauthenticated, d.State)
	assert.Equal(t, EntryPath, d.Redirect)
	assert.Empty(t, m.Evaluate(s.Snapshot()).Redirect)
}

func TestPolicyDashboardOverride(t *testing.T) {
	p := Allow(session.RoleUser)
	p.Dashboards = map[session.Role]string{session.RoleEmployee: "/staff"}
	assert.Equal(t, "/staff", p.DashboardFor(session.RoleEmployee))
	assert.Equal(t, UserDashboard, p.DashboardFor(session.RoleUser))
}

func serveGuarded(t *testing.T, p Policy, s *session.Store) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	h := Require(p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := MountFromContext(r.Context())
		assert.True(t, ok)
		_, _ = w.Write([]byte("secret content"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/user-dashboard", nil)
	if s != nil {
		req = req.WithContext(session.ContextWithStore(req.Context(), s))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, called
}

func TestRequireRendersAuthorized(t *testing.T) {
	s := initializedStore(t, jwt.MapClaims{"sub": "u@b.com", "exp": time.Now().Add(time.Hour).Unix()})
	rec, called := serveGuarded(t, Allow(session.RoleUser), s)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret content", rec.Body.String())
}

func TestRequireRedirectHasNoBody(t *testing.T) {
	s := initializedStore(t, employeeClaims())
	rec, called := serveGuarded(t, Allow(session.RoleUser), s)
	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, EmployeeDashboard, rec.Header().Get("Location"))
	assert.Zero(t, rec.Body.Len())
}

func TestRequireUnauthenticatedRedirectsToEntry(t *testing.T) {
	s := initializedStore(t, nil)
	rec, called := serveGuarded(t, Allow(session.RoleUser), s)
	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRequireLoadingWithoutSession(t *testing.T) {
	rec, called := serveGuarded(t, Allow(session.RoleUser), nil)
	assert.False(t, called)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"loading"}`, rec.Body.String())
}

func TestRecheckAfterForcedLogout(t *testing.T) {
	s := initializedStore(t, jwt.MapClaims{"sub": "u@b.com", "exp": time.Now().Add(time.Hour).Unix()})
	var got Decision
	h := Require(Allow(session.RoleUser), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.HandleUnauthorized(r.Context())
		var ok bool
		got, ok = Recheck(r.Context())
		require.True(t, ok)
		WriteDecision(w, got)
	}))
	req := httptest.NewRequest(http.MethodGet, "/user-dashboard", nil)
	req = req.WithContext(session.ContextWithStore(req.Context(), s))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, StateUnauthenticated, got.State)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	_, ok := Recheck(context.Background())
	assert.False(t, ok)
}
