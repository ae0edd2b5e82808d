package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bankportal.org/internal/dashboard"
	"bankportal.org/internal/guard"
	"bankportal.org/internal/obs"
	"bankportal.org/internal/session"
	"bankportal.org/internal/tokenstore"
	"bankportal.org/internal/views"
)

const serviceName = "bank-portal"

// ReadyProbe reports ready while the token store answers.
type ReadyProbe struct {
	Tokens tokenstore.Store
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Tokens == nil {
		return nil
	}
	return rp.Tokens.Ping(ctx)
}

// Paths are the portal's navigation targets.
type Paths struct {
	Entry             string
	UserDashboard     string
	EmployeeDashboard string
}

func (p Paths) withDefaults() Paths {
	if p.Entry == "" {
		p.Entry = guard.EntryPath
	}
	if p.UserDashboard == "" {
		p.UserDashboard = guard.UserDashboard
	}
	if p.EmployeeDashboard == "" {
		p.EmployeeDashboard = guard.EmployeeDashboard
	}
	return p
}

// Options wires the API to the rest of the portal.
type Options struct {
	AppName     string
	Version     string
	Ready       ReadyProbe
	Sessions    *session.Registry
	Backend     views.Backend
	Features    dashboard.Features
	Paths       Paths
	MaxTransfer float64
	PerPage     int

	CookieName   string
	CookieSecure bool
	CookieMaxAge time.Duration

	RateBurst  int
	RatePerSec int
}

// API is the portal's HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	appName    string

	sessions  *session.Registry
	backend   views.Backend
	users     *dashboard.UserShell
	employees *dashboard.EmployeeShell
	paths     Paths

	maxTransfer  float64
	cookieName   string
	cookieSecure bool
	cookieMaxAge time.Duration

	rateBurst  int
	ratePerSec int
}

func New(opts Options) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   opts.Ready,
		version:      opts.Version,
		appName:      opts.AppName,
		sessions:     opts.Sessions,
		backend:      opts.Backend,
		users:        dashboard.NewUserShell(opts.Backend, opts.Features, opts.MaxTransfer),
		employees:    dashboard.NewEmployeeShell(opts.Backend, opts.Features, opts.PerPage),
		paths:        opts.Paths.withDefaults(),
		maxTransfer:  opts.MaxTransfer,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		cookieMaxAge: opts.CookieMaxAge,
		rateBurst:    opts.RateBurst,
		ratePerSec:   opts.RatePerSec,
	}
	if a.appName == "" {
		a.appName = serviceName
	}
	if a.cookieName == "" {
		a.cookieName = "portal_sid"
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 10
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// entry screen and session
	a.mux.Handle("/", a.withSession(http.HandlerFunc(a.handleEntry)))
	a.mux.Handle("/login", a.withSession(http.HandlerFunc(a.handleLogin)))
	a.mux.Handle("/register", a.withSession(http.HandlerFunc(a.handleRegister)))
	a.mux.Handle("/logout", a.withSession(http.HandlerFunc(a.handleLogout)))
	a.mux.Handle("/session", a.withSession(http.HandlerFunc(a.handleSession)))
	a.mux.Handle("/session/events", a.withSession(http.HandlerFunc(a.handleSessionEvents)))

	// customer dashboard
	userOnly := a.policy(session.RoleUser)
	a.mux.Handle(a.paths.UserDashboard, a.protect(userOnly, a.handleUserDashboard))
	a.mux.Handle(a.paths.UserDashboard+"/transfer", a.protect(userOnly, a.handleTransfer))
	a.mux.Handle(a.paths.UserDashboard+"/applications", a.protect(userOnly, a.handleApply))
	a.mux.Handle(a.paths.UserDashboard+"/notifications/{id}", a.protect(userOnly, a.handleNotification))
	a.mux.Handle(a.paths.UserDashboard+"/notifications/{id}/read", a.protect(userOnly, a.handleNotificationRead))

	// back office
	employeeOnly := a.policy(session.RoleEmployee)
	a.mux.Handle(a.paths.EmployeeDashboard, a.protect(employeeOnly, a.handleEmployeeDashboard))
	a.mux.Handle(a.paths.EmployeeDashboard+"/users", a.protect(employeeOnly, a.handleCreateUser))
	a.mux.Handle(a.paths.EmployeeDashboard+"/users/{id}/deactivate", a.protect(employeeOnly, a.handleDeactivateUser))
	a.mux.Handle(a.paths.EmployeeDashboard+"/applications/process", a.protect(employeeOnly, a.handleProcessApplication))
	a.mux.Handle(a.paths.EmployeeDashboard+"/transactions/search", a.protect(employeeOnly, a.handleSearchTransactions))

	return a
}

func (a *API) policy(roles ...session.Role) guard.Policy {
	return guard.Policy{
		Allowed:    roles,
		RedirectTo: a.paths.Entry,
		Dashboards: map[session.Role]string{
			session.RoleUser:     a.paths.UserDashboard,
			session.RoleEmployee: a.paths.EmployeeDashboard,
		},
	}
}

func (a *API) protect(p guard.Policy, h http.HandlerFunc) http.Handler {
	return a.withSession(guard.Require(p, h))
}

// Handler returns the full middleware chain around the mux. ctx bounds background
// work such as rate limiter cleanup.
func (a *API) Handler(ctx context.Context) http.Handler {
	var h http.Handler = a.mux
	h = RateLimit(ctx, h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = obs.Instrument(h)
	return otelhttp.NewHandler(h, a.appName)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    a.appName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
