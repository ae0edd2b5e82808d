// Package guard decides whether a protected page may render for the current session.
package guard

import (
	"slices"
	"sync"

	"bankportal.org/internal/obs"
	"bankportal.org/internal/session"
)

// State of one guarded mount.
type State string

const (
	StateLoading         State = "LOADING"
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateForbiddenRole   State = "FORBIDDEN_ROLE"
	StateAuthorized      State = "AUTHORIZED"
)

const (
	UserDashboard     = "/user-dashboard"
	EmployeeDashboard = "/employee-dashboard"
	EntryPath         = "/"
)

// Policy is the allow-list of a protected page and where rejected callers go.
type Policy struct {
	Allowed    []session.Role
	RedirectTo string
	Dashboards map[session.Role]string
}

// Allow returns a policy admitting roles, with default redirect targets.
func Allow(roles ...session.Role) Policy {
	return Policy{Allowed: roles, RedirectTo: EntryPath}
}

func (p Policy) allows(r session.Role) bool {
	return slices.Contains(p.Allowed, r)
}

func (p Policy) entry() string {
	if p.RedirectTo == "" {
		return EntryPath
	}
	return p.RedirectTo
}

// DashboardFor is the landing page of role under p.
func (p Policy) DashboardFor(r session.Role) string {
	if d, ok := p.Dashboards[r]; ok && d != "" {
		return d
	}
	return DashboardFor(r)
}

// DashboardFor maps a role to its default dashboard.
func DashboardFor(r session.Role) string {
	if r == session.RoleEmployee {
		return EmployeeDashboard
	}
	return UserDashboard
}

// Decision is the outcome of one evaluation. Redirect is set only on the
// evaluation that first reached a redirecting state.
type Decision struct {
	State    State
	Redirect string
	Render   bool
}

// Mount is one guarded render of a page. It redirects at most once.
type Mount struct {
	policy Policy

	mu         sync.Mutex
	state      State
	redirected bool
}

func NewMount(p Policy) *Mount {
	return &Mount{policy: p, state: StateLoading}
}

// State returns the last evaluated state.
func (m *Mount) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Evaluate applies snap to the mount.
func (m *Mount) Evaluate(snap session.Snapshot) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.evaluate(snap)
	obs.ObserveGuard(string(d.State))
	return d
}

func (m *Mount) evaluate(snap session.Snapshot) Decision {
	if m.redirected {
		return Decision{State: m.state}
	}
	if m.state == StateAuthorized && !snap.Authenticated() {
		m.state = StateLoading
	}
	if !snap.Initialized {
		m.state = StateLoading
		return Decision{State: StateLoading}
	}

	switch {
	case !snap.Authenticated():
		m.state = StateUnauthenticated
		m.redirected = true
		return Decision{State: m.state, Redirect: m.policy.entry()}
	case !m.policy.allows(snap.Role()):
		m.state = StateForbiddenRole
		m.redirected = true
		return Decision{State: m.state, Redirect: m.policy.DashboardFor(snap.Role())}
	default:
		m.state = StateAuthorized
		return Decision{State: m.state, Render: true}
	}
}
