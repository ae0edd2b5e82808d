package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bankportal.org/internal/audit"
	"bankportal.org/internal/bank"
	"bankportal.org/internal/gateway"
	"bankportal.org/internal/ids"
	"bankportal.org/internal/obs"
	"bankportal.org/internal/session"
	"bankportal.org/internal/views"
)

const loginSuccess = "Login successful! Redirecting..."

// withSession binds the browser's session store to the request. A missing or
// foreign cookie gets a fresh session id.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.sessions == nil {
			next.ServeHTTP(w, r)
			return
		}
		sid := ""
		if c, err := r.Cookie(a.cookieName); err == nil && ids.IsSessionID(c.Value) {
			sid = c.Value
		}
		if sid == "" {
			fresh, err := ids.NewSessionID()
			if err != nil {
				obs.FromContext(r.Context()).Error().Err(err).Msg("session id")
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			sid = fresh
			a.setSessionCookie(w, sid)
		}

		store := a.sessions.Get(sid)
		ctx := r.Context()
		if err := store.Initialize(ctx); err != nil {
			obs.FromContext(ctx).Error().Err(err).Msg("session initialize failed")
		}
		ctx = session.ContextWithStore(ctx, store)
		ctx = session.ContextWithID(ctx, sid)
		ctx = gateway.WithCredentials(ctx, store)
		if snap := store.Snapshot(); snap.Identity != nil {
			ctx = audit.WithSubject(ctx, snap.Identity.Subject)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) setSessionCookie(w http.ResponseWriter, sid string) {
	c := &http.Cookie{
		Name:     a.cookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if a.cookieMaxAge > 0 {
		c.MaxAge = int(a.cookieMaxAge.Seconds())
	}
	http.SetCookie(w, c)
}

func (a *API) currentStore(w http.ResponseWriter, r *http.Request) (*session.Store, bool) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "session unavailable")
		return nil, false
	}
	return store, true
}

// dashboardFor is where a signed-in role lands.
func (a *API) dashboardFor(role session.Role) string {
	return a.policy().DashboardFor(role)
}

// handleEntry serves the entry screen. Signed-in visitors go to their dashboard.
func (a *API) handleEntry(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != a.paths.Entry {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	store, ok := a.currentStore(w, r)
	if !ok {
		return
	}
	snap := store.Snapshot()
	if snap.Authenticated() {
		seeOther(w, a.dashboardFor(snap.Role()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app":      a.appName,
		"panels":   []string{"login", "register"},
		"login":    session.Credentials{},
		"register": bank.RegisterForm{},
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	store, ok := a.currentStore(w, r)
	if !ok {
		return
	}
	var creds session.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id, err := store.Login(r.Context(), creds)
	if err != nil {
		handleGatewayError(w, r, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  loginSuccess,
		"redirect": a.dashboardFor(id.Role),
		"user":     id,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var form bank.RegisterForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeSubmission(w, r, http.StatusCreated, views.Register(r.Context(), a.backend, form))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	store, ok := a.currentStore(w, r)
	if !ok {
		return
	}
	if err := store.Logout(r.Context()); err != nil {
		obs.FromContext(r.Context()).Error().Err(err).Msg("logout failed")
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	seeOther(w, a.paths.Entry)
}

// seeOther redirects without a body, like the page guard.
func seeOther(w http.ResponseWriter, location string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusSeeOther)
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	store, ok := a.currentStore(w, r)
	if !ok {
		return
	}
	snap := store.Snapshot()
	body := map[string]any{
		"initialized":   snap.Initialized,
		"authenticated": snap.Authenticated(),
		"user":          snap.Identity,
	}
	if snap.Authenticated() {
		body["dashboard"] = a.dashboardFor(snap.Role())
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, body)
}

// handleSessionEvents streams session changes as Server-Sent Events. A forced
// logout is followed by a redirect event naming the entry path.
func (a *API) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	store, ok := a.currentStore(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	events := store.Subscribe(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": stream started\n\n")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, open := <-events:
			if !open {
				return
			}
			if err := writeEvent(w, "session", evt); err != nil {
				obs.FromContext(ctx).Warn().Err(err).Msg("session stream write failed")
				return
			}
			if evt.Redirect != "" {
				if err := writeEvent(w, "redirect", map[string]string{"location": evt.Redirect}); err != nil {
					return
				}
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
