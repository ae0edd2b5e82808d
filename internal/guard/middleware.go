package guard

import (
	"context"
	"net/http"

	"bankportal.org/internal/session"
)

type mountContextKey struct{}

// ContextWithMount attaches the mount guarding the current request.
func ContextWithMount(ctx context.Context, m *Mount) context.Context {
	return context.WithValue(ctx, mountContextKey{}, m)
}

// MountFromContext returns the mount attached by Require.
func MountFromContext(ctx context.Context) (*Mount, bool) {
	if ctx == nil {
		return nil, false
	}
	m, ok := ctx.Value(mountContextKey{}).(*Mount)
	return m, ok && m != nil
}

// Require guards next with p. The session store must already be bound to the
// request context; without one the page stays in LOADING.
func Require(p Policy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := NewMount(p)
		var snap session.Snapshot
		if store, ok := session.FromContext(r.Context()); ok {
			snap = store.Snapshot()
		}
		d := m.Evaluate(snap)
		if !d.Render {
			WriteDecision(w, d)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithMount(r.Context(), m)))
	})
}

// Recheck re-evaluates the request's mount against the current session, e.g.
// after a backend call may have forced a logout. ok is false outside Require.
func Recheck(ctx context.Context) (Decision, bool) {
	m, ok := MountFromContext(ctx)
	if !ok {
		return Decision{}, false
	}
	var snap session.Snapshot
	if store, found := session.FromContext(ctx); found {
		snap = store.Snapshot()
	}
	return m.Evaluate(snap), true
}

// WriteDecision renders a non-authorized decision. Redirects carry no body so
// nothing protected can leak before navigation.
func WriteDecision(w http.ResponseWriter, d Decision) {
	w.Header().Set("Cache-Control", "no-store")
	switch {
	case d.Redirect != "":
		w.Header().Set("Location", d.Redirect)
		w.WriteHeader(http.StatusSeeOther)
	case d.State == StateLoading:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"loading"}` + "\n"))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
