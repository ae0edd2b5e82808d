package session

import "context"

type storeContextKey struct{}
type sessionIDContextKey struct{}

// ContextWithStore attaches the request's session store.
func ContextWithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext extracts the session store attached by ContextWithStore.
func FromContext(ctx context.Context) (*Store, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(storeContextKey{}).(*Store)
	if !ok || s == nil {
		return nil, false
	}
	return s, true
}

// ContextWithID stores the browser session id.
func ContextWithID(ctx context.Context, sid string) context.Context {
	if sid == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDContextKey{}, sid)
}

// IDFromContext returns the browser session id if one was attached.
func IDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(sessionIDContextKey{}).(string)
	return v, ok && v != ""
}
