package gateway

import (
	"context"
	"net/http"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Credentials supplies the bearer token for outgoing calls and is told when the
// backend rejects it. session.Store implements it.
type Credentials interface {
	BearerToken(ctx context.Context) (string, bool)
	HandleUnauthorized(ctx context.Context)
}

type credentialsContextKey struct{}

// WithCredentials makes c the credentials for every call made with ctx.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	if c == nil {
		return ctx
	}
	return context.WithValue(ctx, credentialsContextKey{}, c)
}

func credentialsFromContext(ctx context.Context) (Credentials, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(credentialsContextKey{}).(Credentials)
	return c, ok && c != nil
}

// authTransport attaches the current bearer token to each request and runs the
// unauthorized hook before the 401 response is handed back to the caller.
type authTransport struct {
	next http.RoundTripper
}

func (t authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)
	out.Header.Del(authHeader)

	creds, ok := credentialsFromContext(ctx)
	if ok {
		if tok, present := creds.BearerToken(ctx); present {
			out.Header.Set(authHeader, bearer+tok)
		}
	}

	resp, err := t.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && ok {
		creds.HandleUnauthorized(ctx)
	}
	return resp, nil
}
