package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bankportal.org/internal/audit"
	"bankportal.org/internal/obs"
	"bankportal.org/internal/tokenstore"
	"bankportal.org/internal/validate"
)

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Store holds the session of one browser. The persisted token is the source of
// truth: it is read on every Initialize and on every outgoing backend call.
type Store struct {
	key       string
	tokens    tokenstore.Store
	auth      Authenticator
	decoder   Decoder
	now       func() time.Time
	entryPath string

	mu   sync.RWMutex
	snap Snapshot

	events *broadcaster
}

// Option configures Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDecoder sets the token decoder.
func WithDecoder(d Decoder) Option {
	return func(s *Store) { s.decoder = d }
}

// WithEntryPath sets where a forced logout sends the browser.
func WithEntryPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.entryPath = path
		}
	}
}

// NewStore builds an uninitialized session persisted under key.
func NewStore(key string, tokens tokenstore.Store, auth Authenticator, opts ...Option) *Store {
	s := &Store{
		key:       key,
		tokens:    tokens,
		auth:      auth,
		now:       time.Now,
		entryPath: "/",
		events:    newBroadcaster(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the persisted storage key.
func (s *Store) Key() string { return s.key }

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	if snap.Identity != nil {
		id := *snap.Identity
		snap.Identity = &id
	}
	return snap
}

// Subscribe delivers state changes until ctx ends.
func (s *Store) Subscribe(ctx context.Context) <-chan Event {
	return s.events.subscribe(ctx)
}

// Initialize loads the persisted token. Unreadable or expired tokens are removed.
func (s *Store) Initialize(ctx context.Context) error {
	tok, err := s.tokens.Get(ctx, s.key)
	if errors.Is(err, tokenstore.ErrNotFound) {
		s.apply(Snapshot{Initialized: true}, EventCleared, "")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read persisted token: %w", err)
	}

	if cur := s.Snapshot(); cur.Initialized && cur.Token == tok && cur.Identity != nil && !Expired(*cur.Identity, s.now()) {
		return nil
	}

	id, err := s.decoder.Identity(tok, placeholderEmail, placeholderName)
	if err == nil && Expired(id, s.now()) {
		err = ErrTokenExpired
	}
	if err != nil {
		obs.FromContext(ctx).Info().Err(err).Str("storage_key", s.key).Msg("discarding persisted token")
		if derr := s.tokens.Delete(ctx, s.key); derr != nil {
			return fmt.Errorf("delete persisted token: %w", derr)
		}
		s.apply(Snapshot{Initialized: true}, EventCleared, "")
		return nil
	}

	s.apply(Snapshot{Initialized: true, Token: tok, Identity: &id}, EventAdopted, "")
	return nil
}

// Login authenticates against the backend and adopts the issued token.
// On failure the session is left as it was.
func (s *Store) Login(ctx context.Context, creds Credentials) (Identity, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validate.Struct(creds); err != nil {
		return Identity{}, err
	}

	tok, err := s.auth.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		_ = audit.LogEvent(ctx, "session.login_failed", map[string]any{"email": creds.Email})
		return Identity{}, err
	}

	id, err := s.decoder.Identity(tok, creds.Email, creds.Email)
	if err != nil {
		return Identity{}, err
	}
	if Expired(id, s.now()) {
		return Identity{}, ErrTokenExpired
	}
	if err := s.tokens.Set(ctx, s.key, tok); err != nil {
		return Identity{}, fmt.Errorf("persist token: %w", err)
	}

	s.apply(Snapshot{Initialized: true, Token: tok, Identity: &id}, EventAdopted, "")
	_ = audit.LogEvent(audit.WithSubject(ctx, id.Subject), "session.login", map[string]any{"role": string(id.Role)})
	return id, nil
}

// Logout clears the persisted token and the in-memory session.
func (s *Store) Logout(ctx context.Context) error {
	subject := s.subject()
	if err := s.tokens.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete persisted token: %w", err)
	}
	s.apply(Snapshot{Initialized: true}, EventCleared, "")
	_ = audit.LogEvent(audit.WithSubject(ctx, subject), "session.logout", nil)
	return nil
}

// HandleUnauthorized is invoked by the gateway when the backend answers 401.
// It clears the session and announces a redirect to the entry path.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	subject := s.subject()
	if err := s.tokens.Delete(ctx, s.key); err != nil {
		obs.FromContext(ctx).Error().Err(err).Str("storage_key", s.key).Msg("forced logout: delete token failed")
	}
	s.apply(Snapshot{Initialized: true}, EventForcedOut, s.entryPath)
	obs.ObserveForcedLogout()
	_ = audit.LogEvent(audit.WithSubject(ctx, subject), "session.forced_logout", nil)
}

// BearerToken reads the persisted token for an outgoing request.
func (s *Store) BearerToken(ctx context.Context) (string, bool) {
	tok, err := s.tokens.Get(ctx, s.key)
	if err != nil || tok == "" {
		return "", false
	}
	return tok, true
}

// EntryPath is the redirect target after a forced logout.
func (s *Store) EntryPath() string { return s.entryPath }

func (s *Store) subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap.Identity == nil {
		return ""
	}
	return s.snap.Identity.Subject
}

// apply swaps the state and publishes when the authenticated view changed.
// Forced logouts are always published so open views can navigate away.
func (s *Store) apply(next Snapshot, kind EventKind, redirect string) {
	s.mu.Lock()
	prev := s.snap
	s.snap = next
	s.mu.Unlock()

	changed := prev.Authenticated() != next.Authenticated() || prev.Token != next.Token
	if !changed && kind != EventForcedOut {
		return
	}
	s.events.publish(Event{
		Kind:      kind,
		Snapshot:  next,
		Redirect:  redirect,
		Timestamp: s.now().UTC(),
	})
}
