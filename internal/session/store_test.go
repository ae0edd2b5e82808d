package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankportal.org/internal/tokenstore"
	"bankportal.org/internal/validate"
)

const testKey = "bank_jwt:sid-1"

type fakeAuth struct {
	token string
	err   error
	calls int
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, error) {
	f.calls++
	return f.token, f.err
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T, auth Authenticator) (*Store, *tokenstore.Memory, *fixedClock) {
	t.Helper()
	mem := tokenstore.NewMemory()
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}
	s := NewStore(testKey, mem, auth, WithClock(clock.Now), WithEntryPath("/"))
	return s, mem, clock
}

func tokenFor(t *testing.T, clock *fixedClock, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = clock.now.Add(time.Hour).Unix()
	}
	return mintToken(t, "backend-secret", claims)
}

func TestInitializeWithoutPersistedToken(t *testing.T) {
	s, _, _ := newTestStore(t, &fakeAuth{})
	assert.False(t, s.Snapshot().Initialized)

	require.NoError(t, s.Initialize(context.Background()))
	snap := s.Snapshot()
	assert.True(t, snap.Initialized)
	assert.False(t, snap.Authenticated())
	assert.Nil(t, snap.Identity)
}

func TestInitializeAdoptsValidToken(t *testing.T) {
	s, mem, clock := newTestStore(t, &fakeAuth{})
	tok := tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com", "role": "EMPLOYEE"})
	require.NoError(t, mem.Set(context.Background(), testKey, tok))

	require.NoError(t, s.Initialize(context.Background()))
	snap := s.Snapshot()
	require.True(t, snap.Authenticated())
	assert.Equal(t, tok, snap.Token)
	assert.Equal(t, RoleEmployee, snap.Identity.Role)
	assert.Equal(t, "a@b.com", snap.Identity.Email)
	assert.Equal(t, placeholderName, snap.Identity.DisplayName)
}

func TestInitializeDiscardsUnusableTokens(t *testing.T) {
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}
	cases := map[string]string{
		"expired":     tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com", "exp": clock.now.Add(-time.Minute).Unix()}),
		"exp is now":  tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com", "exp": clock.now.Unix()}),
		"no exp":      rawToken(`{"sub":"a@b.com"}`),
		"malformed":   "not-a-token",
		"bad payload": "a.b.c",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			mem := tokenstore.NewMemory()
			s := NewStore(testKey, mem, &fakeAuth{}, WithClock(clock.Now))
			require.NoError(t, mem.Set(context.Background(), testKey, tok))

			require.NoError(t, s.Initialize(context.Background()))
			snap := s.Snapshot()
			assert.True(t, snap.Initialized)
			assert.False(t, snap.Authenticated())

			_, err := mem.Get(context.Background(), testKey)
			assert.ErrorIs(t, err, tokenstore.ErrNotFound, "persisted token must be removed")
		})
	}
}

func TestInitializeNoticesExternalRemoval(t *testing.T) {
	s, mem, clock := newTestStore(t, &fakeAuth{})
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, testKey, tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com"})))
	require.NoError(t, s.Initialize(ctx))
	require.True(t, s.Snapshot().Authenticated())

	require.NoError(t, mem.Delete(ctx, testKey))
	require.NoError(t, s.Initialize(ctx))
	assert.False(t, s.Snapshot().Authenticated())
}

func TestInitializeExpiresInMemorySession(t *testing.T) {
	s, mem, clock := newTestStore(t, &fakeAuth{})
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, testKey, tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com"})))
	require.NoError(t, s.Initialize(ctx))

	clock.now = clock.now.Add(2 * time.Hour)
	require.NoError(t, s.Initialize(ctx))
	assert.False(t, s.Snapshot().Authenticated())
}

func TestLoginSuccess(t *testing.T) {
	auth := &fakeAuth{}
	s, mem, clock := newTestStore(t, auth)
	auth.token = tokenFor(t, clock, jwt.MapClaims{"role": "USER"})

	id, err := s.Login(context.Background(), Credentials{Email: " jane@bank.test ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jane@bank.test", id.Subject, "subject falls back to the login email")
	assert.Equal(t, "jane@bank.test", id.DisplayName)
	assert.Equal(t, RoleUser, id.Role)

	persisted, err := mem.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, auth.token, persisted)
	assert.True(t, s.Snapshot().Authenticated())
}

func TestLoginReplacesPreviousIdentity(t *testing.T) {
	auth := &fakeAuth{}
	s, _, clock := newTestStore(t, auth)
	ctx := context.Background()

	auth.token = tokenFor(t, clock, jwt.MapClaims{"sub": "first@bank.test"})
	_, err := s.Login(ctx, Credentials{Email: "first@bank.test", Password: "pw"})
	require.NoError(t, err)

	auth.token = tokenFor(t, clock, jwt.MapClaims{"sub": "second@bank.test", "role": "EMPLOYEE"})
	_, err = s.Login(ctx, Credentials{Email: "second@bank.test", Password: "pw"})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "second@bank.test", snap.Identity.Subject)
	assert.Equal(t, RoleEmployee, snap.Identity.Role)
}

func TestLoginFailures(t *testing.T) {
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}
	backendErr := errors.New("invalid credentials")

	cases := []struct {
		name      string
		auth      *fakeAuth
		creds     Credentials
		wantErr   error
		wantCalls int
	}{
		{"backend rejects", &fakeAuth{err: backendErr}, Credentials{Email: "a@b.com", Password: "x"}, backendErr, 1},
		{"undecodable token", &fakeAuth{token: "garbage"}, Credentials{Email: "a@b.com", Password: "x"}, ErrMalformedToken, 1},
		{"already expired", &fakeAuth{token: tokenFor(t, clock, jwt.MapClaims{"exp": clock.now.Add(-time.Second).Unix()})}, Credentials{Email: "a@b.com", Password: "x"}, ErrTokenExpired, 1},
		{"missing password", &fakeAuth{}, Credentials{Email: "a@b.com"}, validate.ErrInvalidInput, 0},
		{"missing email", &fakeAuth{}, Credentials{Email: "  ", Password: "x"}, validate.ErrInvalidInput, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := tokenstore.NewMemory()
			s := NewStore(testKey, mem, tc.auth, WithClock(clock.Now))
			require.NoError(t, s.Initialize(context.Background()))

			_, err := s.Login(context.Background(), tc.creds)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantCalls, tc.auth.calls)
			assert.False(t, s.Snapshot().Authenticated())

			_, err = mem.Get(context.Background(), testKey)
			assert.ErrorIs(t, err, tokenstore.ErrNotFound)
		})
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	auth := &fakeAuth{}
	s, mem, clock := newTestStore(t, auth)
	auth.token = tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com"})
	ctx := context.Background()
	_, err := s.Login(ctx, Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.Snapshot().Authenticated())
	_, err = mem.Get(ctx, testKey)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)

	_, ok := s.BearerToken(ctx)
	assert.False(t, ok)
}

func TestHandleUnauthorizedPublishesRedirect(t *testing.T) {
	auth := &fakeAuth{}
	s, mem, clock := newTestStore(t, auth)
	auth.token = tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := s.Login(ctx, Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	events := s.Subscribe(ctx)
	s.HandleUnauthorized(ctx)

	select {
	case evt := <-events:
		assert.Equal(t, EventForcedOut, evt.Kind)
		assert.Equal(t, "/", evt.Redirect)
		assert.False(t, evt.Snapshot.Authenticated())
	case <-time.After(time.Second):
		t.Fatal("expected forced logout event")
	}
	_, err = mem.Get(ctx, testKey)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestBearerTokenReadsPersistedValue(t *testing.T) {
	s, mem, _ := newTestStore(t, &fakeAuth{})
	ctx := context.Background()

	_, ok := s.BearerToken(ctx)
	assert.False(t, ok)

	// Present in storage before Initialize ever ran.
	require.NoError(t, mem.Set(ctx, testKey, "opaque"))
	tok, ok := s.BearerToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "opaque", tok)
}

func TestSubscribeReceivesLogin(t *testing.T) {
	auth := &fakeAuth{}
	s, _, clock := newTestStore(t, auth)
	auth.token = tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com"})
	ctx, cancel := context.WithCancel(context.Background())

	events := s.Subscribe(ctx)
	_, err := s.Login(ctx, Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	evt := <-events
	assert.Equal(t, EventAdopted, evt.Kind)
	assert.True(t, evt.Snapshot.Authenticated())

	cancel()
	require.Eventually(t, func() bool { return s.events.count() == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-events
	assert.False(t, open)
}

func TestSnapshotIsACopy(t *testing.T) {
	auth := &fakeAuth{}
	s, _, clock := newTestStore(t, auth)
	auth.token = tokenFor(t, clock, jwt.MapClaims{"sub": "a@b.com"})
	_, err := s.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Identity.Role = RoleEmployee
	assert.Equal(t, RoleUser, s.Snapshot().Identity.Role)
}
