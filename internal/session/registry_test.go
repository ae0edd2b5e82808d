package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankportal.org/internal/tokenstore"
)

func TestRegistryReusesStorePerSession(t *testing.T) {
	reg, err := NewRegistry(4, "bank_jwt", tokenstore.NewMemory(), &fakeAuth{})
	require.NoError(t, err)

	a := reg.Get("sid-a")
	assert.Same(t, a, reg.Get("sid-a"))
	b := reg.Get("sid-b")
	assert.NotSame(t, a, b)
	assert.Equal(t, "bank_jwt:sid-a", a.Key())
	assert.Equal(t, "bank_jwt:sid-b", b.Key())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryEvictionKeepsPersistedToken(t *testing.T) {
	mem := tokenstore.NewMemory()
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}
	auth := &fakeAuth{token: mintToken(t, "k", jwt.MapClaims{"sub": "a@b.com", "exp": clock.now.Add(time.Hour).Unix()})}
	reg, err := NewRegistry(1, "bank_jwt", mem, auth, WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	first := reg.Get("sid-a")
	_, err = first.Login(ctx, Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	reg.Get("sid-b") // evicts sid-a
	rebuilt := reg.Get("sid-a")
	assert.NotSame(t, first, rebuilt)
	require.NoError(t, rebuilt.Initialize(ctx))
	assert.True(t, rebuilt.Snapshot().Authenticated())
}

func TestRegistryRejectsBadSize(t *testing.T) {
	_, err := NewRegistry(0, "bank_jwt", tokenstore.NewMemory(), &fakeAuth{})
	require.Error(t, err)
}
