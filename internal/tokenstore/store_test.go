package tokenstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankportal.org/internal/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "bank_jwt:abc")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "bank_jwt:abc", "tok-1"))
	got, err := s.Get(ctx, "bank_jwt:abc")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, s.Set(ctx, "bank_jwt:abc", "tok-2"))
	got, err = s.Get(ctx, "bank_jwt:abc")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got, "last write wins")

	_, err = s.Get(ctx, "bank_jwt:other")
	require.ErrorIs(t, err, ErrNotFound, "keys are isolated")

	require.NoError(t, s.Delete(ctx, "bank_jwt:abc"))
	_, err = s.Get(ctx, "bank_jwt:abc")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, "bank_jwt:abc"), "deleting twice is fine")

	require.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	// Survives a new instance over the same directory.
	require.NoError(t, s.Set(context.Background(), "../escape", "tok"))
	reopened, err := NewFile(dir)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), "../escape")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
}

func TestFileStoreRequiresDir(t *testing.T) {
	_, err := NewFile(" ")
	require.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(client, WithTTL(time.Minute), WithPrefix("test:"))
	defer s.Close()

	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("test:k"))
	assert.Equal(t, time.Minute, mr.TTL("test:k"))

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`select token from portal_tokens where storage_key = $1`)).
		WithArgs("bank_jwt:abc").
		WillReturnError(sql.ErrNoRows)
	_, err = s.Get(ctx, "bank_jwt:abc")
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta(`insert into portal_tokens(storage_key, token, updated_at)`)).
		WithArgs("bank_jwt:abc", "tok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Set(ctx, "bank_jwt:abc", "tok"))

	mock.ExpectQuery(regexp.QuoteMeta(`select token from portal_tokens where storage_key = $1`)).
		WithArgs("bank_jwt:abc").
		WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("tok"))
	got, err := s.Get(ctx, "bank_jwt:abc")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	mock.ExpectExec(regexp.QuoteMeta(`delete from portal_tokens where storage_key = $1`)).
		WithArgs("bank_jwt:abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete(ctx, "bank_jwt:abc"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenMemoryAndUnknown(t *testing.T) {
	s, err := Open(context.Background(), config.TokenStore{Kind: config.StoreMemory}, 0)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(context.Background(), config.TokenStore{Kind: "etcd"}, 0)
	require.Error(t, err)
}

func TestOpenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := Open(context.Background(), config.TokenStore{Kind: config.StoreRedis, RedisAddr: mr.Addr()}, time.Hour)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(context.Background(), "k", "v"))
	assert.Equal(t, time.Hour, mr.TTL(defaultRedisPrefix+"k"))
}
