package identity_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const testSigningKey = "test-signing-key"

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, identity.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newTestRepo(t *testing.T) identity.RepositoryManager {
	t.Helper()
	return identity.NewRepositoryManager(newTestDB(t))
}

func registerTestUser(t *testing.T, repo identity.RepositoryManager, username, email, mobile string) *identity.User {
	t.Helper()

	handler := identity.NewRegisterUserHandler(repo)
	user, err := handler.Execute(context.Background(), identity.RegisterUserMessage{
		Username:     username,
		Email:        email,
		MobileNumber: mobile,
		Password:     "secretPassword123",
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	return user
}

func newTestTokenService(accessTTL, refreshTTL time.Duration) identity.TokenService {
	return identity.NewTokenService(
		[]byte(testSigningKey),
		accessTTL,
		refreshTTL,
		"test-issuer",
		nil,
		nil,
	)
}

func newTestRevocations(t *testing.T) identity.RevocationRegistry {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return identity.NewRedisRevocations(rdb)
}

type testIdentity struct {
	id       string
	username string
	email    string
}

func (i testIdentity) ID() string       { return i.id }
func (i testIdentity) Username() string { return i.username }
func (i testIdentity) Email() string    { return i.email }
