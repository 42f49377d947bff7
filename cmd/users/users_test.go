package users

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"errorcentral/src/auth"
	"errorcentral/src/database"
	"errorcentral/src/repository"
	"errorcentral/src/security"
)

func newUsers(t *testing.T) (*Users, *auth.Manager, *bytes.Buffer) {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared", database.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	tokens, err := auth.NewManager(security.Config{JWTSecret: "s", TokenTTL: time.Hour})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &Users{
		Log:    logrus.WithField("cmd", "test"),
		Repo:   (&repository.GormUserRepository{}).WithDB(db),
		Tokens: tokens,
		Out:    out,
	}, tokens, out
}

func TestCreateUserThenIssueToken(t *testing.T) {
	u, tokens, out := newUsers(t)
	ctx := context.Background()

	require.NoError(t, u.CreateUser(ctx, "TestUser", "Test@Pass"))
	assert.Contains(t, out.String(), `user "TestUser" saved`)

	out.Reset()
	require.NoError(t, u.IssueToken(ctx, "TestUser", "Test@Pass"))

	claims, err := tokens.Verify(strings.TrimSpace(out.String()), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "TestUser", claims.Username)
}

func TestIssueTokenWrongPassword(t *testing.T) {
	u, _, out := newUsers(t)
	ctx := context.Background()

	require.NoError(t, u.CreateUser(ctx, "TestUser", "Test@Pass"))
	out.Reset()

	err := u.IssueToken(ctx, "TestUser", "nope")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
	assert.Empty(t, out.String())
}

func TestCreateUserResetsPassword(t *testing.T) {
	u, _, _ := newUsers(t)
	ctx := context.Background()

	require.NoError(t, u.CreateUser(ctx, "TestUser", "first"))
	require.NoError(t, u.CreateUser(ctx, "TestUser", "second"))

	assert.ErrorIs(t, u.IssueToken(ctx, "TestUser", "first"), repository.ErrInvalidCredentials)
	assert.NoError(t, u.IssueToken(ctx, "TestUser", "second"))
}

func TestMissingCredentials(t *testing.T) {
	u, _, _ := newUsers(t)

	assert.ErrorIs(t, u.CreateUser(context.Background(), "", "x"), ErrMissingCredentials)
	assert.ErrorIs(t, u.IssueToken(context.Background(), "x", ""), ErrMissingCredentials)
}
