package services_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/testutil"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	services.PasswordCost = bcrypt.MinCost
}

func TestSignUpAndSignIn(t *testing.T) {
	db := testutil.NewTestDB(t)
	store, _ := testutil.NewTestSessionStore(t)
	ctx := context.Background()

	id, token, err := services.SignUp(ctx, db, store, services.SignUpInput{
		Username: "steve",
		Email:    "steve@example.com",
		Password: "diamond",
	})
	require.NoError(t, err)
	assert.Equal(t, "steve", id.Username)
	require.NotEmpty(t, token)

	looked, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id.ID, looked.ID)

	_, _, err = services.SignUp(ctx, db, store, services.SignUpInput{Username: "steve", Email: "other@example.com", Password: "diamond"})
	assert.True(t, errors.Is(err, types.ErrInvalidState))
	assert.Equal(t, 409, types.StatusCode(err))

	signedIn, token2, err := services.SignIn(ctx, db, store, "steve", "diamond")
	require.NoError(t, err)
	assert.Equal(t, id.ID, signedIn.ID)
	assert.NotEqual(t, token, token2)

	_, _, err = services.SignIn(ctx, db, store, "steve", "emerald")
	assert.True(t, errors.Is(err, types.ErrAuthRequired))
	_, _, err = services.SignIn(ctx, db, store, "alex", "diamond")
	assert.True(t, errors.Is(err, types.ErrAuthRequired))

	require.NoError(t, services.SignOut(ctx, store, token2))
	_, err = store.Lookup(ctx, token2)
	assert.True(t, errors.Is(err, types.ErrAuthRequired))
	require.NoError(t, services.SignOut(ctx, store, ""))
}

func TestSignUpValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	store, _ := testutil.NewTestSessionStore(t)

	tests := []struct {
		name string
		in   services.SignUpInput
	}{
		{"short username", services.SignUpInput{Username: "ab", Email: "a@b.c", Password: "secret"}},
		{"bad username", services.SignUpInput{Username: "a b c", Email: "a@b.c", Password: "secret"}},
		{"bad email", services.SignUpInput{Username: "steve", Email: "steve", Password: "secret"}},
		{"short password", services.SignUpInput{Username: "steve", Email: "a@b.c", Password: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := services.SignUp(context.Background(), db, store, tt.in)
			assert.True(t, errors.Is(err, types.ErrValidation), "got %v", err)
		})
	}
}

func TestPasswordReset(t *testing.T) {
	db := testutil.NewTestDB(t)
	store, mr := testutil.NewTestSessionStore(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, db, "alex")

	_, err := services.RequestPasswordReset(ctx, db, store, "alex", "wrong@example.com")
	assert.True(t, errors.Is(err, types.ErrValidation))

	token, err := services.RequestPasswordReset(ctx, db, store, "alex", "alex@example.com")
	require.NoError(t, err)

	err = services.ResetPassword(ctx, db, store, token, "123")
	assert.True(t, errors.Is(err, types.ErrValidation))

	require.NoError(t, services.ResetPassword(ctx, db, store, token, "netherite"))

	// tokens are single use
	err = services.ResetPassword(ctx, db, store, token, "netherite")
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, _, err = services.SignIn(ctx, db, store, "alex", testutil.TestPassword)
	assert.True(t, errors.Is(err, types.ErrAuthRequired))
	_, _, err = services.SignIn(ctx, db, store, "alex", "netherite")
	require.NoError(t, err)

	expired, err := services.RequestPasswordReset(ctx, db, store, "alex", "alex@example.com")
	require.NoError(t, err)
	mr.FastForward(services.ResetTokenTTL + time.Second)
	err = services.ResetPassword(ctx, db, store, expired, "obsidian")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestHealthCheck(t *testing.T) {
	db := testutil.NewTestDB(t)
	store, mr := testutil.NewTestSessionStore(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: "bigstone_test"}
	ctx := context.Background()

	result := services.HealthCheck(ctx, cfg, db, store, nil, nil)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "ok", result.Sessions)
	assert.Equal(t, "sqlite", result.Details["database_type"])

	result = services.HealthCheck(ctx, cfg, db, nil, nil, nil)
	assert.Equal(t, "disabled", result.Sessions)
	assert.Equal(t, "healthy", result.Status)

	mr.Close()
	result = services.HealthCheck(ctx, cfg, db, store, nil, nil)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Sessions)
	assert.Contains(t, result.ErrorMessage, "session store ping failed")
}

func TestHealthCheckAuthorizer(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: "bigstone_test"}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	authz := services.NewAuthorizer(db, nil, "http://"+ln.Addr().String(), "client", "")

	result := services.HealthCheck(context.Background(), cfg, db, nil, authz, nil)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Authorizer)
	assert.Equal(t, "pending", result.Details["authorizer_client"])
	assert.False(t, authz.Initialized())

	require.NoError(t, ln.Close())
	result = services.HealthCheck(context.Background(), cfg, db, nil, authz, nil)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Authorizer)
}
