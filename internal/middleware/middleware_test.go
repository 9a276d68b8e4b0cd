package middleware_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/middleware"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/testutil"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(resolve middleware.Resolver) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorFrom})
	app.Use(middleware.VersionMiddleware(), middleware.Identify(resolve, nil))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id := middleware.CurrentIdentity(c)
		fromCtx, _ := session.FromContext(c.UserContext())
		return c.JSON(fiber.Map{"id": id.UserID(), "ctx": fromCtx.UserID()})
	})
	app.Get("/private", middleware.RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestLocalResolverCookieAndBearer(t *testing.T) {
	store, _ := testutil.NewTestSessionStore(t)
	token, err := store.Create(context.Background(), session.Identity{ID: "u1", Username: "alex"})
	require.NoError(t, err)

	app := newApp(middleware.LocalResolver(store))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var body map[string]string
	testutil.ParseJSON(t, resp, &body)
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, "u1", body["ctx"])

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	testutil.ParseJSON(t, resp, &body)
	assert.Equal(t, "u1", body["id"])
}

func TestUnknownTokenIsAnonymous(t *testing.T) {
	store, _ := testutil.NewTestSessionStore(t)
	app := newApp(middleware.LocalResolver(store))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-session")
	resp, err := app.Test(req)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	var body map[string]string
	testutil.ParseJSON(t, resp, &body)
	assert.Empty(t, body["id"])
}

func TestStoreFailureAborts(t *testing.T) {
	store, mr := testutil.NewTestSessionStore(t)
	app := newApp(middleware.LocalResolver(store))
	mr.Close()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "collaborator", testutil.ParseError(t, resp).Type)
}

func TestRequireAuth(t *testing.T) {
	resolve := func(c *fiber.Ctx) (*session.Identity, error) {
		if c.Get("X-User") == "" {
			return nil, nil
		}
		return &session.Identity{ID: c.Get("X-User")}, nil
	}
	app := newApp(resolve)

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "auth.required", testutil.ParseError(t, resp).Type)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("X-User", "u2")
	resp, err = app.Test(req)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
}

func TestAuthorizerResolverUsesSessionCookie(t *testing.T) {
	var seen string
	resolve := middleware.AuthorizerResolver(func(cookie string) (*session.Identity, error) {
		seen = cookie
		if cookie != "good" {
			return nil, types.NewError(types.ErrAuthRequired, "session is not valid")
		}
		return &session.Identity{ID: "ext-1"}, nil
	})
	app := newApp(resolve)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Cookie", middleware.AuthorizerCookie+"=good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, "good", seen)

	req = httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Cookie", middleware.AuthorizerCookie+"=bad")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestVersionMiddleware(t *testing.T) {
	app := newApp(nil)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-Api-Version", "1.0")
	resp, err := app.Test(req)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, middleware.APIVersion, resp.Header.Get("X-Api-Version"))

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-Api-Version", "2.0.0")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
