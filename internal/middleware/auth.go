package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/types"
	"go.uber.org/zap"
)

const (
	// SessionCookie carries the local session token
	SessionCookie = "bigstone_session"

	// AuthorizerCookie carries the Authorizer service session
	AuthorizerCookie = "cookie_session"
)

// Resolver turns request credentials into an identity. It returns nil when the request
// carries none.
type Resolver func(c *fiber.Ctx) (*session.Identity, error)

// SessionToken returns the local session token from the cookie or a bearer header
func SessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// LocalResolver looks sessions up in the session store
func LocalResolver(store *session.Store) Resolver {
	return func(c *fiber.Ctx) (*session.Identity, error) {
		token := SessionToken(c)
		if token == "" {
			return nil, nil
		}
		return store.Lookup(c.UserContext(), token)
	}
}

// AuthorizerResolver validates the Authorizer session cookie
func AuthorizerResolver(resolve func(cookie string) (*session.Identity, error)) Resolver {
	return func(c *fiber.Ctx) (*session.Identity, error) {
		cookie := c.Cookies(AuthorizerCookie)
		if cookie == "" {
			return nil, nil
		}
		return resolve(cookie)
	}
}

// Identify resolves the caller on every request. Stale or invalid credentials leave the
// request anonymous; collaborator failures abort it.
func Identify(resolve Resolver, log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		if resolve == nil {
			return c.Next()
		}
		id, err := resolve(c)
		switch {
		case err == nil:
		case errors.Is(err, types.ErrAuthRequired):
			log.Debug("ignoring credentials", zap.String("path", c.Path()), zap.Error(err))
			id = nil
		default:
			return err
		}

		if id != nil {
			c.SetUserContext(session.WithIdentity(c.UserContext(), id))
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity resolved for the request, or nil
func CurrentIdentity(c *fiber.Ctx) *session.Identity {
	id, _ := session.FromContext(c.UserContext())
	return id
}

// RequireAuth rejects anonymous requests
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentIdentity(c).UserID() == "" {
			return types.NewError(types.ErrAuthRequired, "you must be signed in")
		}
		return c.Next()
	}
}
