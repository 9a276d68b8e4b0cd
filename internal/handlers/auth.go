package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/middleware"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles local account routes
type AuthHandler struct {
	DB           *gorm.DB
	Sessions     *session.Store
	SecureCookie bool
}

// SignUpRequest is a new account
type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignInRequest is a username and password
type SignInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResetRequest asks for a password reset token
type ResetRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// SessionResponse is the signed in user and the session token
type SessionResponse struct {
	User  *session.Identity `json:"user"`
	Token string            `json:"token"`
}

// ResetTokenResponse carries a reset token. There is no mail delivery, the client completes
// the reset directly.
type ResetTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// SignUp handles POST /api/auth/signup
// @Summary Sign up
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SignUpRequest true "Account"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var body SignUpRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	id, token, err := services.SignUp(c.UserContext(), h.DB, h.Sessions, services.SignUpInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return err
	}
	h.setSessionCookie(c, token, h.Sessions.TTL())
	return utils.SuccessResponse(c, SessionResponse{User: id, Token: token}, fiber.StatusCreated)
}

// SignIn handles POST /api/auth/signin
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SignInRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var body SignInRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	id, token, err := services.SignIn(c.UserContext(), h.DB, h.Sessions, body.Username, body.Password)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, token, h.Sessions.TTL())
	return utils.SuccessResponse(c, SessionResponse{User: id, Token: token}, fiber.StatusOK)
}

// SignOut handles POST /api/auth/signout
// @Summary Sign out
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if err := services.SignOut(c.UserContext(), h.Sessions, middleware.SessionToken(c)); err != nil {
		return err
	}
	c.ClearCookie(middleware.SessionCookie)
	return utils.MutationSuccessResponse(c, "Signed out")
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} session.Identity
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /auth/me [get]
func Me(c *fiber.Ctx) error {
	id := identity(c)
	if id.UserID() == "" {
		return types.NewError(types.ErrAuthRequired, "not signed in")
	}
	return utils.SuccessResponse(c, id, fiber.StatusOK)
}

// RequestPasswordReset handles POST /api/auth/reset/request
// @Summary Request a password reset
// @Description Issues a short-lived reset token when username and email match one account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResetRequest true "Account"
// @Success 200 {object} ResetTokenResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /auth/reset/request [post]
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var body ResetRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	token, err := services.RequestPasswordReset(c.UserContext(), h.DB, h.Sessions, body.Username, body.Email)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, ResetTokenResponse{
		Token:     token,
		ExpiresIn: int64(services.ResetTokenTTL.Seconds()),
	}, fiber.StatusOK)
}

// ResetPassword handles POST /api/auth/reset
// @Summary Reset a password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Token and new password"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /auth/reset [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var body ResetPasswordRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if err := services.ResetPassword(c.UserContext(), h.DB, h.Sessions, body.Token, body.Password); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, "Password updated")
}
