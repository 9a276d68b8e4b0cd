package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// MinPasswordLength applies to sign up and password reset
	MinPasswordLength = 6

	// ResetTokenTTL bounds how long a password reset token stays usable
	ResetTokenTTL = 15 * time.Minute
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// PasswordCost is the bcrypt cost for stored passwords. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

// SignUpInput is a new local account
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// SignUp creates a local account and starts a session for it
func SignUp(ctx context.Context, db *gorm.DB, store *session.Store, in SignUpInput) (*session.Identity, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	switch {
	case !usernamePattern.MatchString(username):
		return nil, "", types.Validation("username must be 3 to 32 letters, digits, dots, dashes or underscores")
	case email == "" || !strings.Contains(email, "@"):
		return nil, "", types.Validation("a valid email is required")
	case len(in.Password) < MinPasswordLength:
		return nil, "", types.Validation("password must be at least %d characters", MinPasswordLength)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, "", types.Collaborator("sign up", err)
	}
	if count > 0 {
		return nil, "", types.NewError(types.ErrInvalidState, "username %q is already taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return nil, "", types.Collaborator("hash password", err)
	}
	user := models.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := db.Create(&user).Error; err != nil {
		return nil, "", types.Collaborator("sign up", err)
	}

	return startSession(ctx, store, &user)
}

// SignIn checks a username and password and starts a session
func SignIn(ctx context.Context, db *gorm.DB, store *session.Store, username, password string) (*session.Identity, string, error) {
	var user models.User
	err := db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", types.NewError(types.ErrAuthRequired, "invalid credentials")
	}
	if err != nil {
		return nil, "", types.Collaborator("sign in", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", types.NewError(types.ErrAuthRequired, "invalid credentials")
	}

	return startSession(ctx, store, &user)
}

// SignOut ends the session behind token
func SignOut(ctx context.Context, store *session.Store, token string) error {
	if token == "" {
		return nil
	}
	return store.Revoke(ctx, token)
}

// RequestPasswordReset issues a reset token when username and email belong to the same account
func RequestPasswordReset(ctx context.Context, db *gorm.DB, store *session.Store, username, email string) (string, error) {
	var user models.User
	err := db.Where("username = ? AND email = ?", strings.TrimSpace(username), strings.TrimSpace(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", types.Validation("username and email do not match")
	}
	if err != nil {
		return "", types.Collaborator("request password reset", err)
	}
	return store.IssueResetToken(ctx, user.ID, ResetTokenTTL)
}

// ResetPassword consumes a reset token and stores the new password
func ResetPassword(ctx context.Context, db *gorm.DB, store *session.Store, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return types.Validation("password must be at least %d characters", MinPasswordLength)
	}
	userID, err := store.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), PasswordCost)
	if err != nil {
		return types.Collaborator("hash password", err)
	}
	res := db.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", string(hash))
	if res.Error != nil {
		return types.Collaborator("reset password", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, "user not found")
	}
	return nil
}

func startSession(ctx context.Context, store *session.Store, user *models.User) (*session.Identity, string, error) {
	id := &session.Identity{ID: user.ID, Username: user.Username, Email: user.Email}
	token, err := store.Create(ctx, *id)
	if err != nil {
		return nil, "", err
	}
	return id, token, nil
}
