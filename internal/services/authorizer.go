package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Authorizer resolves identities from an external Authorizer service session cookie. The client
// is created on first use.
type Authorizer struct {
	URL         string
	ClientID    string
	RedirectURL string
	Roles       []string

	db  *gorm.DB
	log *zap.Logger

	once    sync.Once
	ready   atomic.Bool
	client  *authorizer.AuthorizerClient
	initErr error
}

// NewAuthorizer prepares an Authorizer adapter. Users it sees are recorded in db.
func NewAuthorizer(db *gorm.DB, log *zap.Logger, url, clientID, redirectURL string) *Authorizer {
	if log == nil {
		log = zap.NewNop()
	}
	if redirectURL == "" {
		redirectURL = url
	}
	return &Authorizer{
		URL:         url,
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Roles:       []string{"user"},
		db:          db,
		log:         log,
	}
}

// Ping checks the Authorizer service is reachable
func (a *Authorizer) Ping() error {
	return utils.PingAuthorizer(a.URL)
}

// Initialized reports whether the client has been created
func (a *Authorizer) Initialized() bool {
	return a.ready.Load()
}

func (a *Authorizer) init() error {
	a.once.Do(func() {
		if err := a.Ping(); err != nil {
			a.initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		a.log.Info("initializing authorizer",
			zap.String("url", a.URL), zap.String("client_id", a.ClientID), zap.String("redirect_url", a.RedirectURL))

		client, err := authorizer.NewAuthorizerClient(a.ClientID, a.URL, a.RedirectURL, nil)
		if err != nil {
			a.initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
		a.client = client
		a.ready.Store(true)
	})
	return a.initErr
}

// authorizedUser is the part of the Authorizer user record we keep
type authorizedUser struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	PreferredUsername *string `json:"preferred_username"`
	Nickname          *string `json:"nickname"`
}

func (u authorizedUser) username() string {
	for _, s := range []*string{u.PreferredUsername, u.Nickname} {
		if s != nil && strings.TrimSpace(*s) != "" {
			return strings.TrimSpace(*s)
		}
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.ID
}

// Resolve validates the session cookie and returns the signed in identity
func (a *Authorizer) Resolve(cookie string) (*session.Identity, error) {
	if cookie == "" {
		return nil, types.NewError(types.ErrAuthRequired, "no session")
	}
	if err := a.init(); err != nil {
		return nil, types.Collaborator("authorizer", err)
	}

	roles := make([]*string, len(a.Roles))
	for i := range a.Roles {
		roles[i] = &a.Roles[i]
	}
	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  roles,
	})
	if err != nil {
		a.log.Debug("session validation failed", zap.Error(err))
		return nil, types.NewError(types.ErrAuthRequired, "session validation failed")
	}
	if res == nil || !res.IsValid || res.User == nil {
		return nil, types.NewError(types.ErrAuthRequired, "session is not valid")
	}

	raw, err := json.Marshal(res.User)
	if err != nil {
		return nil, fmt.Errorf("failed to encode authorizer user: %w", err)
	}
	var user authorizedUser
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return nil, types.NewError(types.ErrAuthRequired, "session has no user")
	}

	id := &session.Identity{ID: user.ID, Username: user.username(), Email: user.Email}
	if err := a.remember(id); err != nil {
		a.log.Warn("failed to record authorizer user", zap.String("user_id", id.ID), zap.Error(err))
	}
	return id, nil
}

// remember makes sure a users row exists so listings can show the username
func (a *Authorizer) remember(id *session.Identity) error {
	if a.db == nil {
		return nil
	}
	user := models.User{ID: id.ID, Username: id.Username, Email: id.Email}
	return a.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
}
