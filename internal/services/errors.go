package services

import (
	"errors"
	"fmt"

	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/types"
	"gorm.io/gorm"
)

// storageError maps a GORM failure onto the error taxonomy. Errors that are already
// classified pass through unchanged.
func storageError(op string, err error, notFound string, args ...any) error {
	if err == nil {
		return nil
	}
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewError(types.ErrNotFound, notFound, args...)
	}
	return types.Collaborator(op, err)
}

func requireIdentity(id *session.Identity, action string) error {
	if id.UserID() == "" {
		return types.NewError(types.ErrAuthRequired, "you must be signed in to %s", action)
	}
	return nil
}

// usernames resolves user ids to usernames in one query
func usernames(db *gorm.DB, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID       string
		Username string
	}
	if err := db.Table("users").Select("id, username").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load usernames: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r.Username
	}
	return out, nil
}

// unknownUser is shown when a user row no longer exists
const unknownUser = "Unknown User"

func usernameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return unknownUser
}
