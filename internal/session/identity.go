// Package session carries the signed-in identity explicitly through request contexts and keeps
// local sessions in Redis, publishing sign-in and sign-out events to subscribers.
package session

import "context"

// Identity is the signed-in user. There is no process-wide current user: handlers and services
// receive an Identity value, and a nil Identity means anonymous.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserID is nil-safe and returns "" for anonymous callers.
func (i *Identity) UserID() string {
	if i == nil {
		return ""
	}
	return i.ID
}

type contextKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}
