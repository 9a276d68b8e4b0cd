// store.go
//
// Port library, standards voting and project collaboration for redstone builders
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of bigstone-community.
// bigstone-community is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// bigstone-community is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with bigstone-community.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/redis/go-redis/v9"
)

// EventType names a session lifecycle change.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is published on every sign-in and sign-out.
type Event struct {
	Type     EventType `json:"type"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// Store keeps session tokens and password reset tokens in Redis.
// Keys are namespaced under the prefix; it is safe for concurrent use.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewStore wraps a Redis client. ttl bounds the lifetime of a session.
func NewStore(rdb *redis.Client, prefix string, ttl time.Duration) (*Store, error) {
	if prefix == "" {
		return nil, fmt.Errorf("session key prefix cannot be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl, now: time.Now}, nil
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// TTL is the lifetime of a new session.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) sessionKey(token string) string {
	return s.prefix + ":session:" + token
}

func (s *Store) resetKey(token string) string {
	return s.prefix + ":reset:" + token
}

func (s *Store) eventsChannel() string {
	return s.prefix + ":session_events"
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create starts a session for id and returns its token.
func (s *Store) Create(ctx context.Context, id Identity) (string, error) {
	if id.ID == "" {
		return "", types.Validation("session identity requires an id")
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.sessionKey(token), payload, s.ttl).Err(); err != nil {
		return "", types.Collaborator("create session", err)
	}
	s.publish(ctx, Event{Type: EventSignedIn, UserID: id.ID, Username: id.Username})
	return token, nil
}

// Lookup resolves a token. Unknown or expired tokens fail with ErrAuthRequired.
func (s *Store) Lookup(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, types.NewError(types.ErrAuthRequired, "no session")
	}
	payload, err := s.rdb.Get(ctx, s.sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, types.NewError(types.ErrAuthRequired, "session expired or unknown")
	}
	if err != nil {
		return nil, types.Collaborator("lookup session", err)
	}
	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &id, nil
}

// Revoke ends a session. Revoking an unknown token is not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	payload, err := s.rdb.GetDel(ctx, s.sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return types.Collaborator("revoke session", err)
	}
	var id Identity
	if json.Unmarshal(payload, &id) == nil {
		s.publish(ctx, Event{Type: EventSignedOut, UserID: id.ID, Username: id.Username})
	}
	return nil
}

// IssueResetToken stores a single-use password reset token for userID.
func (s *Store) IssueResetToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, s.resetKey(token), userID, ttl).Err(); err != nil {
		return "", types.Collaborator("issue reset token", err)
	}
	return token, nil
}

// ConsumeResetToken returns the user a reset token was issued for and deletes it.
func (s *Store) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", types.Validation("reset token is required")
	}
	userID, err := s.rdb.GetDel(ctx, s.resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", types.Validation("reset token is invalid or expired")
	}
	if err != nil {
		return "", types.Collaborator("consume reset token", err)
	}
	return userID, nil
}

// publish is best effort; a session is valid even if nobody hears about it.
func (s *Store) publish(ctx context.Context, ev Event) {
	ev.At = s.now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_ = s.rdb.Publish(ctx, s.eventsChannel(), payload).Err()
}

// Subscription delivers session events until closed.
// Caller must call Close() when done.
type Subscription struct {
	events <-chan Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of session events. It closes with the subscription.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Errors returns decode failures. The subscription continues after errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens for sign-in and sign-out events. Delivery is at most once.
func (s *Store) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, s.eventsChannel())
	// wait for the subscription to be confirmed so no event published after return is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, types.Collaborator("subscribe session events", err)
	}

	eventsChan := make(chan Event, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to decode session event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				select {
				case eventsChan <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// Watch subscribes and calls fn for every event until ctx is done. Decode failures go to
// onErr when it is set.
func (s *Store) Watch(ctx context.Context, fn func(Event), onErr func(error)) error {
	sub, err := s.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	events, errs := sub.Events(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fn(ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}
