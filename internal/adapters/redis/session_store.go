package redis

// Package redis implements session persistence on Redis. Each session is a
// JSON blob under a prefixed key whose TTL mirrors the session expiry, so
// Redis evicts abandoned sessions on its own.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	apperrors "github.com/ssopoc/authgate/internal/errors"
	"github.com/ssopoc/authgate/internal/ports"
)

const sessionKeyPrefix = "session:"

// ErrNotFound is returned when no live session exists for the given ID.
var ErrNotFound = ports.ErrSessionNotFound

// SessionStore stores sessions in Redis.
type SessionStore struct {
	client redis.UniversalClient
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore backed by the given client.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

// Save persists the session with a TTL derived from its expiry.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return apperrors.Validation("session ID is required")
	}

	ttl := domainauth.DefaultSessionTTL
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return apperrors.Validation("session is already expired")
		}
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode session")
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "store session")
	}
	return nil
}

// Get retrieves a session by ID. Expired or missing sessions yield
// ErrNotFound; an expired record found before Redis evicted it is removed.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domainauth.Session{}, ErrNotFound
	}
	if err != nil {
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "load session")
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode session")
	}
	if sess.Expired(time.Now()) {
		_ = s.client.Del(ctx, sessionKeyPrefix+id).Err()
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session. Deleting a session that does not exist is not
// an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "delete session")
	}
	return nil
}
