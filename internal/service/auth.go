package service

// Package service holds the orchestration layer between HTTP handlers and
// adapters. SessionManager owns the session lifecycle; protocol specifics
// stay in the adapters.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	"github.com/ssopoc/authgate/internal/ports"
)

// SessionManagerOptions configures a SessionManager.
type SessionManagerOptions struct {
	Store  ports.SessionStore
	TTL    time.Duration
	Logger *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// SessionManager creates, resolves, and destroys sessions.
type SessionManager struct {
	store  ports.SessionStore
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionManager creates a SessionManager from options, applying
// defaults for TTL, logger, and clock.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	m := &SessionManager{
		store:  opts.Store,
		ttl:    opts.TTL,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if m.ttl <= 0 {
		m.ttl = domainauth.DefaultSessionTTL
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Establish creates and persists a fresh session for an authenticated
// identity. Each login gets a new session ID; an existing session for the
// same user is never reused or merged.
func (m *SessionManager) Establish(ctx context.Context, identity domainauth.Identity) (domainauth.Session, error) {
	now := m.now()
	sess := domainauth.Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		SubjectID:     identity.SubjectID,
		Username:      identity.Username,
		Email:         identity.Email,
		Roles:         identity.Roles,
		Attributes:    identity.Attributes,
		Ref:           identity.Ref,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return domainauth.Session{}, err
	}
	m.logger.Info("session established",
		"session_id", sess.ID,
		"subject", sess.SubjectID,
		"roles", sess.Roles,
	)
	return sess, nil
}

// Current resolves a session ID from a cookie to a live session. Missing,
// expired, or unreadable sessions all resolve to anonymous; only unexpected
// store failures are logged.
func (m *SessionManager) Current(ctx context.Context, id string) (domainauth.Session, bool) {
	if id == "" {
		return domainauth.Session{}, false
	}
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ports.ErrSessionNotFound) {
			m.logger.Warn("session lookup failed", "session_id", id, "error", err)
		}
		return domainauth.Session{}, false
	}
	if !sess.Authenticated || sess.Expired(m.now()) {
		return domainauth.Session{}, false
	}
	return sess, true
}

// Terminate removes the session. It is idempotent and safe to call with an
// empty ID, so logout paths can always run it unconditionally.
func (m *SessionManager) Terminate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Warn("session delete failed", "session_id", id, "error", err)
		return err
	}
	m.logger.Info("session terminated", "session_id", id)
	return nil
}
