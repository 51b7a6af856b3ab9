package services

import (
	"context"
	"errors"
	"fmt"

	"balancete/internal/core"
	"balancete/internal/log"
	"balancete/internal/session"
)

// ErrNotLoggedIn is returned by Restore when no session is active.
var ErrNotLoggedIn = errors.New("not logged in")

// Sessions ties authentication to a session marker store.
type Sessions struct {
	auth   *Auth
	store  session.Storage
	logger *log.Logger
}

func NewSessions(auth *Auth, store session.Storage, logger *log.Logger) *Sessions {
	if logger == nil {
		logger = log.Discard()
	}
	return &Sessions{auth: auth, store: store, logger: logger.WithComponent(log.ComponentSession)}
}

func marker(id Identity) string {
	if id.IsBuiltinAdmin() {
		return session.AdminMarker
	}
	return session.UserMarker(id.UserID)
}

func (s *Sessions) start(ctx context.Context, id Identity) (Identity, error) {
	if err := s.store.Set(ctx, marker(id)); err != nil {
		return Identity{}, fmt.Errorf("start session: %w", err)
	}
	return id, nil
}

// Login authenticates and records the identity as the current session.
func (s *Sessions) Login(ctx context.Context, email, password string) (Identity, error) {
	id, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	return s.start(ctx, id)
}

// Register creates the user and logs it in.
func (s *Sessions) Register(ctx context.Context, email, password string) (Identity, error) {
	id, err := s.auth.Register(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	return s.start(ctx, id)
}

// Adopt records an identity resolved elsewhere, such as another session
// storage, as the current session.
func (s *Sessions) Adopt(ctx context.Context, id Identity) error {
	_, err := s.start(ctx, id)
	return err
}

func (s *Sessions) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.logger.InfoContext(ctx, "Logged out", log.FieldOperation, log.OpLogout)
	return nil
}

// Restore resolves the stored marker against the store. A marker pointing
// at a user that no longer exists ends the session.
func (s *Sessions) Restore(ctx context.Context) (Identity, error) {
	m, ok, err := s.store.Get(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return Identity{}, ErrNotLoggedIn
	}

	userID, admin, err := session.ParseMarker(m)
	if err == nil {
		var id Identity
		id, err = s.auth.Resolve(ctx, userID, admin)
		if err == nil {
			return id, nil
		}
	}
	if !errors.Is(err, core.ErrNotFound) && !errors.Is(err, session.ErrInvalidMarker) {
		return Identity{}, err
	}

	s.logger.WarnContext(ctx, "Discarding stale session", log.FieldOperation, log.OpRestore, log.FieldError, err)
	if err := s.store.Clear(ctx); err != nil {
		return Identity{}, fmt.Errorf("end session: %w", err)
	}
	return Identity{}, ErrNotLoggedIn
}
