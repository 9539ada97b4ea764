// Package session holds the viewer identity as an explicit object passed to
// whatever needs an actor id. There is no ambient global current user.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// ErrNoIdentity is returned when no viewer identity is available yet.
var ErrNoIdentity = errors.New("no viewer identity")

// SessionArgs contain the mandatory arguments for a Session.
type SessionArgs struct {
	// Identity is the local device cache seeding the viewer before any
	// network round-trip.
	Identity ports.IdentityStore

	// Users is the authoritative profile store.
	Users ports.UserStore
}

// NewSession creates a new Session.
func NewSession(args SessionArgs) *Session {
	return &Session{identity: args.Identity, users: args.Users}
}

// Session is the explicit viewer context of one client.
type Session struct {
	identity ports.IdentityStore
	users    ports.UserStore

	mu      sync.RWMutex
	current *model.StoredIdentity
}

// Restore seeds the session from the local cache. It never touches the
// network and returns ErrNoIdentity when the device has no cached viewer.
func (s *Session) Restore(ctx context.Context) (*model.StoredIdentity, error) {
	identity, err := s.identity.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading cached identity: %w", err)
	}
	if identity == nil {
		return nil, ErrNoIdentity
	}
	s.mu.Lock()
	s.current = identity
	s.mu.Unlock()
	return identity, nil
}

// SignIn establishes the viewer identity: the profile is upserted in the
// authoritative store and cached locally for the next start.
func (s *Session) SignIn(ctx context.Context, id, name, email string) error {
	user := &model.User{ID: id, Name: name, Email: email}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("error saving user profile: %w", err)
	}

	identity := model.StoredIdentity{ID: id, Name: name, Email: email, Role: user.Role}
	if err := s.identity.Save(identity); err != nil {
		return fmt.Errorf("error caching identity: %w", err)
	}

	s.mu.Lock()
	s.current = &identity
	s.mu.Unlock()
	return nil
}

// SignOut clears the viewer identity and the local cache.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.identity.Clear(); err != nil {
		return fmt.Errorf("error clearing cached identity: %w", err)
	}
	return nil
}

// Current returns the viewer identity, or ErrNoIdentity.
func (s *Session) Current() (model.StoredIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.StoredIdentity{}, ErrNoIdentity
	}
	return *s.current, nil
}

// IsAdmin reports whether the current viewer carries the admin role.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.Role != nil && *s.current.Role == model.RoleAdmin
}

// SetPushToken records the device push token against the viewer profile.
// Best-effort: a failure is logged, not surfaced, because token upkeep must
// never break the session.
func (s *Session) SetPushToken(ctx context.Context, token string) {
	current, err := s.Current()
	if err != nil {
		return
	}
	if err := s.users.UpdatePushToken(ctx, current.ID, token); err != nil {
		log.WithError(err).WithField("user_id", current.ID).Warn("could not update push token")
	}
}
