// Package session turns the identity provider's credential stream into the
// application session: who is signed in, with which role and unit.
package session

import (
	"context"
	"sync"

	"pipe-rack-manager/internal/identity"
	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/models"
)

const (
	GuestEmail       = "guest@local"
	GuestDisplayName = "Guest (Read Only)"
)

// Session is the resolved, signed-in user. It is treated as immutable.
type Session struct {
	ID             string
	Email          string
	Role           models.UserRole
	AssignedUnitID string
	DisplayName    string
}

func (s *Session) IsAdmin() bool { return s != nil && s.Role == models.RoleAdmin }
func (s *Session) IsGuest() bool { return s != nil && s.Role == models.RoleGuest }

// ProfileSource reads user profiles. docstore.Store satisfies it.
type ProfileSource interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// CredentialStream is the push side of identity.Auth.
type CredentialStream interface {
	OnCredentialChange(cb func(*identity.Credential)) func()
}

// Store holds the current session of one client. It starts unresolved and
// becomes resolved on the first credential the stream reports.
type Store struct {
	profiles ProfileSource
	logger   *logging.Logger

	emitMu sync.Mutex // orders apply+notify

	mu        sync.Mutex
	resolved  bool
	current   *Session
	gen       uint64
	listeners map[int]func(*Session)
	nextID    int
}

func NewStore(profiles ProfileSource, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		profiles:  profiles,
		logger:    logger,
		listeners: make(map[int]func(*Session)),
	}
}

// Attach follows the credential stream until ctx is done or the returned func
// is called. Profile lookups use ctx.
func (s *Store) Attach(ctx context.Context, stream CredentialStream) func() {
	detach := stream.OnCredentialChange(func(cred *identity.Credential) {
		s.Resolve(ctx, cred)
	})
	stop := context.AfterFunc(ctx, detach)
	return func() {
		stop()
		detach()
	}
}

// Resolve computes the session for cred and applies it unless a newer
// credential was resolved in the meantime.
func (s *Store) Resolve(ctx context.Context, cred *identity.Credential) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	next := s.resolve(ctx, cred)

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded session resolution")
		return
	}
	changed := !s.resolved || !equal(s.current, next)
	s.resolved = true
	s.current = next
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, id := range ids {
		s.mu.Lock()
		cb, ok := s.listeners[id]
		s.mu.Unlock()
		if ok {
			cb(next)
		}
	}
}

func (s *Store) resolve(ctx context.Context, cred *identity.Credential) *Session {
	switch {
	case cred == nil:
		return nil
	case cred.Anonymous:
		return Guest(cred.UID)
	}

	profile, err := s.profiles.GetUser(ctx, cred.UID)
	if err != nil {
		s.logger.WithError(err).Error("profile lookup failed", "uid", cred.UID)
		return nil
	}
	if profile == nil {
		s.logger.Warn("credential has no user profile", "uid", cred.UID, "email", cred.Email)
		return nil
	}
	return FromProfile(cred, profile)
}

// Guest is the transient read-only session of an anonymous credential.
func Guest(uid string) *Session {
	return &Session{
		ID:          uid,
		Email:       GuestEmail,
		Role:        models.RoleGuest,
		DisplayName: GuestDisplayName,
	}
}

// FromProfile merges a stored profile with the credential that owns it.
func FromProfile(cred *identity.Credential, profile *models.User) *Session {
	sess := &Session{
		ID:             cred.UID,
		Email:          cred.Email,
		Role:           profile.Role,
		AssignedUnitID: profile.AssignedUnit(),
		DisplayName:    profile.DisplayName,
	}
	if sess.Email == "" {
		sess.Email = profile.Email
	}
	if !sess.Role.Valid() {
		sess.Role = models.RoleUser
	}
	if sess.DisplayName == "" {
		sess.DisplayName = sess.Email
	}
	return sess
}

func equal(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Current returns the session and whether the store has resolved yet.
func (s *Store) Current() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.resolved
}

// Subscribe registers cb for every change of the resolved session. It does
// not replay the current value.
func (s *Store) Subscribe(cb func(*Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = cb
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
