package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailhub/portal-gateway/internal/portal"
	"github.com/retailhub/portal-gateway/pkg/backend"
	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/retailhub/portal-gateway/pkg/enums"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

// Authenticator is the slice of the auth service the store needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (backend.LoginResponse, error)
}

// Session is one signed-in browser. It records who the user is and which
// portal their role landed them on; the backend token lives in the vault,
// never on the session record.
type Session struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Role      enums.Role       `json:"role"`
	Portal    enums.PortalView `json:"portal"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// StoreParams configure the session store.
type StoreParams struct {
	Logger  *logger.Logger
	Auth    Authenticator
	Vault   TokenVault
	Session config.SessionConfig
}

// Store owns the live sessions. A failed login leaves it untouched; only
// a fully resolved login (credentials accepted, role parsed, portal
// assigned, token vaulted) produces a session.
type Store struct {
	logg  *logger.Logger
	auth  Authenticator
	vault TokenVault
	ttl   time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore builds a session store.
func NewStore(params StoreParams) (*Store, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auth == nil {
		return nil, fmt.Errorf("authenticator required")
	}
	if params.Vault == nil {
		return nil, fmt.Errorf("token vault required")
	}
	return &Store{
		logg:     params.Logger,
		auth:     params.Auth,
		vault:    params.Vault,
		ttl:      params.Session.TTL(),
		now:      time.Now,
		sessions: make(map[string]Session),
	}, nil
}

// Login authenticates against the auth service and opens a session. The
// three failure shapes stay distinct for the login page: bad credentials,
// a role with no portal, and an unreachable auth service.
func (s *Store) Login(ctx context.Context, username, password string) (Session, error) {
	resp, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return Session{}, loginError(err)
	}

	role, parseErr := enums.ParseRole(resp.User.Role)
	if parseErr != nil {
		return Session{}, pkgerrors.New(pkgerrors.CodeForbidden,
			fmt.Sprintf("no portal available for role %q", resp.User.Role))
	}
	view := portal.For(role)
	if view == enums.PortalUnknown {
		return Session{}, pkgerrors.New(pkgerrors.CodeForbidden,
			fmt.Sprintf("no portal available for role %s", role))
	}

	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		Username:  resp.User.Username,
		Role:      role,
		Portal:    view,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}
	if sess.Username == "" {
		sess.Username = username
	}

	if err := s.vault.Save(ctx, sess.ID, resp.Token, s.ttl); err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "service offline")
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	loginCtx := s.logg.WithSessionID(ctx, sess.ID)
	loginCtx = s.logg.WithUsername(loginCtx, sess.Username)
	loginCtx = s.logg.WithPortal(loginCtx, sess.Portal.String())
	s.logg.Info(loginCtx, "session opened")
	return sess, nil
}

// loginError normalizes auth service failures. Transport failures keep
// their dependency shape; every authorization-flavored denial collapses
// into one credentials message so the login page cannot be used to probe
// which usernames exist.
func loginError(err error) error {
	if pkgerrors.Is(err, pkgerrors.CodeDependency) || pkgerrors.Is(err, pkgerrors.CodeUpstream) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid username or password")
}

// Get returns the session with the given ID. Expired sessions evict on
// access.
func (s *Store) Get(sessionID string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return Session{}, false
	}
	return sess, true
}

// Token retrieves the backend token for a session from the vault.
func (s *Store) Token(ctx context.Context, sessionID string) (string, error) {
	token, err := s.vault.Load(ctx, sessionID)
	if err != nil {
		if err == ErrTokenNotFound {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "service offline")
	}
	return token, nil
}

// Logout closes the session. The local record always goes away; a vault
// hiccup is logged and not surfaced because repeating logout buys the
// user nothing.
func (s *Store) Logout(ctx context.Context, sessionID string) {
	s.mu.Lock()
	_, existed := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if err := s.vault.Delete(ctx, sessionID); err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "failed to drop backend token", err)
	}
	if existed {
		s.logg.Info(s.logg.WithSessionID(ctx, sessionID), "session closed")
	}
}

// Count returns the number of live sessions, used by the health surface.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
