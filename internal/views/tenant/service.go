package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/session"
	"github.com/retailhub/portal-gateway/internal/views"
	"github.com/retailhub/portal-gateway/pkg/enums"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

// AuthAPI covers the staff account creation call.
type AuthAPI interface {
	RegisterInternal(ctx context.Context, token, username, password string, role enums.Role) (string, error)
}

// allowedRoles are the store-scoped staff roles a tenant admin may
// create. Platform-wide roles stay with the admin console.
var allowedRoles = map[enums.Role]bool{
	enums.RoleStoreManager:   true,
	enums.RoleStoreLogistics: true,
}

// ServiceParams configure the tenant console service.
type ServiceParams struct {
	Logger    *logger.Logger
	Auth      AuthAPI
	Tokens    views.TokenSource
	NotifyTTL time.Duration
}

// Service owns one tenant console instance per signed-in session. The
// console is a plain onboarding form; it polls nothing.
type Service struct {
	logg      *logger.Logger
	auth      AuthAPI
	tokens    views.TokenSource
	notifyTTL time.Duration

	mu        sync.Mutex
	instances map[string]*Instance
}

// NewService builds the tenant console service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auth == nil {
		return nil, fmt.Errorf("auth client required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token source required")
	}
	return &Service{
		logg:      params.Logger,
		auth:      params.Auth,
		tokens:    params.Tokens,
		notifyTTL: params.NotifyTTL,
		instances: make(map[string]*Instance),
	}, nil
}

// Instance is the per-session tenant console state.
type Instance struct {
	svc    *Service
	sess   session.Session
	notify *notify.Presenter
}

// Mount opens (or returns) the instance for a session.
func (s *Service) Mount(_ context.Context, sess session.Session) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.instances[sess.ID]; ok {
		return existing, nil
	}
	inst := &Instance{
		svc:    s,
		sess:   sess,
		notify: notify.NewPresenter(s.notifyTTL),
	}
	s.instances[sess.ID] = inst
	return inst, nil
}

// Instance returns the mounted instance for a session.
func (s *Service) Instance(sessionID string) (*Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[sessionID]
	return inst, ok
}

// Unmount discards the session's console state.
func (s *Service) Unmount(sessionID string) {
	s.mu.Lock()
	inst, ok := s.instances[sessionID]
	delete(s.instances, sessionID)
	s.mu.Unlock()
	if ok {
		inst.notify.Clear()
	}
}

// Notification returns the live banner, if any.
func (i *Instance) Notification() (notify.Notification, bool) {
	return i.notify.Current()
}

// DismissNotification clears the banner early.
func (i *Instance) DismissNotification() {
	i.notify.Clear()
}

// AllowedRoles lists the roles this console can create.
func AllowedRoles() []enums.Role {
	return []enums.Role{enums.RoleStoreManager, enums.RoleStoreLogistics}
}

// RegisterStaff creates a store-scoped staff account.
func (i *Instance) RegisterStaff(ctx context.Context, username, password string, role enums.Role) error {
	if !allowedRoles[role] {
		err := pkgerrors.New(pkgerrors.CodeForbidden,
			fmt.Sprintf("tenant console cannot create role %s", role))
		i.notify.Error(views.FailureMessage(err))
		return err
	}

	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	status, err := i.svc.auth.RegisterInternal(ctx, token, username, password, role)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(status)
	return nil
}
