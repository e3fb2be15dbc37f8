package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/poller"
	"github.com/retailhub/portal-gateway/internal/session"
	"github.com/retailhub/portal-gateway/internal/views"
	"github.com/retailhub/portal-gateway/internal/views/viewstate"
	"github.com/retailhub/portal-gateway/pkg/backend"
	"github.com/retailhub/portal-gateway/pkg/enums"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
	"github.com/retailhub/portal-gateway/pkg/metrics"
)

// AuthAPI covers the internal account creation call.
type AuthAPI interface {
	RegisterInternal(ctx context.Context, token, username, password string, role enums.Role) (string, error)
}

// PaymentAPI covers the platform payment ledger.
type PaymentAPI interface {
	History(ctx context.Context, token string) ([]backend.Transaction, error)
}

// allowedRoles are the platform-wide roles the admin console may create.
// Store-scoped staff belongs to the tenant console.
var allowedRoles = map[enums.Role]bool{
	enums.RoleCSR:         true,
	enums.RoleLogistics:   true,
	enums.RoleTenantAdmin: true,
}

// ServiceParams configure the admin console service.
type ServiceParams struct {
	Logger       *logger.Logger
	Metrics      *metrics.PollerMetrics
	Auth         AuthAPI
	Payment      PaymentAPI
	Tokens       views.TokenSource
	PollInterval time.Duration
	NotifyTTL    time.Duration
}

// Service owns one admin console instance per signed-in session.
type Service struct {
	logg         *logger.Logger
	metrics      *metrics.PollerMetrics
	auth         AuthAPI
	payment      PaymentAPI
	tokens       views.TokenSource
	pollInterval time.Duration
	notifyTTL    time.Duration

	mu        sync.Mutex
	instances map[string]*Instance
}

// NewService builds the admin console service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auth == nil {
		return nil, fmt.Errorf("auth client required")
	}
	if params.Payment == nil {
		return nil, fmt.Errorf("payment client required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token source required")
	}
	interval := params.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Service{
		logg:         params.Logger,
		metrics:      params.Metrics,
		auth:         params.Auth,
		payment:      params.Payment,
		tokens:       params.Tokens,
		pollInterval: interval,
		notifyTTL:    params.NotifyTTL,
		instances:    make(map[string]*Instance),
	}, nil
}

// Instance is the per-session admin console state.
type Instance struct {
	svc    *Service
	sess   session.Session
	notify *notify.Presenter
	poll   *poller.Poller

	ledger viewstate.Snapshot[[]backend.Transaction]
}

// Mount opens (or returns) the instance for a session.
func (s *Service) Mount(ctx context.Context, sess session.Session) (*Instance, error) {
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
	p, err := poller.New(poller.Params{
		Name:     "admin_console",
		Interval: s.pollInterval,
		Fetch:    inst.fetch,
		Logger:   s.logg,
		Metrics:  s.metrics,
	})
	if err != nil {
		return nil, err
	}
	inst.poll = p

	pollCtx := s.logg.WithSessionID(context.WithoutCancel(ctx), sess.ID)
	if err := p.Start(pollCtx); err != nil {
		return nil, err
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

// Unmount stops the poller and discards the session's console state.
func (s *Service) Unmount(sessionID string) {
	s.mu.Lock()
	inst, ok := s.instances[sessionID]
	delete(s.instances, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	inst.poll.Stop()
	inst.notify.Clear()
}

func (i *Instance) fetch(ctx context.Context) error {
	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		// Session expired or logged out elsewhere; stop polling with a
		// dead token.
		if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			go i.svc.Unmount(i.sess.ID)
		}
		return err
	}
	history, err := i.svc.payment.History(ctx, token)
	if err != nil {
		return err
	}
	i.ledger.Set(history)
	return nil
}

// Ledger returns the last fetched payment history.
func (i *Instance) Ledger() ([]backend.Transaction, bool) {
	return i.ledger.Get()
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
	return []enums.Role{enums.RoleCSR, enums.RoleLogistics, enums.RoleTenantAdmin}
}

// RegisterInternal creates a platform staff or tenant admin account.
func (i *Instance) RegisterInternal(ctx context.Context, username, password string, role enums.Role) error {
	if !allowedRoles[role] {
		err := pkgerrors.New(pkgerrors.CodeForbidden,
			fmt.Sprintf("admin console cannot create role %s", role))
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
