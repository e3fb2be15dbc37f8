package logistics

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
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
	"github.com/retailhub/portal-gateway/pkg/metrics"
)

// OMSAPI covers the logistics-facing order operations.
type OMSAPI interface {
	Paid(ctx context.Context, token string) ([]backend.Order, error)
	Ship(ctx context.Context, token string, orderID int64) (string, error)
}

// ServiceParams configure the logistics console service.
type ServiceParams struct {
	Logger       *logger.Logger
	Metrics      *metrics.PollerMetrics
	OMS          OMSAPI
	Tokens       views.TokenSource
	PollInterval time.Duration
	NotifyTTL    time.Duration
}

// Service owns one logistics console instance per signed-in session.
type Service struct {
	logg         *logger.Logger
	metrics      *metrics.PollerMetrics
	oms          OMSAPI
	tokens       views.TokenSource
	pollInterval time.Duration
	notifyTTL    time.Duration

	mu        sync.Mutex
	instances map[string]*Instance
}

// NewService builds the logistics console service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.OMS == nil {
		return nil, fmt.Errorf("oms client required")
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
		oms:          params.OMS,
		tokens:       params.Tokens,
		pollInterval: interval,
		notifyTTL:    params.NotifyTTL,
		instances:    make(map[string]*Instance),
	}, nil
}

// Instance is the per-session logistics console state.
type Instance struct {
	svc    *Service
	sess   session.Session
	notify *notify.Presenter
	poll   *poller.Poller

	paid viewstate.Snapshot[[]backend.Order]
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
		Name:     "logistics_console",
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
	paid, err := i.svc.oms.Paid(ctx, token)
	if err != nil {
		return err
	}
	i.paid.Set(paid)
	return nil
}

// PaidOrders returns the last fetched shipping queue.
func (i *Instance) PaidOrders() ([]backend.Order, bool) {
	return i.paid.Get()
}

// Notification returns the live banner, if any.
func (i *Instance) Notification() (notify.Notification, bool) {
	return i.notify.Current()
}

// DismissNotification clears the banner early.
func (i *Instance) DismissNotification() {
	i.notify.Clear()
}

// ShipOrder ships a paid order.
func (i *Instance) ShipOrder(ctx context.Context, orderID int64) error {
	order, ok := i.findPaid(orderID)
	if !ok {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	if !order.Status.CanShip() {
		err := pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("ship not available for order in status %s", order.Status))
		i.notify.Error(views.FailureMessage(err))
		return err
	}

	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	status, err := i.svc.oms.Ship(ctx, token, orderID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(status)
	i.poll.Refresh()
	return nil
}

func (i *Instance) findPaid(orderID int64) (backend.Order, bool) {
	orders, ok := i.paid.Get()
	if !ok {
		return backend.Order{}, false
	}
	for _, order := range orders {
		if order.ID == orderID {
			return order, true
		}
	}
	return backend.Order{}, false
}
