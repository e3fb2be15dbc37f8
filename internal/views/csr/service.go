package csr

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
	"go.uber.org/multierr"
)

// OMSAPI covers the CSR-facing order operations.
type OMSAPI interface {
	Pending(ctx context.Context, token string) ([]backend.Order, error)
	Approve(ctx context.Context, token string, orderID int64) (string, error)
}

// InventoryAPI covers catalog reads and writes.
type InventoryAPI interface {
	Products(ctx context.Context, token string) ([]backend.Product, error)
	CreateProduct(ctx context.Context, token string, product backend.Product) (backend.Product, error)
	UpdateProduct(ctx context.Context, token, sku string, product backend.Product) (backend.Product, error)
}

// ServiceParams configure the CSR console service.
type ServiceParams struct {
	Logger       *logger.Logger
	Metrics      *metrics.PollerMetrics
	OMS          OMSAPI
	Inventory    InventoryAPI
	Tokens       views.TokenSource
	PollInterval time.Duration
	NotifyTTL    time.Duration
}

// Service owns one CSR console instance per signed-in staff session.
type Service struct {
	logg         *logger.Logger
	metrics      *metrics.PollerMetrics
	oms          OMSAPI
	inventory    InventoryAPI
	tokens       views.TokenSource
	pollInterval time.Duration
	notifyTTL    time.Duration

	mu        sync.Mutex
	instances map[string]*Instance
}

// NewService builds the CSR console service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.OMS == nil {
		return nil, fmt.Errorf("oms client required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory client required")
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
		inventory:    params.Inventory,
		tokens:       params.Tokens,
		pollInterval: interval,
		notifyTTL:    params.NotifyTTL,
		instances:    make(map[string]*Instance),
	}, nil
}

// Instance is the per-session CSR console state.
type Instance struct {
	svc    *Service
	sess   session.Session
	notify *notify.Presenter
	poll   *poller.Poller

	pending  viewstate.Snapshot[[]backend.Order]
	products viewstate.Snapshot[[]backend.Product]
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
		Name:     "csr_console",
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

	var errs error
	if pending, err := i.svc.oms.Pending(ctx, token); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		i.pending.Set(pending)
	}
	if products, err := i.svc.inventory.Products(ctx, token); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		i.products.Set(products)
	}
	return errs
}

// PendingOrders returns the last fetched approval queue.
func (i *Instance) PendingOrders() ([]backend.Order, bool) {
	return i.pending.Get()
}

// Products returns the last fetched catalog.
func (i *Instance) Products() ([]backend.Product, bool) {
	return i.products.Get()
}

// Notification returns the live banner, if any.
func (i *Instance) Notification() (notify.Notification, bool) {
	return i.notify.Current()
}

// DismissNotification clears the banner early.
func (i *Instance) DismissNotification() {
	i.notify.Clear()
}

// ApproveOrder approves an order still in its created state.
func (i *Instance) ApproveOrder(ctx context.Context, orderID int64) error {
	order, ok := i.findPending(orderID)
	if !ok {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	if !order.Status.CanApprove() {
		err := pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("approve not available for order in status %s", order.Status))
		i.notify.Error(views.FailureMessage(err))
		return err
	}

	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	status, err := i.svc.oms.Approve(ctx, token, orderID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(status)
	i.poll.Refresh()
	return nil
}

// CreateProduct adds a catalog entry.
func (i *Instance) CreateProduct(ctx context.Context, product backend.Product) error {
	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	created, err := i.svc.inventory.CreateProduct(ctx, token, product)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(fmt.Sprintf("product %s created", created.SKU))
	i.poll.Refresh()
	return nil
}

// UpdateStock sets the on-hand quantity for a known SKU. The product
// name rides along from the snapshot so the write never blanks it.
func (i *Instance) UpdateStock(ctx context.Context, sku string, quantity int) error {
	product, ok := i.findProduct(sku)
	if !ok {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	if quantity < 0 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		i.notify.Error(views.FailureMessage(err))
		return err
	}

	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	product.Quantity = quantity
	updated, err := i.svc.inventory.UpdateProduct(ctx, token, sku, product)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(fmt.Sprintf("stock for %s set to %d", updated.SKU, updated.Quantity))
	i.poll.Refresh()
	return nil
}

func (i *Instance) findPending(orderID int64) (backend.Order, bool) {
	orders, ok := i.pending.Get()
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

func (i *Instance) findProduct(sku string) (backend.Product, bool) {
	products, ok := i.products.Get()
	if !ok {
		return backend.Product{}, false
	}
	for _, product := range products {
		if product.SKU == sku {
			return product, true
		}
	}
	return backend.Product{}, false
}
