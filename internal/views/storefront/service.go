package storefront

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/retailhub/portal-gateway/internal/cart"
	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/poller"
	"github.com/retailhub/portal-gateway/internal/session"
	"github.com/retailhub/portal-gateway/internal/views"
	"github.com/retailhub/portal-gateway/internal/views/viewstate"
	"github.com/retailhub/portal-gateway/pkg/backend"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
	"github.com/retailhub/portal-gateway/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// InventoryAPI is the slice of the inventory service the storefront reads.
type InventoryAPI interface {
	Products(ctx context.Context, token string) ([]backend.Product, error)
}

// OMSAPI covers the customer-facing order operations.
type OMSAPI interface {
	MyOrders(ctx context.Context, token, customer string) ([]backend.Order, error)
	Create(ctx context.Context, token, sku string, qty int, customer string) (string, error)
	Pay(ctx context.Context, token string, orderID int64) (string, error)
	Cancel(ctx context.Context, token string, orderID int64) (string, error)
}

// PaymentAPI covers the wallet operations.
type PaymentAPI interface {
	WalletBalance(ctx context.Context, token, username string) (decimal.Decimal, error)
	AddFunds(ctx context.Context, token, username string, amount decimal.Decimal) (string, error)
}

// ServiceParams configure the storefront view service.
type ServiceParams struct {
	Logger         *logger.Logger
	Metrics        *metrics.PollerMetrics
	Inventory      InventoryAPI
	OMS            OMSAPI
	Payment        PaymentAPI
	Tokens         views.TokenSource
	PollInterval   time.Duration
	UnitPrice      decimal.Decimal
	AddFundsAmount decimal.Decimal
	NotifyTTL      time.Duration
}

// Service owns one storefront instance per signed-in customer session.
type Service struct {
	logg           *logger.Logger
	metrics        *metrics.PollerMetrics
	inventory      InventoryAPI
	oms            OMSAPI
	payment        PaymentAPI
	tokens         views.TokenSource
	pollInterval   time.Duration
	unitPrice      decimal.Decimal
	addFundsAmount decimal.Decimal
	notifyTTL      time.Duration

	mu        sync.Mutex
	instances map[string]*Instance
}

// NewService builds the storefront service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory client required")
	}
	if params.OMS == nil {
		return nil, fmt.Errorf("oms client required")
	}
	if params.Payment == nil {
		return nil, fmt.Errorf("payment client required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token source required")
	}
	interval := params.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Service{
		logg:           params.Logger,
		metrics:        params.Metrics,
		inventory:      params.Inventory,
		oms:            params.OMS,
		payment:        params.Payment,
		tokens:         params.Tokens,
		pollInterval:   interval,
		unitPrice:      params.UnitPrice,
		addFundsAmount: params.AddFundsAmount,
		notifyTTL:      params.NotifyTTL,
		instances:      make(map[string]*Instance),
	}, nil
}

// Instance is the state a single customer session sees: polled
// snapshots, the transient cart, and the notification banner.
type Instance struct {
	svc    *Service
	sess   session.Session
	cart   *cart.Cart
	notify *notify.Presenter
	poll   *poller.Poller

	products viewstate.Snapshot[[]backend.Product]
	orders   viewstate.Snapshot[[]backend.Order]
	balance  viewstate.Snapshot[decimal.Decimal]
}

// Mount opens (or returns) the instance for a session and starts its
// poller. The poller detaches from the request context so it outlives
// the mounting request.
func (s *Service) Mount(ctx context.Context, sess session.Session) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.instances[sess.ID]; ok {
		return existing, nil
	}

	inst := &Instance{
		svc:    s,
		sess:   sess,
		cart:   cart.New(s.unitPrice),
		notify: notify.NewPresenter(s.notifyTTL),
	}
	p, err := poller.New(poller.Params{
		Name:     "storefront",
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

// Unmount stops the poller and discards the session's cart and state.
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
	inst.cart.Clear()
}

// fetch refreshes products, the customer's orders, and the wallet
// balance in one pass. A failing call leaves that snapshot at its
// previous value while the others still update.
func (i *Instance) fetch(ctx context.Context) error {
	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		// An unauthorized token source means the session expired or was
		// logged out elsewhere. Nothing can revive this instance, so it
		// unmounts itself instead of polling forever with a dead token.
		if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			go i.svc.Unmount(i.sess.ID)
		}
		return err
	}

	var errs error
	if products, err := i.svc.inventory.Products(ctx, token); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		i.products.Set(products)
	}
	if orders, err := i.svc.oms.MyOrders(ctx, token, i.sess.Username); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		i.orders.Set(orders)
	}
	if balance, err := i.svc.payment.WalletBalance(ctx, token, i.sess.Username); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		i.balance.Set(balance)
	}
	return errs
}

// Products returns the last fetched catalog.
func (i *Instance) Products() ([]backend.Product, bool) {
	return i.products.Get()
}

// Orders returns the customer's last fetched orders.
func (i *Instance) Orders() ([]backend.Order, bool) {
	return i.orders.Get()
}

// Balance returns the last fetched wallet balance.
func (i *Instance) Balance() (decimal.Decimal, bool) {
	return i.balance.Get()
}

// Cart exposes the session cart.
func (i *Instance) Cart() *cart.Cart {
	return i.cart
}

// Notification returns the live banner, if any.
func (i *Instance) Notification() (notify.Notification, bool) {
	return i.notify.Current()
}

// DismissNotification clears the banner early.
func (i *Instance) DismissNotification() {
	i.notify.Clear()
}

// AddToCart copies the product into the cart. The name is denormalized
// from the current snapshot; an unknown SKU still gets a line so the
// shopper is never blocked by a stale catalog.
func (i *Instance) AddToCart(sku string) cart.Item {
	name := sku
	if products, ok := i.products.Get(); ok {
		for _, product := range products {
			if product.SKU == sku {
				name = product.Name
				break
			}
		}
	}
	item := i.cart.Add(sku, name)
	i.notify.Success(fmt.Sprintf("%s added to cart", name))
	return item
}

// RemoveFromCart deletes a cart line.
func (i *Instance) RemoveFromCart(itemID string) error {
	if !i.cart.Remove(itemID) {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success("removed from cart")
	return nil
}

// Checkout places one order per cart line. Succeeded lines leave the
// cart; failed ones stay for a retry. The banner summarizes the batch.
func (i *Instance) Checkout(ctx context.Context) (cart.CheckoutResult, error) {
	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return cart.CheckoutResult{}, err
	}

	total := i.cart.Len()
	if total == 0 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		i.notify.Error(views.FailureMessage(err))
		return cart.CheckoutResult{}, err
	}

	result := i.cart.Checkout(ctx, func(ctx context.Context, item cart.Item) error {
		_, err := i.svc.oms.Create(ctx, token, item.SKU, 1, i.sess.Username)
		return err
	})

	switch {
	case len(result.Failed) == 0:
		i.notify.Success(fmt.Sprintf("placed %d orders", len(result.Succeeded)))
	case len(result.Succeeded) == 0:
		i.notify.Error(views.FailureMessage(result.Err))
	default:
		i.notify.Warning(fmt.Sprintf("placed %d of %d orders; failed items kept in cart",
			len(result.Succeeded), total))
	}
	if len(result.Succeeded) > 0 {
		i.poll.Refresh()
	}
	return result, nil
}

// BuyNow places a single order for one product, skipping the cart.
func (i *Instance) BuyNow(ctx context.Context, sku string) error {
	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	status, err := i.svc.oms.Create(ctx, token, sku, 1, i.sess.Username)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(status)
	i.poll.Refresh()
	return nil
}

// PayOrder pays an approved order. When the last fetched balance is
// short the call is never issued; the wallet stays untouched and the
// shopper sees the shortfall immediately.
func (i *Instance) PayOrder(ctx context.Context, orderID int64) error {
	order, ok := i.findOrder(orderID)
	if !ok {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	if !order.Status.CanPay() {
		err := pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("payment not available for order in status %s", order.Status))
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	if balance, fetched := i.balance.Get(); fetched && balance.LessThan(order.Amount) {
		err := pkgerrors.New(pkgerrors.CodeValidation, "insufficient funds")
		i.notify.Error(views.FailureMessage(err))
		return err
	}

	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	status, err := i.svc.oms.Pay(ctx, token, orderID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(status)
	i.poll.Refresh()
	return nil
}

// CancelOrder cancels an order that has not been approved yet.
func (i *Instance) CancelOrder(ctx context.Context, orderID int64) error {
	order, ok := i.findOrder(orderID)
	if !ok {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	if !order.Status.CanCancel() {
		err := pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cancel not available for order in status %s", order.Status))
		i.notify.Error(views.FailureMessage(err))
		return err
	}

	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	status, err := i.svc.oms.Cancel(ctx, token, orderID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(status)
	i.poll.Refresh()
	return nil
}

// AddFunds credits the wallet by the configured one-click amount.
func (i *Instance) AddFunds(ctx context.Context) error {
	token, err := i.svc.tokens.Token(ctx, i.sess.ID)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	status, err := i.svc.payment.AddFunds(ctx, token, i.sess.Username, i.svc.addFundsAmount)
	if err != nil {
		i.notify.Error(views.FailureMessage(err))
		return err
	}
	i.notify.Success(status)
	i.poll.Refresh()
	return nil
}

func (i *Instance) findOrder(orderID int64) (backend.Order, bool) {
	orders, ok := i.orders.Get()
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
