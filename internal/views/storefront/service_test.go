package storefront

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/retailhub/portal-gateway/internal/session"
	"github.com/retailhub/portal-gateway/pkg/backend"
	"github.com/retailhub/portal-gateway/pkg/enums"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct{}

func (staticTokens) Token(context.Context, string) (string, error) { return "tok", nil }

type fakeInventory struct {
	products []backend.Product
}

func (f *fakeInventory) Products(context.Context, string) ([]backend.Product, error) {
	return f.products, nil
}

type fakeOMS struct {
	orders    []backend.Order
	createErr error
	creates   atomic.Int64
	pays      atomic.Int64
	cancels   atomic.Int64
}

func (f *fakeOMS) MyOrders(context.Context, string, string) ([]backend.Order, error) {
	return f.orders, nil
}

func (f *fakeOMS) Create(_ context.Context, _ string, sku string, _ int, _ string) (string, error) {
	f.creates.Add(1)
	if f.createErr != nil && sku == "SKU-BAD" {
		return "", f.createErr
	}
	return "Order CREATED", nil
}

func (f *fakeOMS) Pay(context.Context, string, int64) (string, error) {
	f.pays.Add(1)
	return "Order PAID", nil
}

func (f *fakeOMS) Cancel(context.Context, string, int64) (string, error) {
	f.cancels.Add(1)
	return "Order CANCELED", nil
}

type fakePayment struct {
	balance decimal.Decimal
	funds   atomic.Int64
}

func (f *fakePayment) WalletBalance(context.Context, string, string) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakePayment) AddFunds(context.Context, string, string, decimal.Decimal) (string, error) {
	f.funds.Add(1)
	return "Funds added", nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "storefront-test", Level: zerolog.Disabled, Output: io.Discard})
}

func testSession() session.Session {
	return session.Session{ID: "sess-1", Username: "alice", Role: enums.RoleCustomer, Portal: enums.PortalStorefront}
}

func mountInstance(t *testing.T, oms *fakeOMS, payment *fakePayment, inventory *fakeInventory) (*Service, *Instance) {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:         testLogger(),
		Inventory:      inventory,
		OMS:            oms,
		Payment:        payment,
		Tokens:         staticTokens{},
		PollInterval:   time.Hour,
		UnitPrice:      decimal.RequireFromString("999.00"),
		AddFundsAmount: decimal.NewFromInt(500),
		NotifyTTL:      time.Minute,
	})
	require.NoError(t, err)

	inst, err := svc.Mount(context.Background(), testSession())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Unmount("sess-1") })

	require.Eventually(t, func() bool {
		_, ok := inst.Products()
		return ok
	}, time.Second, 5*time.Millisecond, "mount fetch populates snapshots")
	return svc, inst
}

type expiredTokens struct {
	calls atomic.Int64
}

func (e *expiredTokens) Token(context.Context, string) (string, error) {
	e.calls.Add(1)
	return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
}

func TestExpiredSessionUnmountsItself(t *testing.T) {
	tokens := &expiredTokens{}
	svc, err := NewService(ServiceParams{
		Logger:         testLogger(),
		Inventory:      &fakeInventory{},
		OMS:            &fakeOMS{},
		Payment:        &fakePayment{balance: decimal.NewFromInt(0)},
		Tokens:         tokens,
		PollInterval:   20 * time.Millisecond,
		UnitPrice:      decimal.RequireFromString("999.00"),
		AddFundsAmount: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	_, err = svc.Mount(context.Background(), testSession())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Unmount("sess-1") })

	require.Eventually(t, func() bool {
		_, ok := svc.Instance("sess-1")
		return !ok
	}, time.Second, 5*time.Millisecond, "instance unmounts once the token source reports the session gone")

	var settled int64
	require.Eventually(t, func() bool {
		current := tokens.calls.Load()
		if current == settled {
			return true
		}
		settled = current
		return false
	}, time.Second, 50*time.Millisecond, "fetch attempts stop")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, tokens.calls.Load(), "no fetch attempts after unmount")
}

func TestMountIsIdempotentPerSession(t *testing.T) {
	oms := &fakeOMS{}
	svc, inst := mountInstance(t, oms, &fakePayment{balance: decimal.NewFromInt(0)}, &fakeInventory{})

	again, err := svc.Mount(context.Background(), testSession())
	require.NoError(t, err)
	assert.Same(t, inst, again)
}

func TestAddToCartDenormalizesName(t *testing.T) {
	inventory := &fakeInventory{products: []backend.Product{{SKU: "SKU-1", Name: "Widget", Quantity: 5}}}
	_, inst := mountInstance(t, &fakeOMS{}, &fakePayment{balance: decimal.NewFromInt(0)}, inventory)

	item := inst.AddToCart("SKU-1")
	assert.Equal(t, "Widget", item.Name)

	note, ok := inst.Notification()
	require.True(t, ok)
	assert.Equal(t, enums.NotificationSuccess, note.Kind)
	assert.Contains(t, note.Message, "Widget")

	unknown := inst.AddToCart("SKU-MISSING")
	assert.Equal(t, "SKU-MISSING", unknown.Name, "stale catalog never blocks adding")
}

func TestCheckoutPartialFailureKeepsFailedLines(t *testing.T) {
	oms := &fakeOMS{createErr: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")}
	_, inst := mountInstance(t, oms, &fakePayment{balance: decimal.NewFromInt(0)}, &fakeInventory{})

	inst.Cart().Add("SKU-OK", "Widget")
	inst.Cart().Add("SKU-BAD", "Gadget")

	result, err := inst.Checkout(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 1)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, 1, inst.Cart().Len())
	assert.Equal(t, "SKU-BAD", inst.Cart().Items()[0].SKU)

	note, ok := inst.Notification()
	require.True(t, ok)
	assert.Equal(t, enums.NotificationWarning, note.Kind)
	assert.Contains(t, note.Message, "1 of 2")
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	oms := &fakeOMS{}
	_, inst := mountInstance(t, oms, &fakePayment{balance: decimal.NewFromInt(0)}, &fakeInventory{})

	_, err := inst.Checkout(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, int64(0), oms.creates.Load())
}

func TestPayOrderShortCircuitsOnLowBalance(t *testing.T) {
	oms := &fakeOMS{orders: []backend.Order{{
		ID: 7, CustomerID: "alice", SKU: "SKU-1", Quantity: 1,
		Status: enums.OrderStatusApproved, Amount: decimal.RequireFromString("999.00"),
	}}}
	payment := &fakePayment{balance: decimal.NewFromInt(100)}
	_, inst := mountInstance(t, oms, payment, &fakeInventory{})

	err := inst.PayOrder(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, int64(0), oms.pays.Load(), "no HTTP call when the balance is short")

	note, ok := inst.Notification()
	require.True(t, ok)
	assert.Equal(t, enums.NotificationError, note.Kind)
	assert.Contains(t, note.Message, "insufficient funds")
}

func TestPayOrderSucceedsWithSufficientBalance(t *testing.T) {
	oms := &fakeOMS{orders: []backend.Order{{
		ID: 7, Status: enums.OrderStatusApproved, Amount: decimal.RequireFromString("999.00"),
	}}}
	payment := &fakePayment{balance: decimal.NewFromInt(5000)}
	_, inst := mountInstance(t, oms, payment, &fakeInventory{})

	require.NoError(t, inst.PayOrder(context.Background(), 7))
	assert.Equal(t, int64(1), oms.pays.Load())

	note, ok := inst.Notification()
	require.True(t, ok)
	assert.Equal(t, enums.NotificationSuccess, note.Kind)
}

func TestPayOrderRejectsWrongStatus(t *testing.T) {
	oms := &fakeOMS{orders: []backend.Order{{ID: 7, Status: enums.OrderStatusCreated}}}
	_, inst := mountInstance(t, oms, &fakePayment{balance: decimal.NewFromInt(5000)}, &fakeInventory{})

	err := inst.PayOrder(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, int64(0), oms.pays.Load())
}

func TestCancelOrderOnlyWhenCreated(t *testing.T) {
	oms := &fakeOMS{orders: []backend.Order{
		{ID: 1, Status: enums.OrderStatusCreated},
		{ID: 2, Status: enums.OrderStatusPaid},
	}}
	_, inst := mountInstance(t, oms, &fakePayment{balance: decimal.NewFromInt(0)}, &fakeInventory{})

	require.NoError(t, inst.CancelOrder(context.Background(), 1))
	assert.Equal(t, int64(1), oms.cancels.Load())

	err := inst.CancelOrder(context.Background(), 2)
	require.Error(t, err)
	assert.Equal(t, int64(1), oms.cancels.Load())
}

func TestBuyNowPlacesSingleOrder(t *testing.T) {
	oms := &fakeOMS{}
	_, inst := mountInstance(t, oms, &fakePayment{balance: decimal.NewFromInt(0)}, &fakeInventory{})

	require.NoError(t, inst.BuyNow(context.Background(), "SKU-1"))
	assert.Equal(t, int64(1), oms.creates.Load())
	assert.Equal(t, 0, inst.Cart().Len(), "buy now bypasses the cart")
}

func TestAddFundsUsesConfiguredAmount(t *testing.T) {
	payment := &fakePayment{balance: decimal.NewFromInt(0)}
	_, inst := mountInstance(t, &fakeOMS{}, payment, &fakeInventory{})

	require.NoError(t, inst.AddFunds(context.Background()))
	assert.Equal(t, int64(1), payment.funds.Load())
}

func TestUnmountClearsCart(t *testing.T) {
	svc, inst := mountInstance(t, &fakeOMS{}, &fakePayment{balance: decimal.NewFromInt(0)}, &fakeInventory{})
	inst.Cart().Add("SKU-1", "Widget")

	svc.Unmount("sess-1")
	_, ok := svc.Instance("sess-1")
	assert.False(t, ok)
	assert.Equal(t, 0, inst.Cart().Len())
}
