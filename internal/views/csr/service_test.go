package csr

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct{}

func (staticTokens) Token(context.Context, string) (string, error) { return "tok", nil }

type fakeOMS struct {
	pending      []backend.Order
	approveErr   error
	approves     atomic.Int64
	pendingReads atomic.Int64
}

func (f *fakeOMS) Pending(context.Context, string) ([]backend.Order, error) {
	f.pendingReads.Add(1)
	return f.pending, nil
}

func (f *fakeOMS) Approve(context.Context, string, int64) (string, error) {
	f.approves.Add(1)
	if f.approveErr != nil {
		return "", f.approveErr
	}
	return "Order APPROVED", nil
}

type fakeInventory struct {
	products     []backend.Product
	updates      atomic.Int64
	lastPut      backend.Product
	productReads atomic.Int64
}

func (f *fakeInventory) Products(context.Context, string) ([]backend.Product, error) {
	f.productReads.Add(1)
	return f.products, nil
}

func (f *fakeInventory) CreateProduct(_ context.Context, _ string, product backend.Product) (backend.Product, error) {
	return product, nil
}

func (f *fakeInventory) UpdateProduct(_ context.Context, _, _ string, product backend.Product) (backend.Product, error) {
	f.updates.Add(1)
	f.lastPut = product
	return product, nil
}

func mountInstance(t *testing.T, oms *fakeOMS, inventory *fakeInventory) *Instance {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:       logger.New(logger.Options{ServiceName: "csr-test", Level: zerolog.Disabled, Output: io.Discard}),
		OMS:          oms,
		Inventory:    inventory,
		Tokens:       staticTokens{},
		PollInterval: time.Hour,
		NotifyTTL:    time.Minute,
	})
	require.NoError(t, err)

	sess := session.Session{ID: "sess-csr", Username: "carol", Role: enums.RoleCSR, Portal: enums.PortalCsrConsole}
	inst, err := svc.Mount(context.Background(), sess)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Unmount("sess-csr") })

	require.Eventually(t, func() bool {
		_, ok := inst.Products()
		return ok
	}, time.Second, 5*time.Millisecond)
	return inst
}

func TestApproveOrderOnlyWhenCreated(t *testing.T) {
	oms := &fakeOMS{pending: []backend.Order{
		{ID: 1, Status: enums.OrderStatusCreated},
		{ID: 2, Status: enums.OrderStatusApproved},
	}}
	inst := mountInstance(t, oms, &fakeInventory{})

	require.NoError(t, inst.ApproveOrder(context.Background(), 1))
	assert.Equal(t, int64(1), oms.approves.Load())

	err := inst.ApproveOrder(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, int64(1), oms.approves.Load(), "illegal transition never reaches the OMS")
}

func TestApproveUnknownOrder(t *testing.T) {
	inst := mountInstance(t, &fakeOMS{}, &fakeInventory{})

	err := inst.ApproveOrder(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestApproveDenialSurfacesBody(t *testing.T) {
	oms := &fakeOMS{
		pending:    []backend.Order{{ID: 1, Status: enums.OrderStatusCreated}},
		approveErr: pkgerrors.New(pkgerrors.CodeForbidden, "Approval not allowed for role CUSTOMER"),
	}
	inst := mountInstance(t, oms, &fakeInventory{})

	err := inst.ApproveOrder(context.Background(), 1)
	require.Error(t, err)

	note, ok := inst.Notification()
	require.True(t, ok)
	assert.Equal(t, enums.NotificationError, note.Kind)
	assert.Equal(t, "Approval not allowed for role CUSTOMER", note.Message)
}

func TestApproveForcesImmediateRefetch(t *testing.T) {
	oms := &fakeOMS{pending: []backend.Order{{ID: 1, Status: enums.OrderStatusCreated}}}
	inst := mountInstance(t, oms, &fakeInventory{})

	before := oms.pendingReads.Load()
	require.NoError(t, inst.ApproveOrder(context.Background(), 1))

	// The poll interval is an hour, so any extra read can only come from
	// the forced refresh.
	require.Eventually(t, func() bool {
		return oms.pendingReads.Load() > before
	}, time.Second, 5*time.Millisecond, "approve re-fetches the pending list without waiting a tick")
}

func TestUpdateStockForcesImmediateRefetch(t *testing.T) {
	inventory := &fakeInventory{products: []backend.Product{{SKU: "SKU-1", Name: "Widget", Quantity: 3}}}
	inst := mountInstance(t, &fakeOMS{}, inventory)

	before := inventory.productReads.Load()
	require.NoError(t, inst.UpdateStock(context.Background(), "SKU-1", 13))

	require.Eventually(t, func() bool {
		return inventory.productReads.Load() > before
	}, time.Second, 5*time.Millisecond, "stock update re-fetches the catalog without waiting a tick")
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
		Logger:       logger.New(logger.Options{ServiceName: "csr-test", Level: zerolog.Disabled, Output: io.Discard}),
		OMS:          &fakeOMS{},
		Inventory:    &fakeInventory{},
		Tokens:       tokens,
		PollInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	sess := session.Session{ID: "sess-csr", Username: "carol", Role: enums.RoleCSR, Portal: enums.PortalCsrConsole}
	_, err = svc.Mount(context.Background(), sess)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Unmount("sess-csr") })

	require.Eventually(t, func() bool {
		_, ok := svc.Instance("sess-csr")
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

func TestUpdateStockCarriesProductName(t *testing.T) {
	inventory := &fakeInventory{products: []backend.Product{{SKU: "SKU-1", Name: "Widget", Quantity: 3}}}
	inst := mountInstance(t, &fakeOMS{}, inventory)

	require.NoError(t, inst.UpdateStock(context.Background(), "SKU-1", 10))
	assert.Equal(t, int64(1), inventory.updates.Load())
	assert.Equal(t, "Widget", inventory.lastPut.Name)
	assert.Equal(t, 10, inventory.lastPut.Quantity)

	note, ok := inst.Notification()
	require.True(t, ok)
	assert.Equal(t, enums.NotificationSuccess, note.Kind)
}

func TestUpdateStockUnknownSKU(t *testing.T) {
	inst := mountInstance(t, &fakeOMS{}, &fakeInventory{})

	err := inst.UpdateStock(context.Background(), "SKU-MISSING", 10)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestUpdateStockRejectsNegativeQuantity(t *testing.T) {
	inventory := &fakeInventory{products: []backend.Product{{SKU: "SKU-1", Name: "Widget"}}}
	inst := mountInstance(t, &fakeOMS{}, inventory)

	err := inst.UpdateStock(context.Background(), "SKU-1", -1)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, int64(0), inventory.updates.Load())
}

func TestCreateProductNotifies(t *testing.T) {
	inst := mountInstance(t, &fakeOMS{}, &fakeInventory{})

	require.NoError(t, inst.CreateProduct(context.Background(), backend.Product{SKU: "SKU-9", Name: "Gizmo", Quantity: 4}))
	note, ok := inst.Notification()
	require.True(t, ok)
	assert.Contains(t, note.Message, "SKU-9")
}
