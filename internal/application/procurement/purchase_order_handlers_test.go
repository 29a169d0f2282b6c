package procurement

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSupplierNotifier mocks the supplier e-mail collaborator
type MockSupplierNotifier struct {
	mock.Mock
}

func (m *MockSupplierNotifier) NotifyPurchaseOrderSent(ctx context.Context, msg PurchaseOrderMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockSupplierDirectory mocks the supplier master data collaborator
type MockSupplierDirectory struct {
	mock.Mock
}

func (m *MockSupplierDirectory) ContactEmail(ctx context.Context, tenantID, supplierID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID, supplierID)
	return args.String(0), args.Error(1)
}

func (m *MockSupplierDirectory) IncrementOrderCount(ctx context.Context, tenantID, supplierID uuid.UUID) error {
	args := m.Called(ctx, tenantID, supplierID)
	return args.Error(0)
}

// Test helper variables
var (
	testHandlerTenantID   = uuid.New()
	testHandlerSupplierID = uuid.New()
)

func testHandlerOrder(t *testing.T, email string) *procurement.PurchaseOrder {
	t.Helper()
	item, err := procurement.NewPurchaseOrderItem(nil, "Printer paper", "box", decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)
	order, err := procurement.NewPurchaseOrder(testHandlerTenantID, "PO-2026-00001", procurement.Supplier{
		ID:    testHandlerSupplierID,
		Name:  "Paper Co",
		Email: email,
	}, []procurement.PurchaseOrderItem{item})
	require.NoError(t, err)
	require.NoError(t, order.SetCharges(decimal.NewFromInt(5), decimal.Zero))
	return order
}

func TestPurchaseOrderSentHandler_EventTypes(t *testing.T) {
	handler := NewPurchaseOrderSentHandler(nil, nil, zap.NewNop())
	assert.Equal(t, []string{procurement.EventTypePurchaseOrderSent}, handler.EventTypes())
}

func TestPurchaseOrderSentHandler_Handle_Success(t *testing.T) {
	notifier := new(MockSupplierNotifier)
	handler := NewPurchaseOrderSentHandler(notifier, nil, zap.NewNop())
	ctx := context.Background()
	event := procurement.NewPurchaseOrderSentEvent(testHandlerOrder(t, "orders@paper.example"))

	notifier.On("NotifyPurchaseOrderSent", ctx, mock.MatchedBy(func(msg PurchaseOrderMessage) bool {
		return msg.SupplierEmail == "orders@paper.example" &&
			msg.OrderNumber == "PO-2026-00001" &&
			len(msg.Lines) == 1 &&
			msg.GrandTotal.Equal(decimal.NewFromInt(55))
	})).Return(nil)

	require.NoError(t, handler.Handle(ctx, event))
	notifier.AssertExpectations(t)
}

func TestPurchaseOrderSentHandler_Handle_LooksUpEmail(t *testing.T) {
	notifier := new(MockSupplierNotifier)
	directory := new(MockSupplierDirectory)
	handler := NewPurchaseOrderSentHandler(notifier, directory, zap.NewNop())
	ctx := context.Background()
	event := procurement.NewPurchaseOrderSentEvent(testHandlerOrder(t, ""))

	directory.On("ContactEmail", ctx, testHandlerTenantID, testHandlerSupplierID).Return("sales@paper.example", nil)
	notifier.On("NotifyPurchaseOrderSent", ctx, mock.MatchedBy(func(msg PurchaseOrderMessage) bool {
		return msg.SupplierEmail == "sales@paper.example"
	})).Return(nil)

	require.NoError(t, handler.Handle(ctx, event))
	directory.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPurchaseOrderSentHandler_Handle_NoEmailSkips(t *testing.T) {
	notifier := new(MockSupplierNotifier)
	directory := new(MockSupplierDirectory)
	handler := NewPurchaseOrderSentHandler(notifier, directory, zap.NewNop())
	ctx := context.Background()
	event := procurement.NewPurchaseOrderSentEvent(testHandlerOrder(t, ""))

	directory.On("ContactEmail", ctx, testHandlerTenantID, testHandlerSupplierID).Return("", nil)

	require.NoError(t, handler.Handle(ctx, event))
	notifier.AssertNotCalled(t, "NotifyPurchaseOrderSent", mock.Anything, mock.Anything)
}

func TestPurchaseOrderSentHandler_Handle_NotifierFailureIsLogged(t *testing.T) {
	notifier := new(MockSupplierNotifier)
	handler := NewPurchaseOrderSentHandler(notifier, nil, zap.NewNop())
	ctx := context.Background()
	event := procurement.NewPurchaseOrderSentEvent(testHandlerOrder(t, "orders@paper.example"))

	notifier.On("NotifyPurchaseOrderSent", ctx, mock.Anything).Return(errors.New("smtp unavailable"))

	assert.NoError(t, handler.Handle(ctx, event))
	notifier.AssertExpectations(t)
}

func TestPurchaseOrderSentHandler_Handle_WrongEventType(t *testing.T) {
	handler := NewPurchaseOrderSentHandler(new(MockSupplierNotifier), nil, zap.NewNop())
	event := procurement.NewPurchaseOrderEvent(procurement.EventTypePurchaseOrderConfirmed, testHandlerOrder(t, ""))

	err := handler.Handle(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected event type")
}

func TestPurchaseOrderConfirmedHandler_Handle(t *testing.T) {
	ctx := context.Background()
	order := testHandlerOrder(t, "")

	t.Run("increments supplier counter", func(t *testing.T) {
		directory := new(MockSupplierDirectory)
		handler := NewPurchaseOrderConfirmedHandler(directory, zap.NewNop())
		directory.On("IncrementOrderCount", ctx, testHandlerTenantID, testHandlerSupplierID).Return(nil)

		event := procurement.NewPurchaseOrderEvent(procurement.EventTypePurchaseOrderConfirmed, order)
		require.NoError(t, handler.Handle(ctx, event))
		directory.AssertExpectations(t)
	})

	t.Run("directory failure is logged only", func(t *testing.T) {
		directory := new(MockSupplierDirectory)
		handler := NewPurchaseOrderConfirmedHandler(directory, zap.NewNop())
		directory.On("IncrementOrderCount", ctx, testHandlerTenantID, testHandlerSupplierID).Return(shared.ErrNotFound)

		event := procurement.NewPurchaseOrderEvent(procurement.EventTypePurchaseOrderConfirmed, order)
		assert.NoError(t, handler.Handle(ctx, event))
	})

	t.Run("rejects other events", func(t *testing.T) {
		handler := NewPurchaseOrderConfirmedHandler(new(MockSupplierDirectory), zap.NewNop())
		event := procurement.NewPurchaseOrderEvent(procurement.EventTypePurchaseOrderApproved, order)
		assert.Error(t, handler.Handle(ctx, event))
	})
}
