package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRecord(t *testing.T, onHand int64) *InventoryRecord {
	t.Helper()
	rec, err := NewInventoryRecord(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(5))
	require.NoError(t, err)
	if onHand > 0 {
		_, err = rec.Receive(decimal.NewFromInt(onHand), decimal.NewFromInt(5), Movement{Reference: "seed"})
		require.NoError(t, err)
	}
	rec.ClearPendingTransactions()
	rec.ClearDomainEvents()
	return rec
}

func assertInvariants(t *testing.T, rec *InventoryRecord) {
	t.Helper()
	require.NoError(t, rec.Validate())
	assert.True(t, rec.AvailableQuantity.Equal(rec.Quantity.Sub(rec.ReservedQuantity)))
	assert.False(t, rec.Quantity.IsNegative())
	assert.False(t, rec.ReservedQuantity.IsNegative())
}

func TestNewInventoryRecord(t *testing.T) {
	tenantID, productID, warehouseID := uuid.New(), uuid.New(), uuid.New()

	t.Run("creates empty record", func(t *testing.T) {
		rec, err := NewInventoryRecord(tenantID, productID, warehouseID, decimal.NewFromFloat(2.5))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, rec.ID)
		assert.True(t, rec.Quantity.IsZero())
		assert.True(t, rec.AvailableQuantity.IsZero())
		assert.True(t, rec.TotalValue.IsZero())
		assert.Equal(t, 1, rec.Version)
		assertInvariants(t, rec)
	})

	t.Run("fails with nil product ID", func(t *testing.T) {
		rec, err := NewInventoryRecord(tenantID, uuid.Nil, warehouseID, decimal.Zero)
		require.Error(t, err)
		assert.Nil(t, rec)
		assert.Contains(t, err.Error(), "Product ID")
	})

	t.Run("fails with negative cost", func(t *testing.T) {
		_, err := NewInventoryRecord(tenantID, productID, warehouseID, decimal.NewFromInt(-1))
		require.Error(t, err)
	})
}

func TestInventoryRecord_AddTransaction(t *testing.T) {
	tests := []struct {
		name     string
		txType   TransactionType
		qty      int64
		wantCode string
		wantQty  int64
	}{
		{"receipt adds stock", TransactionTypeReceipt, 4, "", 14},
		{"return adds stock", TransactionTypeReturn, 1, "", 11},
		{"issue removes stock", TransactionTypeIssue, -3, "", 7},
		{"issue of all available", TransactionTypeIssue, -10, "", 0},
		{"issue beyond available", TransactionTypeIssue, -11, shared.CodeInsufficientStock, 10},
		{"negative receipt", TransactionTypeReceipt, -1, "INVALID_QUANTITY", 10},
		{"positive issue", TransactionTypeIssue, 1, "INVALID_QUANTITY", 10},
		{"zero quantity", TransactionTypeAdjustment, 0, "INVALID_QUANTITY", 10},
		{"unknown type", TransactionType("Scrap"), 1, shared.CodeValidation, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := createTestRecord(t, 10)

			entry, err := rec.AddTransaction(tt.txType, decimal.NewFromInt(tt.qty), Movement{Reference: "REF-1"})

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, shared.IsCode(err, tt.wantCode), "got %v", err)
				assert.Empty(t, rec.PendingTransactions())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.txType, entry.Type)
				assert.True(t, entry.BalanceBefore.Equal(decimal.NewFromInt(10)))
				assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(tt.wantQty)))
				assert.Equal(t, SourceTypeManual, entry.SourceType)
				assert.Len(t, rec.PendingTransactions(), 1)
			}
			assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(tt.wantQty)))
			assertInvariants(t, rec)
		})
	}
}

func TestInventoryRecord_IssueRespectsReservation(t *testing.T) {
	rec := createTestRecord(t, 10)
	require.NoError(t, rec.Reserve(decimal.NewFromInt(8)))

	_, err := rec.Issue(decimal.NewFromInt(3), Movement{})
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

	_, err = rec.Issue(decimal.NewFromInt(2), Movement{})
	require.NoError(t, err)
	assert.True(t, rec.AvailableQuantity.IsZero())
	assertInvariants(t, rec)
}

func TestInventoryRecord_Receive(t *testing.T) {
	rec := createTestRecord(t, 0)
	by := uuid.New()
	poID := uuid.New()

	entry, err := rec.Receive(decimal.NewFromInt(6), decimal.NewFromInt(5), Movement{
		Reference:   "PO-2024-00001",
		SourceType:  SourceTypePurchaseOrder,
		SourceID:    &poID,
		PerformedBy: by,
	})

	require.NoError(t, err)
	assert.Equal(t, TransactionTypeReceipt, entry.Type)
	require.NotNil(t, entry.PerformedBy)
	assert.Equal(t, by, *entry.PerformedBy)
	assert.True(t, rec.TotalValue.Equal(decimal.NewFromInt(30)))
	assert.Len(t, rec.GetDomainEvents(), 1)
	assertInvariants(t, rec)

	t.Run("sets unit cost to receipt price", func(t *testing.T) {
		_, err := rec.Receive(decimal.NewFromInt(4), decimal.NewFromInt(7), Movement{})
		require.NoError(t, err)
		assert.True(t, rec.UnitCost.Equal(decimal.NewFromInt(7)))
		assert.True(t, rec.TotalValue.Equal(decimal.NewFromInt(70)))
	})
}

func TestInventoryRecord_Adjust(t *testing.T) {
	t.Run("adjust to exactly zero succeeds", func(t *testing.T) {
		rec := createTestRecord(t, 5)

		entry, err := rec.Adjust(decimal.NewFromInt(-5), "damaged", Movement{})

		require.NoError(t, err)
		assert.Equal(t, TransactionTypeAdjustment, entry.Type)
		assert.True(t, rec.Quantity.IsZero())
		assert.Equal(t, "damaged", entry.Notes)
		assertInvariants(t, rec)
	})

	t.Run("adjust below zero fails and leaves quantity unchanged", func(t *testing.T) {
		rec := createTestRecord(t, 5)

		_, err := rec.Adjust(decimal.NewFromInt(-6), "damaged", Movement{})

		assert.True(t, errors.Is(err, shared.ErrInvalidAdjustment))
		assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(5)))
		assert.Empty(t, rec.PendingTransactions())
	})

	t.Run("adjust below reserved fails", func(t *testing.T) {
		rec := createTestRecord(t, 5)
		require.NoError(t, rec.Reserve(decimal.NewFromInt(3)))

		_, err := rec.Adjust(decimal.NewFromInt(-3), "count", Movement{})

		assert.True(t, shared.IsCode(err, shared.CodeInvalidAdjustment))
		assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(5)))
	})

	t.Run("reason is required", func(t *testing.T) {
		rec := createTestRecord(t, 5)
		_, err := rec.Adjust(decimal.NewFromInt(1), "", Movement{})
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("notes are prefixed with reason", func(t *testing.T) {
		rec := createTestRecord(t, 5)
		entry, err := rec.Adjust(decimal.NewFromInt(2), "count", Movement{Notes: "aisle 4"})
		require.NoError(t, err)
		assert.Equal(t, "count: aisle 4", entry.Notes)
		assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(7)))
	})
}

func TestInventoryRecord_TransferRoundTrip(t *testing.T) {
	a := createTestRecord(t, 10)
	b, err := NewInventoryRecord(a.TenantID, a.ProductID, uuid.New(), a.UnitCost)
	require.NoError(t, err)

	_, err = a.TransferOut(decimal.NewFromInt(4), Movement{CounterpartWarehouseID: &b.WarehouseID})
	require.NoError(t, err)
	_, err = b.TransferIn(decimal.NewFromInt(4), Movement{CounterpartWarehouseID: &a.WarehouseID})
	require.NoError(t, err)

	_, err = b.TransferOut(decimal.NewFromInt(4), Movement{})
	require.NoError(t, err)
	_, err = a.TransferIn(decimal.NewFromInt(4), Movement{})
	require.NoError(t, err)

	assert.True(t, a.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, b.Quantity.IsZero())
	assert.Len(t, a.PendingTransactions(), 2)
	assert.Len(t, b.PendingTransactions(), 2)
	assertInvariants(t, a)
	assertInvariants(t, b)
}

func TestInventoryRecord_TransferOutOverdraw(t *testing.T) {
	rec := createTestRecord(t, 5)

	_, err := rec.TransferOut(decimal.NewFromInt(6), Movement{})

	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(5)))
	assert.Empty(t, rec.PendingTransactions())
}

func TestInventoryRecord_ReserveRelease(t *testing.T) {
	rec := createTestRecord(t, 10)

	require.NoError(t, rec.Reserve(decimal.NewFromInt(4)))
	assert.True(t, rec.AvailableQuantity.Equal(decimal.NewFromInt(6)))
	assertInvariants(t, rec)

	err := rec.Reserve(decimal.NewFromInt(7))
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))

	err = rec.Release(decimal.NewFromInt(5))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidAdjustment))

	require.NoError(t, rec.Release(decimal.NewFromInt(4)))
	assert.True(t, rec.ReservedQuantity.IsZero())
	assertInvariants(t, rec)

	events := rec.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeStockReserved, events[0].EventType())
	assert.Equal(t, EventTypeStockReleased, events[1].EventType())
}

func TestInventoryRecord_StockStatus(t *testing.T) {
	maxLevel := decimal.NewFromInt(20)

	tests := []struct {
		name   string
		onHand int64
		max    *decimal.Decimal
		want   StockStatus
	}{
		{"out of stock", 0, nil, StockStatusOutOfStock},
		{"low at reorder level", 5, nil, StockStatusLowStock},
		{"low below reorder level", 1, nil, StockStatusLowStock},
		{"in stock", 6, &maxLevel, StockStatusInStock},
		{"overstock at max", 20, &maxLevel, StockStatusOverstock},
		{"no max never overstock", 500, nil, StockStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := createTestRecord(t, tt.onHand)
			require.NoError(t, rec.SetLevels(decimal.NewFromInt(5), tt.max, nil, ""))
			assert.Equal(t, tt.want, rec.StockStatus())
		})
	}
}

func TestInventoryRecord_ReorderLevelEvent(t *testing.T) {
	rec := createTestRecord(t, 10)
	require.NoError(t, rec.SetLevels(decimal.NewFromInt(3), nil, nil, "A-01"))

	_, err := rec.Issue(decimal.NewFromInt(7), Movement{})
	require.NoError(t, err)

	events := rec.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeStockMoved, events[0].EventType())
	assert.Equal(t, EventTypeReorderLevelReached, events[1].EventType())
}

func TestInventoryRecord_SetLevels(t *testing.T) {
	rec := createTestRecord(t, 0)
	low := decimal.NewFromInt(2)

	err := rec.SetLevels(decimal.NewFromInt(5), &low, nil, "")
	assert.Error(t, err)

	err = rec.SetLevels(decimal.NewFromInt(-1), nil, nil, "")
	assert.Error(t, err)
}

func TestInventoryRecord_DaysUntilExpiry(t *testing.T) {
	rec := createTestRecord(t, 1)
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	_, ok := rec.DaysUntilExpiry(now)
	assert.False(t, ok)

	expiry := time.Date(2024, 3, 12, 1, 0, 0, 0, time.UTC)
	rec.ExpiryDate = &expiry

	days, ok := rec.DaysUntilExpiry(now)
	assert.True(t, ok)
	assert.Equal(t, 2, days)
	assert.True(t, rec.IsExpiringWithin(now, 2))
	assert.False(t, rec.IsExpiringWithin(now, 1))

	past := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	rec.ExpiryDate = &past
	days, _ = rec.DaysUntilExpiry(now)
	assert.Equal(t, -1, days)
}

func TestInventoryRecord_RejectsExcessScale(t *testing.T) {
	tiny := decimal.RequireFromString("0.00004")

	_, err := NewInventoryRecord(uuid.New(), uuid.New(), uuid.New(), tiny)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidPrecision))

	rec := createTestRecord(t, 10)
	_, err = rec.Receive(tiny, decimal.NewFromInt(5), Movement{})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidPrecision))
	_, err = rec.Receive(decimal.NewFromInt(1), decimal.RequireFromString("5.00001"), Movement{})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidPrecision))
	_, err = rec.Issue(tiny, Movement{})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidPrecision))
	_, err = rec.Adjust(tiny.Neg(), "count", Movement{})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidPrecision))
	assert.True(t, shared.IsCode(rec.Reserve(tiny), shared.CodeInvalidPrecision))
	assert.True(t, shared.IsCode(rec.SetLevels(tiny, nil, nil, ""), shared.CodeInvalidPrecision))

	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, rec.UnitCost.Equal(decimal.NewFromInt(5)))
	assert.Empty(t, rec.PendingTransactions())
	assertInvariants(t, rec)
}
