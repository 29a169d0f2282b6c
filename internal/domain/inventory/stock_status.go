package inventory

import (
	"time"
)

// StockStatus is a derived view of a record's quantity against its levels.
// It is never persisted.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "IN_STOCK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusOverstock  StockStatus = "OVERSTOCK"
)

// String returns the string representation of StockStatus
func (s StockStatus) String() string {
	return string(s)
}

// IsValid returns true if the stock status is valid
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock, StockStatusOverstock:
		return true
	}
	return false
}

// IsOutOfStock returns true when nothing is on hand
func (r *InventoryRecord) IsOutOfStock() bool {
	return r.Quantity.IsZero()
}

// IsLowStock returns true when 0 < quantity <= reorder level
func (r *InventoryRecord) IsLowStock() bool {
	return r.Quantity.IsPositive() && r.Quantity.LessThanOrEqual(r.ReorderLevel)
}

// IsOverstock returns true when a maximum is set and quantity has reached it
func (r *InventoryRecord) IsOverstock() bool {
	return r.MaxStockLevel != nil && r.Quantity.GreaterThanOrEqual(*r.MaxStockLevel)
}

// StockStatus classifies the record. Out-of-stock wins over overstock,
// which wins over low-stock.
func (r *InventoryRecord) StockStatus() StockStatus {
	switch {
	case r.IsOutOfStock():
		return StockStatusOutOfStock
	case r.IsOverstock():
		return StockStatusOverstock
	case r.IsLowStock():
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// DaysUntilExpiry returns the calendar-day difference between now and the
// expiry date. Negative values mean the stock has already expired.
// The second return value is false when no expiry date is set.
func (r *InventoryRecord) DaysUntilExpiry(now time.Time) (int, bool) {
	if r.ExpiryDate == nil {
		return 0, false
	}
	return calendarDaysBetween(now, *r.ExpiryDate), true
}

// IsExpiringWithin returns true if the record expires within the given number of days
func (r *InventoryRecord) IsExpiringWithin(now time.Time, days int) bool {
	d, ok := r.DaysUntilExpiry(now)
	return ok && d <= days
}

func calendarDaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
