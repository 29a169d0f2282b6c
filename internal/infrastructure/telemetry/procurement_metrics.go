package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ProcurementMetrics records business metrics for requisitions, purchase orders
// and the inventory ledger.
//
// Every Record method is safe to call on a nil *ProcurementMetrics, so services
// can hold an optional recorder without nil checks at each call site.
type ProcurementMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	requisitionTransitions *Counter
	orderTransitions       *Counter
	conversionTotal        *Counter
	conversionAmount       *Counter
	inventoryMovements     *Counter
	movementQuantity       *Histogram
	concurrencyConflicts   *Counter
	escalations            *Counter

	reservedQuantity *FloatGauge
	lowStockCount    *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider supplies inventory state for periodic gauge collection.
// It keeps the telemetry layer independent of the inventory domain.
type StockMetricsProvider interface {
	// GetActiveTenantIDs returns tenants that hold inventory records
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)

	// GetReservedQuantityByWarehouse returns reserved quantity per warehouse for a tenant
	GetReservedQuantityByWarehouse(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// GetLowStockCount counts records with 0 < quantity <= reorder level
	GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// ProcurementMetricsConfig holds configuration for procurement metrics.
type ProcurementMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider StockMetricsProvider
}

// NewProcurementMetrics creates a new ProcurementMetrics instance.
func NewProcurementMetrics(cfg ProcurementMetricsConfig) (*ProcurementMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &ProcurementMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&pm.requisitionTransitions, "procurement_requisition_transitions_total", "Requisition state transitions", "{transitions}"},
		{&pm.orderTransitions, "procurement_order_transitions_total", "Purchase order state transitions", "{transitions}"},
		{&pm.conversionTotal, "procurement_conversion_total", "Requisitions converted into purchase orders", "{conversions}"},
		{&pm.conversionAmount, "procurement_conversion_amount_total", "Converted requisition amount in cents", "{cents}"},
		{&pm.inventoryMovements, "procurement_inventory_movements_total", "Inventory ledger entries posted", "{entries}"},
		{&pm.concurrencyConflicts, "procurement_concurrency_conflicts_total", "Optimistic lock conflicts on aggregate writes", "{conflicts}"},
		{&pm.escalations, "procurement_approval_escalations_total", "Overdue approval levels handled by the escalation job", "{escalations}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	pm.movementQuantity, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "procurement_inventory_movement_quantity",
		Description: "Absolute quantity of inventory ledger entries",
		Unit:        "{units}",
		Boundaries:  MovementQuantityBuckets,
	})
	if err != nil {
		return nil, err
	}

	pm.reservedQuantity, err = NewFloatGauge(
		cfg.Meter,
		"procurement_inventory_reserved_quantity",
		"Current reserved inventory quantity",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	pm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"procurement_inventory_low_stock_count",
		"Number of inventory records at or below their reorder level",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordRequisitionTransition records a requisition reaching status.
func (pm *ProcurementMetrics) RecordRequisitionTransition(ctx context.Context, tenantID uuid.UUID, status string) {
	if pm == nil {
		return
	}
	pm.requisitionTransitions.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentStatus.String(status),
	)
}

// RecordOrderTransition records a purchase order reaching status.
func (pm *ProcurementMetrics) RecordOrderTransition(ctx context.Context, tenantID uuid.UUID, status string) {
	if pm == nil {
		return
	}
	pm.orderTransitions.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentStatus.String(status),
	)
}

// RecordConversion records one requisition turned into a purchase order.
// The amount is recorded in cents.
func (pm *ProcurementMetrics) RecordConversion(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal) {
	if pm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String())}
	pm.conversionTotal.Inc(ctx, attrs...)
	pm.conversionAmount.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// RecordInventoryMovement records a posted ledger entry of txType.
func (pm *ProcurementMetrics) RecordInventoryMovement(ctx context.Context, tenantID uuid.UUID, txType string, quantity decimal.Decimal) {
	if pm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrTransactionType.String(txType),
	}
	pm.inventoryMovements.Inc(ctx, attrs...)
	pm.movementQuantity.Record(ctx, quantity.Abs().InexactFloat64(), attrs...)
}

// RecordConcurrencyConflict records a lost optimistic-lock race on aggregate.
func (pm *ProcurementMetrics) RecordConcurrencyConflict(ctx context.Context, aggregate string) {
	if pm == nil {
		return
	}
	pm.concurrencyConflicts.Inc(ctx, AttrAggregateType.String(aggregate))
}

// RecordEscalation records the outcome of one overdue approval level.
func (pm *ProcurementMetrics) RecordEscalation(ctx context.Context, tenantID uuid.UUID, outcome string) {
	if pm == nil {
		return
	}
	pm.escalations.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrEscalationOutcome.String(outcome),
	)
}

// RecordReservedQuantity records the reserved quantity of a warehouse.
func (pm *ProcurementMetrics) RecordReservedQuantity(ctx context.Context, tenantID, warehouseID uuid.UUID, quantity decimal.Decimal) {
	if pm == nil {
		return
	}
	pm.reservedQuantity.Record(ctx, quantity.InexactFloat64(),
		AttrTenantID.String(tenantID.String()),
		AttrWarehouseID.String(warehouseID.String()),
	)
}

// RecordLowStockCount records the number of low-stock records of a tenant.
func (pm *ProcurementMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	if pm == nil {
		return
	}
	pm.lowStockCount.Record(ctx, count, AttrTenantID.String(tenantID.String()))
}

// StartPeriodicCollection collects the stock gauges every interval (default 5 minutes)
// until Stop is called or ctx is cancelled. It does not block.
func (pm *ProcurementMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if pm == nil {
		return
	}
	pm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go pm.runPeriodicCollection(ctx, interval)
	})
}

func (pm *ProcurementMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pm.collectStockMetrics(ctx)

	for {
		select {
		case <-pm.stopChan:
			pm.logger.Info("Stopping periodic stock metrics collection")
			return
		case <-ctx.Done():
			pm.logger.Info("Context cancelled, stopping periodic stock metrics collection")
			return
		case <-ticker.C:
			pm.collectStockMetrics(ctx)
		}
	}
}

func (pm *ProcurementMetrics) collectStockMetrics(ctx context.Context) {
	if pm.stockProvider == nil {
		pm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	tenantIDs, err := pm.stockProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		pm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		reserved, err := pm.stockProvider.GetReservedQuantityByWarehouse(ctx, tenantID)
		if err != nil {
			pm.logger.Warn("Failed to get reserved quantity for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		} else {
			for warehouseID, quantity := range reserved {
				pm.RecordReservedQuantity(ctx, tenantID, warehouseID, quantity)
			}
		}

		lowStock, err := pm.stockProvider.GetLowStockCount(ctx, tenantID)
		if err != nil {
			pm.logger.Warn("Failed to get low stock count for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		pm.RecordLowStockCount(ctx, tenantID, lowStock)
	}
}

// Stop stops the periodic collection.
func (pm *ProcurementMetrics) Stop() {
	if pm == nil {
		return
	}
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewProcurementMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Procurement attribute keys not already defined in metrics.go
var (
	AttrDocumentStatus    = attribute.Key("document_status")
	AttrTransactionType   = attribute.Key("transaction_type")
	AttrAggregateType     = attribute.Key("aggregate_type")
	AttrEscalationOutcome = attribute.Key("escalation_outcome")
)

// MovementQuantityBuckets are bucket boundaries for ledger entry quantities.
var MovementQuantityBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000}
