package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// inventoryRecordRow mirrors the columns the stock provider reads
type inventoryRecordRow struct {
	ID               uint            `gorm:"primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:text"`
	WarehouseID      uuid.UUID       `gorm:"type:text"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4)"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4)"`
	ReorderLevel     decimal.Decimal `gorm:"type:decimal(18,4)"`
}

func (inventoryRecordRow) TableName() string { return "inventory_records" }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&inventoryRecordRow{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
	assert.Nil(t, db.Callback().Query().Get("otel_slow_query:after_query"))
}

func TestRegisterDBTracing_InstallsCallbacks(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true}, zap.NewNop()))
	assert.NotNil(t, db.Callback().Query().Get("otel_slow_query:after_query"))
	assert.NotNil(t, db.Callback().Raw().Get("otel_slow_query:before_raw"))

	var count int64
	require.NoError(t, db.Model(&inventoryRecordRow{}).Count(&count).Error)
}

func TestAnnotateStatementSpan(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "gorm.Update")
	tx := db.WithContext(ctx)
	tx.Statement.Table = "inventory_records"
	tx.Statement.RowsAffected = 2
	tx.Error = errors.New("deadlock detected")

	annotateStatementSpan(tx, 300*time.Millisecond, 200*time.Millisecond)
	span.End()

	s := recorder.Ended()[0]
	attrs := attrMap(s.Attributes())
	assert.Equal(t, "2", attrs["db.rows_affected"])
	assert.Equal(t, "inventory_records", attrs["db.sql.table"])
	assert.Equal(t, "true", attrs["db.slow_query"])
	assert.Equal(t, codes.Error, s.Status().Code)
	require.Len(t, s.Events(), 2)
}

func TestAnnotateStatementSpan_IgnoresNotFound(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "gorm.Query")
	tx := db.WithContext(ctx)
	tx.Error = gorm.ErrRecordNotFound

	annotateStatementSpan(tx, time.Millisecond, 200*time.Millisecond)
	span.End()

	s := recorder.Ended()[0]
	assert.NotEqual(t, codes.Error, s.Status().Code)
	assert.NotContains(t, attrMap(s.Attributes()), "db.slow_query")
}

func TestDBMetrics_RecordsQueries(t *testing.T) {
	db := setupTestDB(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewDBMetrics(mp.Meter("db.client"), DBMetricsConfig{Enabled: true}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Use(m))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&inventoryRecordRow{TenantID: uuid.New(), WarehouseID: uuid.New()}).Error)
	var rows []inventoryRecordRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	require.NoError(t, db.WithContext(ctx).Exec("DELETE FROM inventory_records").Error)

	data := collect(t, reader)
	assert.Equal(t, int64(3), sumOf(t, data["db_query_total"]))
}

func TestDetectOperationType(t *testing.T) {
	assert.Equal(t, "SELECT", detectOperationType("  select 1"))
	assert.Equal(t, "UPDATE", detectOperationType("UPDATE inventory_records SET quantity = 1"))
	assert.Equal(t, "OTHER", detectOperationType("VACUUM"))
}

func TestGormStockMetricsProvider(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()
	wh1, wh2 := uuid.New(), uuid.New()

	rows := []inventoryRecordRow{
		{TenantID: tenantA, WarehouseID: wh1, Quantity: decimal.NewFromInt(5), ReservedQuantity: decimal.NewFromInt(2), ReorderLevel: decimal.NewFromInt(10)},
		{TenantID: tenantA, WarehouseID: wh1, Quantity: decimal.NewFromInt(50), ReservedQuantity: decimal.NewFromInt(3), ReorderLevel: decimal.NewFromInt(10)},
		{TenantID: tenantA, WarehouseID: wh2, Quantity: decimal.Zero, ReservedQuantity: decimal.Zero, ReorderLevel: decimal.NewFromInt(10)},
		{TenantID: tenantB, WarehouseID: wh2, Quantity: decimal.NewFromInt(1), ReservedQuantity: decimal.NewFromInt(1), ReorderLevel: decimal.Zero},
	}
	require.NoError(t, db.Create(&rows).Error)

	p := NewGormStockMetricsProvider(db)

	tenants, err := p.GetActiveTenantIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{tenantA, tenantB}, tenants)

	reserved, err := p.GetReservedQuantityByWarehouse(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, reserved, 2)
	assert.True(t, reserved[wh1].Equal(decimal.NewFromInt(5)))
	assert.True(t, reserved[wh2].IsZero())

	low, err := p.GetLowStockCount(ctx, tenantA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), low)

	low, err = p.GetLowStockCount(ctx, tenantB)
	require.NoError(t, err)
	assert.Zero(t, low)
}
