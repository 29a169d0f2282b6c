package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const versionCheckedUpdate = `UPDATE "inventory_records" SET .+ WHERE .*tenant_id = \$\d+ AND version = \$\d+`

// newMockInventoryRepoForConcurrency creates a repository on a mocked postgres connection
func newMockInventoryRepoForConcurrency(t *testing.T) (*GormInventoryRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInventoryRepository(gormDB), mock, mockDB
}

func createTestInventoryRecordForConcurrency(t *testing.T) *inventory.InventoryRecord {
	t.Helper()
	rec, err := inventory.NewInventoryRecord(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, rec.SetLevels(decimal.NewFromInt(5), nil, nil, "B-02"))
	return rec
}

func TestSaveWithLock_OptimisticLocking(t *testing.T) {
	t.Run("successful save bumps version", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepoForConcurrency(t)
		defer mockDB.Close()

		rec := createTestInventoryRecordForConcurrency(t)

		mock.ExpectBegin()
		mock.ExpectExec(versionCheckedUpdate).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SaveWithLock(context.Background(), rec)

		require.NoError(t, err)
		assert.Equal(t, 2, rec.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected is a concurrency conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepoForConcurrency(t)
		defer mockDB.Close()

		rec := createTestInventoryRecordForConcurrency(t)
		_, err := rec.Receive(decimal.NewFromInt(3), decimal.NewFromInt(10), inventory.Movement{})
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(versionCheckedUpdate).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.SaveWithLock(context.Background(), rec)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, rec.Version)
		assert.Len(t, rec.PendingTransactions(), 1, "pending ledger entries survive a failed save")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error rolls back", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepoForConcurrency(t)
		defer mockDB.Close()

		rec := createTestInventoryRecordForConcurrency(t)

		mock.ExpectBegin()
		mock.ExpectExec(versionCheckedUpdate).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), rec)

		require.Error(t, err)
		assert.Equal(t, 1, rec.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid record never reaches the database", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepoForConcurrency(t)
		defer mockDB.Close()

		rec := createTestInventoryRecordForConcurrency(t)
		rec.ReservedQuantity = decimal.NewFromInt(-1)

		err := repo.SaveWithLock(context.Background(), rec)

		assert.True(t, shared.IsCode(err, shared.CodeInvalidAdjustment))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOversellPrevention_Domain(t *testing.T) {
	rec := createTestInventoryRecordForConcurrency(t)
	_, err := rec.Receive(decimal.NewFromInt(10), decimal.NewFromInt(10), inventory.Movement{})
	require.NoError(t, err)
	require.NoError(t, rec.Reserve(decimal.NewFromInt(6)))

	_, err = rec.Issue(decimal.NewFromInt(5), inventory.Movement{})
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(10)))

	_, err = rec.Issue(decimal.NewFromInt(4), inventory.Movement{})
	require.NoError(t, err)
	assert.True(t, rec.AvailableQuantity.IsZero())
	assert.NoError(t, rec.Validate())
}
