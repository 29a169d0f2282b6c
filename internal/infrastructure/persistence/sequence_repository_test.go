package persistence

import (
	"context"
	"errors"
	"testing"

	appproc "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSequenceGenerator_Next(t *testing.T) {
	db := newTestDB(t)
	gen := NewGormSequenceGenerator(db)
	ctx := context.Background()
	tenantID := uuid.New()

	for want := int64(1); want <= 3; want++ {
		got, err := gen.Next(ctx, tenantID, procurement.DocumentKindRequisition, 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	tests := []struct {
		name   string
		tenant uuid.UUID
		kind   procurement.DocumentKind
		year   int
	}{
		{"other kind", tenantID, procurement.DocumentKindPurchaseOrder, 2026},
		{"other year", tenantID, procurement.DocumentKindRequisition, 2027},
		{"other tenant", uuid.New(), procurement.DocumentKindRequisition, 2026},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gen.Next(ctx, tt.tenant, tt.kind, tt.year)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got)
		})
	}

	number, err := procurement.NextDocumentNumber(ctx, gen, tenantID, procurement.DocumentKindRequisition, 2026)
	require.NoError(t, err)
	assert.Equal(t, "PR-2026-00004", number)
}

func TestGormSequenceGenerator_RollbackReturnsValue(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormProcurementTransactionScope(db)
	ctx := context.Background()
	tenantID := uuid.New()
	errAbort := errors.New("abort")

	err := scope.Execute(ctx, func(repos appproc.TransactionalRepositories) error {
		got, err := repos.Sequences().Next(ctx, tenantID, procurement.DocumentKindPurchaseOrder, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	err = scope.Execute(ctx, func(repos appproc.TransactionalRepositories) error {
		got, err := repos.Sequences().Next(ctx, tenantID, procurement.DocumentKindPurchaseOrder, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
		return nil
	})
	require.NoError(t, err)

	got, err := NewGormSequenceGenerator(db).Next(ctx, tenantID, procurement.DocumentKindPurchaseOrder, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}
