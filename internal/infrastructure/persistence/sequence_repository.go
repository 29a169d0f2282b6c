package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceGenerator hands out document numbers from the document_sequences table.
// The counter row is upserted and incremented in one statement, so two transactions
// drawing from the same (tenant, kind, year) serialize on the row lock until the
// first one ends. Construct it on the transaction handle so a rollback returns the value.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// Next increments and returns the counter for (tenantID, kind, year)
func (g *GormSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, kind procurement.DocumentKind, year int) (int64, error) {
	row := models.DocumentSequenceModel{
		TenantID:  tenantID,
		Kind:      kind.String(),
		Year:      year,
		LastValue: 1,
		UpdatedAt: time.Now().UTC(),
	}

	db := g.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "kind"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_value": gorm.Expr("document_sequences.last_value + 1"),
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("increment %s sequence: %w", kind, err)
	}

	var last int64
	if err := db.Model(&models.DocumentSequenceModel{}).
		Where("tenant_id = ? AND kind = ? AND year = ?", tenantID, kind.String(), year).
		Pluck("last_value", &last).Error; err != nil {
		return 0, fmt.Errorf("read %s sequence: %w", kind, err)
	}
	return last, nil
}

// Ensure GormSequenceGenerator implements SequenceGenerator
var _ procurement.SequenceGenerator = (*GormSequenceGenerator)(nil)
