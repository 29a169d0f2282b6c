package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func createTestWorkflow(t *testing.T, tenantID uuid.UUID, name string, cond Conditions) *ApprovalWorkflow {
	t.Helper()
	wf, err := NewApprovalWorkflow(tenantID, name, DocumentTypePurchaseRequisition,
		[]ApprovalLevel{{Level: 1, Role: "manager", Required: true}}, cond)
	require.NoError(t, err)
	return wf
}

func TestResolve_DepartmentMismatchFallsBackToDefault(t *testing.T) {
	tenantID := uuid.New()
	finance := createTestWorkflow(t, tenantID, "Finance small", Conditions{
		MinAmount:   dec(0),
		MaxAmount:   dec(1000),
		Departments: []string{"Finance"},
	})
	def := createTestWorkflow(t, tenantID, "Default", Conditions{})
	require.NoError(t, def.MarkDefault())

	got, err := Resolve([]ApprovalWorkflow{*finance, *def}, Criteria{
		DocumentType: DocumentTypePurchaseRequisition,
		Amount:       decimal.NewFromInt(500),
		Department:   "IT",
	})

	require.NoError(t, err)
	assert.Equal(t, def.ID, got.ID)
}

func TestResolve_Ordering(t *testing.T) {
	tenantID := uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	wide := createTestWorkflow(t, tenantID, "Wide", Conditions{MinAmount: dec(0), MaxAmount: dec(10000)})
	wide.CreatedAt = base
	narrow := createTestWorkflow(t, tenantID, "Narrow", Conditions{MinAmount: dec(100), MaxAmount: dec(1000)})
	narrow.CreatedAt = base.Add(time.Hour)
	unbounded := createTestWorkflow(t, tenantID, "Unbounded", Conditions{})
	unbounded.CreatedAt = base.Add(-time.Hour)
	def := createTestWorkflow(t, tenantID, "Default", Conditions{})
	require.NoError(t, def.MarkDefault())
	urgent := createTestWorkflow(t, tenantID, "Urgent", Conditions{MinAmount: dec(0), MaxAmount: dec(100000)})
	urgent.Priority = -1
	older := createTestWorkflow(t, tenantID, "Narrow older", Conditions{MinAmount: dec(0), MaxAmount: dec(900)})
	older.CreatedAt = base.Add(-2 * time.Hour)
	twin := createTestWorkflow(t, tenantID, "Narrow twin", Conditions{MinAmount: dec(0), MaxAmount: dec(900)})
	twin.CreatedAt = base.Add(2 * time.Hour)

	tests := []struct {
		name      string
		workflows []ApprovalWorkflow
		want      string
	}{
		{"conditional before default", []ApprovalWorkflow{*def, *wide}, "Wide"},
		{"narrower range first", []ApprovalWorkflow{*wide, *narrow}, "Narrow"},
		{"bounded before unbounded", []ApprovalWorkflow{*unbounded, *wide}, "Wide"},
		{"priority beats width", []ApprovalWorkflow{*narrow, *urgent}, "Urgent"},
		{"creation time breaks ties", []ApprovalWorkflow{*twin, *older}, "Narrow older"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.workflows, Criteria{
				DocumentType: DocumentTypePurchaseRequisition,
				Amount:       decimal.NewFromInt(500),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestResolve_Filters(t *testing.T) {
	tenantID := uuid.New()
	it := createTestWorkflow(t, tenantID, "IT hardware", Conditions{
		Departments: []string{"IT"},
		Categories:  []string{"Hardware"},
	})
	inactive := createTestWorkflow(t, tenantID, "Inactive", Conditions{})
	require.NoError(t, inactive.Deactivate())
	big := createTestWorkflow(t, tenantID, "Large", Conditions{MinAmount: dec(5000)})

	tests := []struct {
		name     string
		criteria Criteria
		want     string
		wantErr  bool
	}{
		{"department and category match case-insensitively", Criteria{Department: "it", Category: "hardware", Amount: decimal.NewFromInt(10)}, "IT hardware", false},
		{"category excluded", Criteria{Department: "IT", Category: "Software", Amount: decimal.NewFromInt(10)}, "", true},
		{"amount range selects", Criteria{Department: "HR", Amount: decimal.NewFromInt(6000)}, "Large", false},
		{"below min amount", Criteria{Department: "HR", Amount: decimal.NewFromInt(10)}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.criteria.DocumentType = DocumentTypePurchaseRequisition
			got, err := Resolve([]ApprovalWorkflow{*it, *inactive, *big}, tt.criteria)
			if tt.wantErr {
				assert.True(t, errors.Is(err, shared.ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestResolve_DefaultReturnedRegardlessOfConditions(t *testing.T) {
	tenantID := uuid.New()
	def := createTestWorkflow(t, tenantID, "Default", Conditions{MaxAmount: dec(10)})
	require.NoError(t, def.MarkDefault())

	got, err := Resolve([]ApprovalWorkflow{*def}, Criteria{
		DocumentType: DocumentTypePurchaseRequisition,
		Amount:       decimal.NewFromInt(99999),
	})
	require.NoError(t, err)
	assert.Equal(t, def.ID, got.ID)
}

func TestResolve_IgnoresOtherDocumentTypes(t *testing.T) {
	tenantID := uuid.New()
	wf := createTestWorkflow(t, tenantID, "PR", Conditions{})

	_, err := Resolve([]ApprovalWorkflow{*wf}, Criteria{DocumentType: DocumentTypePurchaseOrder})
	assert.True(t, errors.Is(err, ErrNoWorkflow))
}

// mockWorkflowRepository is an in-memory ApprovalWorkflowRepository
type mockWorkflowRepository struct {
	workflows map[uuid.UUID]*ApprovalWorkflow
	err       error
}

func newMockWorkflowRepository(wfs ...*ApprovalWorkflow) *mockWorkflowRepository {
	m := &mockWorkflowRepository{workflows: make(map[uuid.UUID]*ApprovalWorkflow)}
	for _, wf := range wfs {
		m.workflows[wf.ID] = wf
	}
	return m
}

func (m *mockWorkflowRepository) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ApprovalWorkflow, error) {
	wf, ok := m.workflows[id]
	if !ok || wf.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return wf, nil
}

func (m *mockWorkflowRepository) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]ApprovalWorkflow, int64, error) {
	var out []ApprovalWorkflow
	for _, wf := range m.workflows {
		if wf.TenantID == tenantID {
			out = append(out, *wf)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockWorkflowRepository) FindActiveByDocumentType(_ context.Context, tenantID uuid.UUID, docType DocumentType) ([]ApprovalWorkflow, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []ApprovalWorkflow
	for _, wf := range m.workflows {
		if wf.TenantID == tenantID && wf.DocumentType == docType && wf.IsActive {
			out = append(out, *wf)
		}
	}
	return out, nil
}

func (m *mockWorkflowRepository) FindDefault(_ context.Context, tenantID uuid.UUID, docType DocumentType) (*ApprovalWorkflow, error) {
	for _, wf := range m.workflows {
		if wf.TenantID == tenantID && wf.DocumentType == docType && wf.IsDefault {
			return wf, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockWorkflowRepository) Save(_ context.Context, wf *ApprovalWorkflow) error {
	m.workflows[wf.ID] = wf
	return nil
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	wf := createTestWorkflow(t, tenantID, "Only", Conditions{})
	resolver := NewResolver(newMockWorkflowRepository(wf))

	t.Run("resolves within tenant", func(t *testing.T) {
		got, err := resolver.Resolve(ctx, tenantID, Criteria{DocumentType: DocumentTypePurchaseRequisition})
		require.NoError(t, err)
		assert.Equal(t, wf.ID, got.ID)
	})

	t.Run("other tenant has no workflows", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, uuid.New(), Criteria{DocumentType: DocumentTypePurchaseRequisition})
		assert.True(t, errors.Is(err, ErrNoWorkflow))
	})

	t.Run("invalid document type", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, tenantID, Criteria{DocumentType: "Invoice"})
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestPlanner_NoWorkflowPolicies(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(newMockWorkflowRepository())
	criteria := Criteria{DocumentType: DocumentTypePurchaseRequisition}

	t.Run("single", func(t *testing.T) {
		plan, err := NewPlanner(resolver, ApprovalModeSequential, NoWorkflowSingle).Plan(ctx, uuid.New(), criteria)
		require.NoError(t, err)
		assert.Nil(t, plan.WorkflowID)
		assert.Len(t, plan.Levels, 1)
		assert.Equal(t, 1, plan.RequiredLevels())
	})

	t.Run("auto approve", func(t *testing.T) {
		plan, err := NewPlanner(resolver, ApprovalModeSequential, NoWorkflowAutoApprove).Plan(ctx, uuid.New(), criteria)
		require.NoError(t, err)
		assert.True(t, plan.AutoApprove)
		assert.Equal(t, 0, plan.RequiredLevels())
	})

	t.Run("reject", func(t *testing.T) {
		_, err := NewPlanner(resolver, ApprovalModeSequential, NoWorkflowReject).Plan(ctx, uuid.New(), criteria)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		repo := newMockWorkflowRepository()
		repo.err = errors.New("db down")
		_, err := NewPlanner(NewResolver(repo), ApprovalModeSequential, NoWorkflowSingle).Plan(ctx, uuid.New(), criteria)
		assert.EqualError(t, err, "db down")
	})
}

func TestPlanner_SnapshotsWorkflow(t *testing.T) {
	tenantID := uuid.New()
	wf := createTestWorkflow(t, tenantID, "Snap", Conditions{})
	planner := NewPlanner(NewResolver(newMockWorkflowRepository(wf)), ApprovalModeSingle, NoWorkflowSingle)

	plan, err := planner.Plan(context.Background(), tenantID, Criteria{DocumentType: DocumentTypePurchaseRequisition})
	require.NoError(t, err)
	require.NotNil(t, plan.WorkflowID)
	assert.Equal(t, wf.ID, *plan.WorkflowID)
	assert.Equal(t, ApprovalModeSingle, plan.Mode)

	wf.Levels[0].Role = "changed"
	assert.Equal(t, "manager", plan.Levels[0].Role)
}
