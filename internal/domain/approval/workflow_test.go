package approval

import (
	"testing"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApprovalWorkflow(t *testing.T) {
	tenantID := uuid.New()

	t.Run("sorts levels by number", func(t *testing.T) {
		wf, err := NewApprovalWorkflow(tenantID, " Capex ", DocumentTypePurchaseRequisition, []ApprovalLevel{
			{Level: 2, Role: "director"},
			{Level: 1, Role: "manager"},
		}, Conditions{})

		require.NoError(t, err)
		assert.Equal(t, "Capex", wf.Name)
		assert.True(t, wf.IsActive)
		assert.False(t, wf.IsDefault)
		assert.Equal(t, "manager", wf.Levels[0].Role)
	})

	tests := []struct {
		name    string
		docType DocumentType
		levels  []ApprovalLevel
		cond    Conditions
		code    string
	}{
		{"no levels", DocumentTypePurchaseRequisition, nil, Conditions{}, "INVALID_LEVELS"},
		{"gap in levels", DocumentTypePurchaseRequisition, []ApprovalLevel{{Level: 1, Role: "a"}, {Level: 3, Role: "b"}}, Conditions{}, "INVALID_LEVELS"},
		{"missing role and approver", DocumentTypePurchaseRequisition, []ApprovalLevel{{Level: 1}}, Conditions{}, "INVALID_LEVELS"},
		{"auto approve without timeout", DocumentTypePurchaseRequisition, []ApprovalLevel{{Level: 1, Role: "a", AutoApprove: true}}, Conditions{}, "INVALID_LEVELS"},
		{"bad document type", DocumentType("Invoice"), []ApprovalLevel{{Level: 1, Role: "a"}}, Conditions{}, "INVALID_DOCUMENT_TYPE"},
		{"inverted range", DocumentTypePurchaseOrder, []ApprovalLevel{{Level: 1, Role: "a"}}, Conditions{MinAmount: dec(10), MaxAmount: dec(5)}, "INVALID_AMOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewApprovalWorkflow(tenantID, "wf", tt.docType, tt.levels, tt.cond)
			assert.True(t, shared.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestApprovalWorkflow_Lifecycle(t *testing.T) {
	wf := createTestWorkflow(t, uuid.New(), "wf", Conditions{})

	require.NoError(t, wf.MarkDefault())
	assert.True(t, wf.IsDefault)

	require.NoError(t, wf.Deactivate())
	assert.False(t, wf.IsActive)
	assert.False(t, wf.IsDefault, "deactivating clears default")

	err := wf.Deactivate()
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
	err = wf.MarkDefault()
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))

	require.NoError(t, wf.Activate())
	assert.True(t, wf.IsActive)
}

func TestParseModeAndPolicy(t *testing.T) {
	m, err := ParseApprovalMode("")
	require.NoError(t, err)
	assert.Equal(t, ApprovalModeSequential, m)

	_, err = ParseApprovalMode("parallel")
	assert.Error(t, err)

	p, err := ParseNoWorkflowPolicy("auto_approve")
	require.NoError(t, err)
	assert.Equal(t, NoWorkflowAutoApprove, p)

	_, err = ParseNoWorkflowPolicy("maybe")
	assert.Error(t, err)
}
