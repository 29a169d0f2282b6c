package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	procurementapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequisitionHandler_Create(t *testing.T) {
	f := newFixture(t)

	req := f.createRequisition()

	assert.Equal(t, fmt.Sprintf("PR-%d-00001", time.Now().UTC().Year()), req.RequisitionNumber)
	assert.Equal(t, "Draft", req.Status)
	assert.Equal(t, f.userID, req.RequesterID)
	assert.Equal(t, f.tenantID, req.TenantID)
	require.Len(t, req.Items, 1)
	assert.True(t, decimal.RequireFromString("2400").Equal(req.TotalAmount))
}

func TestRequisitionHandler_Create_ValidationError(t *testing.T) {
	f := newFixture(t)

	res := f.do(request{Method: http.MethodPost, Path: "/requisitions", Body: map[string]any{
		"department": "Engineering",
	}})

	res.requireError(t, http.StatusBadRequest, dto.ErrCodeValidation)
	require.NotEmpty(t, res.Body.Error.Details)
	assert.Equal(t, "title", res.Body.Error.Details[0].Field)
	assert.NotEmpty(t, res.Body.Error.RequestID)
}

func TestRequisitionHandler_GetByID(t *testing.T) {
	f := newFixture(t)
	created := f.createRequisition()

	t.Run("found", func(t *testing.T) {
		res := f.do(request{Method: http.MethodGet, Path: "/requisitions/" + created.ID.String()})
		res.requireStatus(t, http.StatusOK)

		var got procurementapp.RequisitionResponse
		res.data(t, &got)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("by number", func(t *testing.T) {
		res := f.do(request{Method: http.MethodGet, Path: "/requisitions/number/" + created.RequisitionNumber})
		res.requireStatus(t, http.StatusOK)
	})

	t.Run("unknown id", func(t *testing.T) {
		res := f.do(request{Method: http.MethodGet, Path: "/requisitions/" + uuid.NewString()})
		res.requireError(t, http.StatusNotFound, shared.CodeNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		res := f.do(request{Method: http.MethodGet, Path: "/requisitions/not-a-uuid"})
		res.requireError(t, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})

	t.Run("other tenant cannot see it", func(t *testing.T) {
		other := *f
		other.tenantID = uuid.New()
		res := other.do(request{Method: http.MethodGet, Path: "/requisitions/" + created.ID.String()})
		res.requireError(t, http.StatusNotFound, shared.CodeNotFound)
	})
}

func TestRequisitionHandler_List(t *testing.T) {
	f := newFixture(t)
	f.createRequisition()
	f.createRequisition()

	res := f.do(request{Method: http.MethodGet, Path: "/requisitions?status=Draft&page_size=1"})
	res.requireStatus(t, http.StatusOK)

	require.NotNil(t, res.Body.Meta)
	assert.Equal(t, int64(2), res.Body.Meta.Total)
	assert.Equal(t, 1, res.Body.Meta.PageSize)
	assert.Equal(t, 2, res.Body.Meta.TotalPages)

	bad := f.do(request{Method: http.MethodGet, Path: "/requisitions?status=Unknown"})
	bad.requireError(t, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestRequisitionHandler_Lifecycle(t *testing.T) {
	f := newFixture(t)
	created := f.createRequisition()
	path := "/requisitions/" + created.ID.String()

	f.do(request{Method: http.MethodPut, Path: path + "/items", Body: map[string]any{
		"items": []map[string]any{
			{"description": "Monitor", "quantity": "3", "estimated_unit_price": "200"},
			{"description": "Dock", "quantity": "3", "estimated_unit_price": "100"},
		},
	}}).requireStatus(t, http.StatusOK)

	res := f.do(request{Method: http.MethodPost, Path: path + "/submit"})
	res.requireStatus(t, http.StatusOK)
	var submitted procurementapp.RequisitionResponse
	res.data(t, &submitted)
	assert.Equal(t, "Pending", submitted.Status)
	assert.Equal(t, 1, submitted.Approval.RequiredApprovalLevels)
	assert.True(t, decimal.RequireFromString("900").Equal(submitted.TotalAmount))

	f.do(request{Method: http.MethodPost, Path: path + "/submit"}).
		requireError(t, http.StatusUnprocessableEntity, shared.CodeInvalidTransition)
	f.do(request{Method: http.MethodPut, Path: path + "/items", Body: map[string]any{
		"items": []map[string]any{{"description": "Late", "quantity": "1"}},
	}}).requireError(t, http.StatusUnprocessableEntity, shared.CodeInvalidTransition)

	res = f.do(request{Method: http.MethodPost, Path: path + "/reject", Body: map[string]any{"comment": "over budget"}})
	res.requireStatus(t, http.StatusOK)
	var rejected procurementapp.RequisitionResponse
	res.data(t, &rejected)
	assert.Equal(t, "Rejected", rejected.Status)
	assert.Equal(t, "over budget", rejected.RejectionReason)
	require.Len(t, rejected.Approval.History, 2)
	assert.Equal(t, "Rejected", rejected.Approval.History[1].Action)

	f.do(request{Method: http.MethodPost, Path: path + "/cancel"}).
		requireError(t, http.StatusUnprocessableEntity, shared.CodeInvalidTransition)
}

func TestRequisitionHandler_SubmitWithoutItems(t *testing.T) {
	f := newFixture(t)

	res := f.do(request{Method: http.MethodPost, Path: "/requisitions", Body: map[string]any{"title": "Empty"}})
	res.requireStatus(t, http.StatusCreated)
	var created procurementapp.RequisitionResponse
	res.data(t, &created)

	f.do(request{Method: http.MethodPost, Path: "/requisitions/" + created.ID.String() + "/submit"}).
		requireError(t, http.StatusUnprocessableEntity, shared.CodeNoItems)
}

func TestRequisitionHandler_Cancel(t *testing.T) {
	f := newFixture(t)
	approved := f.approvedRequisition()

	res := f.do(request{
		Method: http.MethodPost,
		Path:   "/requisitions/" + approved.ID.String() + "/cancel",
		Body:   map[string]any{"reason": "project stopped"},
	})
	res.requireStatus(t, http.StatusOK)

	var cancelled procurementapp.RequisitionResponse
	res.data(t, &cancelled)
	assert.Equal(t, "Cancelled", cancelled.Status)
	assert.Equal(t, "project stopped", cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)
}

func TestRequisitionHandler_Convert(t *testing.T) {
	f := newFixture(t)
	approved := f.approvedRequisition()
	path := "/requisitions/" + approved.ID.String() + "/convert"
	supplierID := uuid.New()
	body := map[string]any{
		"supplier_id":      supplierID.String(),
		"supplier_name":    "Acme Supplies",
		"delivery_address": "Dock 4",
	}

	res := f.do(request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Headers: map[string]string{middleware.IdempotencyKeyHeader: "convert-1"},
	})
	res.requireStatus(t, http.StatusCreated)

	var conversion procurementapp.ConversionResponse
	res.data(t, &conversion)
	assert.Equal(t, "Converted", conversion.Requisition.Status)
	require.NotNil(t, conversion.Requisition.PurchaseOrderID)
	assert.Equal(t, conversion.PurchaseOrder.ID, *conversion.Requisition.PurchaseOrderID)

	order := conversion.PurchaseOrder
	assert.Equal(t, "Draft", order.Status)
	assert.Equal(t, fmt.Sprintf("PO-%d-00001", time.Now().UTC().Year()), order.OrderNumber)
	assert.Equal(t, supplierID, order.SupplierID)
	require.NotNil(t, order.RequisitionID)
	assert.Equal(t, approved.ID, *order.RequisitionID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, approved.Items[0].ProductID, order.Items[0].ProductID)
	assert.True(t, approved.Items[0].Quantity.Equal(order.Items[0].Quantity))
	assert.True(t, decimal.RequireFromString("1200").Equal(order.Items[0].UnitPrice))
	assert.True(t, approved.TotalAmount.Equal(order.TotalAmount))

	t.Run("replayed key is a duplicate", func(t *testing.T) {
		f.do(request{
			Method:  http.MethodPost,
			Path:    path,
			Body:    body,
			Headers: map[string]string{middleware.IdempotencyKeyHeader: "convert-1"},
		}).requireError(t, http.StatusConflict, shared.CodeDuplicateRequest)
	})

	t.Run("new key reports already converted", func(t *testing.T) {
		f.do(request{
			Method:  http.MethodPost,
			Path:    path,
			Body:    body,
			Headers: map[string]string{middleware.IdempotencyKeyHeader: "convert-2"},
		}).requireError(t, http.StatusConflict, shared.CodeAlreadyConverted)
	})

	t.Run("exactly one order exists", func(t *testing.T) {
		list := f.do(request{Method: http.MethodGet, Path: "/purchase-orders?requisition_id=" + approved.ID.String()})
		list.requireStatus(t, http.StatusOK)
		assert.Equal(t, int64(1), list.Body.Meta.Total)
	})
}

func TestRequisitionHandler_Convert_NotApproved(t *testing.T) {
	f := newFixture(t)
	created := f.createRequisition()

	res := f.do(request{
		Method:  http.MethodPost,
		Path:    "/requisitions/" + created.ID.String() + "/convert",
		Body:    map[string]any{"supplier_id": uuid.NewString(), "supplier_name": "Acme"},
		Headers: map[string]string{middleware.IdempotencyKeyHeader: "k"},
	})
	res.requireError(t, http.StatusUnprocessableEntity, shared.CodeInvalidTransition)

	// the failed attempt released its key
	f.do(request{Method: http.MethodPost, Path: "/requisitions/" + created.ID.String() + "/submit"}).requireStatus(t, http.StatusOK)
	f.do(request{Method: http.MethodPost, Path: "/requisitions/" + created.ID.String() + "/approve"}).requireStatus(t, http.StatusOK)
	f.do(request{
		Method:  http.MethodPost,
		Path:    "/requisitions/" + created.ID.String() + "/convert",
		Body:    map[string]any{"supplier_id": uuid.NewString(), "supplier_name": "Acme"},
		Headers: map[string]string{middleware.IdempotencyKeyHeader: "k"},
	}).requireStatus(t, http.StatusCreated)
}

func TestRequisitionHandler_MissingIdentity(t *testing.T) {
	h := NewRequisitionHandler(nil)
	c, w := newBareContext(http.MethodPost, "/requisitions")

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
