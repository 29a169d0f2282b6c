package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	approvalapp "github.com/erp/procurement/internal/application/approval"
	inventoryapp "github.com/erp/procurement/internal/application/inventory"
	procurementapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/infrastructure/cache"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// fixture serves the handlers over real services backed by an in-memory SQLite database
type fixture struct {
	t        *testing.T
	engine   *gin.Engine
	db       *persistence.Database
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := persistence.NewSQLiteDatabase(fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8]), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	workflowRepo := persistence.NewGormApprovalWorkflowRepository(db.DB)
	planner := approval.NewPlanner(approval.NewResolver(workflowRepo), approval.ApprovalModeSequential, approval.NoWorkflowSingle)
	systemApprover := uuid.New()
	procurementScope := persistence.NewGormProcurementTransactionScope(db.DB)

	workflowService := approvalapp.NewWorkflowService(workflowRepo, persistence.NewGormApprovalTransactionScope(db.DB), nil)
	requisitionService := procurementapp.NewRequisitionService(
		persistence.NewGormRequisitionRepository(db.DB), procurementScope, planner, systemApprover, nil,
	)
	requisitionService.SetIdempotencyStore(store, time.Hour)
	orderService := procurementapp.NewPurchaseOrderService(
		persistence.NewGormPurchaseOrderRepository(db.DB), procurementScope, planner, systemApprover, nil,
	)
	orderService.SetIdempotencyStore(store, time.Hour)
	inventoryService := inventoryapp.NewInventoryService(
		persistence.NewGormInventoryRepository(db.DB), persistence.NewGormInventoryTransactionScope(db.DB), nil,
	)

	f := &fixture{t: t, db: db, tenantID: uuid.New(), userID: uuid.New()}
	f.engine = gin.New()
	f.engine.Use(middleware.RequestID())
	f.engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{AllowHeaderIdentity: true}))

	api := f.engine.Group("/api/v1")

	wf := NewApprovalWorkflowHandler(workflowService)
	api.POST("/approval-workflows", wf.Create)
	api.GET("/approval-workflows", wf.List)
	api.POST("/approval-workflows/resolve", wf.Resolve)
	api.GET("/approval-workflows/:id", wf.GetByID)
	api.PUT("/approval-workflows/:id", wf.Update)
	api.POST("/approval-workflows/:id/activate", wf.Activate)
	api.POST("/approval-workflows/:id/deactivate", wf.Deactivate)

	rq := NewRequisitionHandler(requisitionService)
	api.POST("/requisitions", rq.Create)
	api.GET("/requisitions", rq.List)
	api.GET("/requisitions/number/:number", rq.GetByNumber)
	api.GET("/requisitions/:id", rq.GetByID)
	api.PUT("/requisitions/:id/items", rq.UpdateItems)
	api.POST("/requisitions/:id/submit", rq.Submit)
	api.POST("/requisitions/:id/approve", rq.Approve)
	api.POST("/requisitions/:id/reject", rq.Reject)
	api.POST("/requisitions/:id/cancel", rq.Cancel)
	api.POST("/requisitions/:id/convert", rq.Convert)

	po := NewPurchaseOrderHandler(orderService)
	api.POST("/purchase-orders", po.Create)
	api.GET("/purchase-orders", po.List)
	api.GET("/purchase-orders/:id", po.GetByID)
	api.POST("/purchase-orders/:id/submit", po.SubmitForApproval)
	api.POST("/purchase-orders/:id/approve", po.Approve)
	api.POST("/purchase-orders/:id/reject", po.Reject)
	api.POST("/purchase-orders/:id/reopen", po.Reopen)
	api.POST("/purchase-orders/:id/send", po.Send)
	api.POST("/purchase-orders/:id/confirm", po.Confirm)
	api.POST("/purchase-orders/:id/in-transit", po.MarkInTransit)
	api.POST("/purchase-orders/:id/receive", po.Receive)
	api.POST("/purchase-orders/:id/cancel", po.Cancel)
	api.POST("/purchase-orders/:id/invoice", po.MarkInvoiced)
	api.POST("/purchase-orders/:id/pay", po.MarkPaid)
	api.POST("/purchase-orders/:id/complete", po.Complete)

	inv := NewInventoryHandler(inventoryService)
	api.GET("/inventory", inv.List)
	api.GET("/inventory/lookup", inv.Lookup)
	api.GET("/inventory/alerts/:kind", inv.Alerts)
	api.POST("/inventory/movements", inv.RecordMovement)
	api.POST("/inventory/transfers", inv.Transfer)
	api.GET("/inventory/:id", inv.GetByID)
	api.GET("/inventory/:id/transactions", inv.ListTransactions)
	api.POST("/inventory/:id/adjust", inv.Adjust)
	api.POST("/inventory/:id/reserve", inv.Reserve)
	api.POST("/inventory/:id/release", inv.Release)
	api.PUT("/inventory/:id/levels", inv.SetLevels)

	return f
}

// request describes one API call; the fixture's user acts unless As is set
type request struct {
	Method  string
	Path    string
	Body    any
	As      uuid.UUID
	Headers map[string]string
}

// result is a decoded API response
type result struct {
	Status int
	Body   dto.Response
	Raw    []byte
}

func (f *fixture) do(r request) result {
	f.t.Helper()

	var body *bytes.Reader
	if r.Body != nil {
		raw, err := json.Marshal(r.Body)
		require.NoError(f.t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(r.Method, "/api/v1"+r.Path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantIDHeader, f.tenantID.String())
	actor := f.userID
	if r.As != uuid.Nil {
		actor = r.As
	}
	req.Header.Set(middleware.UserIDHeader, actor.String())
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	res := result{Status: w.Code, Raw: w.Body.Bytes()}
	if len(res.Raw) > 0 {
		require.NoError(f.t, json.Unmarshal(res.Raw, &res.Body), "body: %s", res.Raw)
	}
	return res
}

// data decodes the success payload into out
func (r result) data(t *testing.T, out any) {
	t.Helper()
	raw, err := json.Marshal(r.Body.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// requireError asserts the status and error code of a failed call
func (r result) requireError(t *testing.T, status int, code string) {
	t.Helper()
	require.Equal(t, status, r.Status, "body: %s", r.Raw)
	require.False(t, r.Body.Success)
	require.NotNil(t, r.Body.Error)
	require.Equal(t, code, r.Body.Error.Code, "message: %s", r.Body.Error.Message)
}

// requireStatus asserts a successful call's status
func (r result) requireStatus(t *testing.T, status int) {
	t.Helper()
	require.Equal(t, status, r.Status, "body: %s", r.Raw)
	require.True(t, r.Body.Success)
}

func (f *fixture) createRequisition(items ...map[string]any) procurementapp.RequisitionResponse {
	f.t.Helper()
	if len(items) == 0 {
		items = []map[string]any{{
			"product_id":           uuid.NewString(),
			"description":          "Laptop",
			"quantity":             "2",
			"unit":                 "pcs",
			"estimated_unit_price": "1200.00",
		}}
	}
	res := f.do(request{Method: http.MethodPost, Path: "/requisitions", Body: map[string]any{
		"title":      "Engineering laptops",
		"department": "Engineering",
		"items":      items,
	}})
	res.requireStatus(f.t, http.StatusCreated)

	var out procurementapp.RequisitionResponse
	res.data(f.t, &out)
	return out
}

// approvedRequisition walks a requisition through submit and approve
func (f *fixture) approvedRequisition() procurementapp.RequisitionResponse {
	f.t.Helper()
	created := f.createRequisition()
	f.do(request{Method: http.MethodPost, Path: "/requisitions/" + created.ID.String() + "/submit"}).requireStatus(f.t, http.StatusOK)

	res := f.do(request{Method: http.MethodPost, Path: "/requisitions/" + created.ID.String() + "/approve", Body: map[string]any{"comment": "ok"}})
	res.requireStatus(f.t, http.StatusOK)

	var out procurementapp.RequisitionResponse
	res.data(f.t, &out)
	require.Equal(f.t, "Approved", out.Status)
	return out
}

// sentOrder creates a direct order with the given quantities and sends it
func (f *fixture) sentOrder(quantities ...string) procurementapp.PurchaseOrderResponse {
	f.t.Helper()
	items := make([]map[string]any, len(quantities))
	for i, q := range quantities {
		items[i] = map[string]any{
			"product_id":  uuid.NewString(),
			"description": fmt.Sprintf("Item %d", i+1),
			"quantity":    q,
			"unit":        "pcs",
			"unit_price":  "10.00",
		}
	}
	res := f.do(request{Method: http.MethodPost, Path: "/purchase-orders", Body: map[string]any{
		"supplier_id":   uuid.NewString(),
		"supplier_name": "Acme Supplies",
		"items":         items,
	}})
	res.requireStatus(f.t, http.StatusCreated)

	var order procurementapp.PurchaseOrderResponse
	res.data(f.t, &order)

	res = f.do(request{Method: http.MethodPost, Path: "/purchase-orders/" + order.ID.String() + "/send"})
	res.requireStatus(f.t, http.StatusOK)
	res.data(f.t, &order)
	require.Equal(f.t, "Sent", order.Status)
	return order
}
