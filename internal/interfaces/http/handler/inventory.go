package handler

import (
	"context"
	"strconv"

	inventoryapp "github.com/erp/procurement/internal/application/inventory"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultExpiringDays is the look-ahead window of the expiring alert
const DefaultExpiringDays = 30

// alertStatuses maps alert path segments to stock statuses
var alertStatuses = map[string]inventory.StockStatus{
	"low-stock":    inventory.StockStatusLowStock,
	"out-of-stock": inventory.StockStatusOutOfStock,
	"overstock":    inventory.StockStatusOverstock,
}

// InventoryHandler handles inventory ledger endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// List handles GET /inventory
func (h *InventoryHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.InventoryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	records, total, err := h.inventoryService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /inventory/:id
func (h *InventoryHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "inventory")
	if !ok {
		return
	}

	record, err := h.inventoryService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Lookup handles GET /inventory/lookup?product_id=&warehouse_id=
func (h *InventoryHandler) Lookup(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	record, err := h.inventoryService.GetByProductAndWarehouse(c.Request.Context(), tenantID, productID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// ListTransactions handles GET /inventory/:id/transactions
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "inventory")
	if !ok {
		return
	}

	var filter inventoryapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	txs, total, err := h.inventoryService.ListTransactions(c.Request.Context(), tenantID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txs, total, filter.Page, filter.PageSize)
}

// RecordMovement handles POST /inventory/movements (Receipt, Issue, Return)
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req inventoryapp.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.inventoryService.RecordMovement(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Transfer handles POST /inventory/transfers
func (h *InventoryHandler) Transfer(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req inventoryapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.inventoryService.Transfer(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Adjust handles POST /inventory/:id/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "inventory")
	if !ok {
		return
	}

	var req inventoryapp.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.inventoryService.Adjust(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reserve handles POST /inventory/:id/reserve
func (h *InventoryHandler) Reserve(c *gin.Context) {
	h.reservation(c, h.inventoryService.Reserve)
}

// Release handles POST /inventory/:id/release
func (h *InventoryHandler) Release(c *gin.Context) {
	h.reservation(c, h.inventoryService.Release)
}

func (h *InventoryHandler) reservation(c *gin.Context, fn func(ctx context.Context, tenantID, id uuid.UUID, req inventoryapp.QuantityRequest) (*inventoryapp.InventoryResponse, error)) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "inventory")
	if !ok {
		return
	}

	var req inventoryapp.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	record, err := fn(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// SetLevels handles PUT /inventory/:id/levels
func (h *InventoryHandler) SetLevels(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "inventory")
	if !ok {
		return
	}

	var req inventoryapp.SetLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	record, err := h.inventoryService.SetLevels(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Alerts handles GET /inventory/alerts/:kind where kind is one of
// low-stock, out-of-stock, overstock or expiring (with an optional days window)
func (h *InventoryHandler) Alerts(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.InventoryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	var (
		records []inventoryapp.InventoryResponse
		total   int64
		err     error
	)
	kind := c.Param("kind")
	if kind == "expiring" {
		days := DefaultExpiringDays
		if raw := c.Query("days"); raw != "" {
			days, err = strconv.Atoi(raw)
			if err != nil {
				h.BadRequest(c, "Invalid days value")
				return
			}
		}
		records, total, err = h.inventoryService.ListExpiring(c.Request.Context(), tenantID, days, filter)
	} else {
		status, known := alertStatuses[kind]
		if !known {
			h.NotFound(c, "Unknown inventory alert "+strconv.Quote(kind))
			return
		}
		records, total, err = h.inventoryService.ListByStockStatus(c.Request.Context(), tenantID, status, filter)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}
