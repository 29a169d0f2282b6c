package router

import (
	"github.com/erp/procurement/internal/interfaces/http/handler"
)

// Handlers bundles the procurement API handlers
type Handlers struct {
	Workflows      *handler.ApprovalWorkflowHandler
	Requisitions   *handler.RequisitionHandler
	PurchaseOrders *handler.PurchaseOrderHandler
	Inventory      *handler.InventoryHandler
	System         *handler.SystemHandler
}

// ProcurementRoutes returns the route groups of the procurement API
func ProcurementRoutes(h Handlers) []RouteRegistrar {
	workflows := NewDomainGroup("approval", "/approval-workflows").
		POST("", h.Workflows.Create).
		GET("", h.Workflows.List).
		POST("/resolve", h.Workflows.Resolve).
		GET("/:id", h.Workflows.GetByID).
		PUT("/:id", h.Workflows.Update).
		POST("/:id/activate", h.Workflows.Activate).
		POST("/:id/deactivate", h.Workflows.Deactivate)

	requisitions := NewDomainGroup("requisition", "/requisitions").
		POST("", h.Requisitions.Create).
		GET("", h.Requisitions.List).
		GET("/number/:number", h.Requisitions.GetByNumber).
		GET("/:id", h.Requisitions.GetByID).
		PUT("/:id/items", h.Requisitions.UpdateItems).
		POST("/:id/submit", h.Requisitions.Submit).
		POST("/:id/approve", h.Requisitions.Approve).
		POST("/:id/reject", h.Requisitions.Reject).
		POST("/:id/cancel", h.Requisitions.Cancel).
		POST("/:id/convert", h.Requisitions.Convert)

	orders := NewDomainGroup("purchase_order", "/purchase-orders").
		POST("", h.PurchaseOrders.Create).
		GET("", h.PurchaseOrders.List).
		GET("/:id", h.PurchaseOrders.GetByID).
		POST("/:id/submit", h.PurchaseOrders.SubmitForApproval).
		POST("/:id/approve", h.PurchaseOrders.Approve).
		POST("/:id/reject", h.PurchaseOrders.Reject).
		POST("/:id/reopen", h.PurchaseOrders.Reopen).
		POST("/:id/send", h.PurchaseOrders.Send).
		POST("/:id/confirm", h.PurchaseOrders.Confirm).
		POST("/:id/in-transit", h.PurchaseOrders.MarkInTransit).
		POST("/:id/receive", h.PurchaseOrders.Receive).
		POST("/:id/cancel", h.PurchaseOrders.Cancel).
		POST("/:id/invoice", h.PurchaseOrders.MarkInvoiced).
		POST("/:id/pay", h.PurchaseOrders.MarkPaid).
		POST("/:id/complete", h.PurchaseOrders.Complete)

	stock := NewDomainGroup("inventory", "/inventory").
		GET("", h.Inventory.List).
		GET("/lookup", h.Inventory.Lookup).
		GET("/alerts/:kind", h.Inventory.Alerts).
		POST("/movements", h.Inventory.RecordMovement).
		POST("/transfers", h.Inventory.Transfer).
		GET("/:id", h.Inventory.GetByID).
		GET("/:id/transactions", h.Inventory.ListTransactions).
		POST("/:id/adjust", h.Inventory.Adjust).
		POST("/:id/reserve", h.Inventory.Reserve).
		POST("/:id/release", h.Inventory.Release).
		PUT("/:id/levels", h.Inventory.SetLevels)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	return []RouteRegistrar{workflows, requisitions, orders, stock, system}
}
