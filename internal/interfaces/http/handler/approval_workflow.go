package handler

import (
	"errors"

	approvalapp "github.com/erp/procurement/internal/application/approval"
	"github.com/erp/procurement/internal/domain/approval"
	"github.com/gin-gonic/gin"
)

// ApprovalWorkflowHandler handles approval workflow administration and resolution
type ApprovalWorkflowHandler struct {
	BaseHandler
	workflowService *approvalapp.WorkflowService
}

// NewApprovalWorkflowHandler creates a new ApprovalWorkflowHandler
func NewApprovalWorkflowHandler(workflowService *approvalapp.WorkflowService) *ApprovalWorkflowHandler {
	return &ApprovalWorkflowHandler{workflowService: workflowService}
}

// Create handles POST /approval-workflows
func (h *ApprovalWorkflowHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req approvalapp.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	wf, err := h.workflowService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, wf)
}

// List handles GET /approval-workflows
func (h *ApprovalWorkflowHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter approvalapp.WorkflowListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	workflows, total, err := h.workflowService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, workflows, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /approval-workflows/:id
func (h *ApprovalWorkflowHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "workflow")
	if !ok {
		return
	}

	wf, err := h.workflowService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// Update handles PUT /approval-workflows/:id
func (h *ApprovalWorkflowHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "workflow")
	if !ok {
		return
	}

	var req approvalapp.UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	wf, err := h.workflowService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// Activate handles POST /approval-workflows/:id/activate
func (h *ApprovalWorkflowHandler) Activate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "workflow")
	if !ok {
		return
	}

	wf, err := h.workflowService.Activate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// Deactivate handles POST /approval-workflows/:id/deactivate
func (h *ApprovalWorkflowHandler) Deactivate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "workflow")
	if !ok {
		return
	}

	wf, err := h.workflowService.Deactivate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, wf)
}

// Resolve handles POST /approval-workflows/resolve.
// A document no workflow covers resolves to a null workflow, not an error.
func (h *ApprovalWorkflowHandler) Resolve(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req approvalapp.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	wf, err := h.workflowService.Resolve(c.Request.Context(), tenantID, req)
	if errors.Is(err, approval.ErrNoWorkflow) {
		h.Success(c, gin.H{"workflow": nil})
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"workflow": wf})
}
