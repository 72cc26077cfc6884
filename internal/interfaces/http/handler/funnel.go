package handler

import (
	appcustomer "github.com/bizconsult/crm/internal/application/customer"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DraftStateResponse lists the fields of a customer with unsaved edits
type DraftStateResponse struct {
	Pending   []string `json:"pending"`
	Discarded []string `json:"discarded,omitempty"`
}

// FunnelHandler handles status transitions and autosaved drafts
type FunnelHandler struct {
	BaseHandler
	customerService *appcustomer.CustomerService
	funnelService   *appcustomer.FunnelService
	draftService    *appcustomer.DraftService
}

// NewFunnelHandler creates a new FunnelHandler
func NewFunnelHandler(
	customerService *appcustomer.CustomerService,
	funnelService *appcustomer.FunnelService,
	draftService *appcustomer.DraftService,
) *FunnelHandler {
	return &FunnelHandler{
		customerService: customerService,
		funnelService:   funnelService,
		draftService:    draftService,
	}
}

// ChangeStatus godoc
// @Summary      Move a customer to another funnel status
// @Description  Fails with CONFIRMATION_REQUIRED and the missing fields when
// @Description  the target status needs supplementary data that was not sent.
// @Tags         funnel
// @Security     BearerAuth
// @Router       /customers/{id}/status [post]
func (h *FunnelHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req appcustomer.ChangeStatusInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.funnelService.ChangeStatus(c.Request.Context(), id, req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// PlanTransition godoc
// @Summary      Fields and side effects of a transition
// @Tags         funnel
// @Security     BearerAuth
// @Router       /customers/{id}/transitions/{status} [get]
func (h *FunnelHandler) PlanTransition(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	plan, err := h.funnelService.PlanTransition(c.Request.Context(), id, c.Param("status"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// EditDraft godoc
// @Summary      Schedule an autosave of one field
// @Tags         funnel
// @Security     BearerAuth
// @Router       /customers/{id}/draft [patch]
func (h *FunnelHandler) EditDraft(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req appcustomer.DraftInput
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.draftService.Edit(c.Request.Context(), id, req, middleware.GetActor(c)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, DraftStateResponse{Pending: h.draftService.Pending(id)})
}

// PendingDrafts godoc
// @Summary      Fields of a customer with unsaved edits
// @Tags         funnel
// @Security     BearerAuth
// @Router       /customers/{id}/draft [get]
func (h *FunnelHandler) PendingDrafts(c *gin.Context) {
	id, ok := h.accessible(c)
	if !ok {
		return
	}

	h.Success(c, DraftStateResponse{Pending: h.draftService.Pending(id)})
}

// FlushDraft godoc
// @Summary      Write pending edits now
// @Tags         funnel
// @Security     BearerAuth
// @Router       /customers/{id}/draft/flush [post]
func (h *FunnelHandler) FlushDraft(c *gin.Context) {
	id, ok := h.accessible(c)
	if !ok {
		return
	}
	var req appcustomer.DraftFlushInput
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	if err := h.draftService.Flush(c.Request.Context(), id, req.Field); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, DraftStateResponse{Pending: h.draftService.Pending(id)})
}

// DiscardDraft godoc
// @Summary      Drop pending edits without writing them
// @Tags         funnel
// @Security     BearerAuth
// @Router       /customers/{id}/draft [delete]
func (h *FunnelHandler) DiscardDraft(c *gin.Context) {
	id, ok := h.accessible(c)
	if !ok {
		return
	}

	dropped := h.draftService.Discard(id, c.Query("field"))
	if dropped == nil {
		dropped = []string{}
	}
	h.Success(c, DraftStateResponse{
		Pending:   h.draftService.Pending(id),
		Discarded: dropped,
	})
}

// accessible parses the customer id and checks the caller may see it
func (h *FunnelHandler) accessible(c *gin.Context) (uuid.UUID, bool) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return uuid.Nil, false
	}
	if _, err := h.customerService.Load(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return id, true
}
