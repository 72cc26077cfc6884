package handler

import (
	"net/http"

	appcustomer "github.com/bizconsult/crm/internal/application/customer"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/interfaces/http/dto"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ObligationsRequest replaces a customer's financial obligations
type ObligationsRequest struct {
	Obligations []customer.FinancialObligation `json:"obligations" binding:"max=50"`
}

// CustomerHandler handles customer record HTTP requests
type CustomerHandler struct {
	BaseHandler
	customerService *appcustomer.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *appcustomer.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create godoc
// @Summary      Take in a new customer
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req appcustomer.CreateCustomerInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.customerService.Create(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID godoc
// @Summary      Get a customer
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List godoc
// @Summary      List customers visible to the caller
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var req appcustomer.ListCustomersInput
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.customerService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(result))
}

// CountByStatus godoc
// @Summary      Count visible customers per funnel status
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/counts [get]
func (h *CustomerHandler) CountByStatus(c *gin.Context) {
	counts, err := h.customerService.CountByStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counts)
}

// Update godoc
// @Summary      Update customer fields
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req appcustomer.UpdateCustomerInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.customerService.Update(c.Request.Context(), id, req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete godoc
// @Summary      Delete a customer
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), id, middleware.GetActor(c)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddMemo godoc
// @Summary      Append a memo
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/{id}/memos [post]
func (h *CustomerHandler) AddMemo(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req appcustomer.MemoInput
	if !h.bindJSON(c, &req) {
		return
	}

	memo, err := h.customerService.AddMemo(c.Request.Context(), id, req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, memo)
}

// AddCounseling godoc
// @Summary      Append a counseling note
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/{id}/counseling [post]
func (h *CustomerHandler) AddCounseling(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req appcustomer.CounselingInput
	if !h.bindJSON(c, &req) {
		return
	}

	note, err := h.customerService.AddCounseling(c.Request.Context(), id, req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, note)
}

// ReplaceObligations godoc
// @Summary      Replace the financial obligations list
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/{id}/obligations [put]
func (h *CustomerHandler) ReplaceObligations(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req ObligationsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.customerService.ReplaceObligations(c.Request.Context(), id, req.Obligations, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// History godoc
// @Summary      Audit, status and counseling history of a customer
// @Tags         customers
// @Security     BearerAuth
// @Router       /customers/{id}/history [get]
func (h *CustomerHandler) History(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.customerService.Activity(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
