package handler

import (
	"bytes"
	"net/http"
	"net/url"

	appsettlement "github.com/bizconsult/crm/internal/application/settlement"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SettlementHandler handles settlement reporting, export and manual sync
type SettlementHandler struct {
	BaseHandler
	settlementService *appsettlement.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *appsettlement.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// Summary godoc
// @Summary      Per-manager and per-team settlement of a period
// @Description  period is YYYY-MM, YYYY-H1, YYYY-H2 or YYYY
// @Tags         settlements
// @Security     BearerAuth
// @Router       /settlements/summary [get]
func (h *SettlementHandler) Summary(c *gin.Context) {
	var q appsettlement.PeriodQuery
	if !h.bindQuery(c, &q) {
		return
	}

	result, err := h.settlementService.Summary(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Items godoc
// @Summary      Settlement detail rows of a period
// @Tags         settlements
// @Security     BearerAuth
// @Router       /settlements/items [get]
func (h *SettlementHandler) Items(c *gin.Context) {
	var q appsettlement.PeriodQuery
	if !h.bindQuery(c, &q) {
		return
	}

	items, err := h.settlementService.Items(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// Export godoc
// @Summary      Download the settlement workbook of a period
// @Tags         settlements
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router       /settlements/export [get]
func (h *SettlementHandler) Export(c *gin.Context) {
	var q appsettlement.PeriodQuery
	if !h.bindQuery(c, &q) {
		return
	}

	// buffer the workbook so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.settlementService.Export(c.Request.Context(), &buf, q); err != nil {
		h.HandleError(c, err)
		return
	}

	fileName := "정산_" + q.Period + ".xlsx"
	c.Header("Content-Disposition",
		`attachment; filename="settlement_`+q.Period+`.xlsx"; filename*=UTF-8''`+url.PathEscape(fileName))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Sync godoc
// @Summary      Recompute a customer's settlement items
// @Tags         settlements
// @Security     BearerAuth
// @Router       /settlements/sync/{customerId} [post]
func (h *SettlementHandler) Sync(c *gin.Context) {
	customerID, ok := h.paramUUID(c, "customerId")
	if !ok {
		return
	}

	result, err := h.settlementService.SyncCustomer(c.Request.Context(), customerID, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Clawback godoc
// @Summary      Reverse a customer's paid commission
// @Tags         settlements
// @Security     BearerAuth
// @Router       /settlements/clawback/{customerId} [post]
func (h *SettlementHandler) Clawback(c *gin.Context) {
	customerID, ok := h.paramUUID(c, "customerId")
	if !ok {
		return
	}
	var req appsettlement.ClawbackInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.settlementService.ProcessClawback(c.Request.Context(), customerID, req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
