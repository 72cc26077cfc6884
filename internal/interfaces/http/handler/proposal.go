package handler

import (
	"fmt"
	"net/http"
	"time"

	appproposal "github.com/bizconsult/crm/internal/application/proposal"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProposalQuery selects the proposal rendering of GET /proposal
type ProposalQuery struct {
	Format        string `form:"format" binding:"omitempty,oneof=json html"`
	DesiredAmount string `form:"desired_amount"` // 만원
}

// ProposalHandler handles funding proposal generation
type ProposalHandler struct {
	BaseHandler
	proposalService *appproposal.ProposalService
}

// NewProposalHandler creates a new ProposalHandler
func NewProposalHandler(proposalService *appproposal.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

// Get godoc
// @Summary      Generate a proposal with the recommended agencies
// @Description  format=html returns the printable page instead of JSON
// @Tags         proposals
// @Security     BearerAuth
// @Router       /customers/{id}/proposal [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var q ProposalQuery
	if !h.bindQuery(c, &q) {
		return
	}
	var input appproposal.ProposalInput
	if q.DesiredAmount != "" {
		amount, err := decimal.NewFromString(q.DesiredAmount)
		if err != nil {
			h.BadRequest(c, "Invalid desired_amount")
			return
		}
		input.DesiredAmount = &amount
	}

	if q.Format == "html" {
		page, err := h.proposalService.HTML(c.Request.Context(), id, input)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	p, err := h.proposalService.Generate(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// PDF godoc
// @Summary      Render a proposal for the selected agencies as PDF
// @Tags         proposals
// @Security     BearerAuth
// @Produce      application/pdf
// @Router       /customers/{id}/proposal/pdf [post]
func (h *ProposalHandler) PDF(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req appproposal.ProposalInput
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	pdf, err := h.proposalService.PDF(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	fileName := fmt.Sprintf("proposal_%s_%s.pdf", id.String()[:8], time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
