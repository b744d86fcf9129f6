package v1

import (
	"net/http"

	"github.com/flexprice/invoicer/internal/api/dto"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type InvoiceHandler struct {
	invoicingService service.InvoicingService
	logger           *logger.Logger
}

func NewInvoiceHandler(invoicingService service.InvoicingService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoicingService: invoicingService,
		logger:           logger,
	}
}

// ListInvoices godoc
// @Summary List invoices
// @Description List the invoices of a user
// @Tags Invoices
// @Produce json
// @Param user_id path int true "User ID"
// @Param filter query types.QueryFilter false "Filter"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /accounts/{user_id}/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}

	var query types.QueryFilter
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	filter := invoice.NewDefaultFilter()
	if query.Limit != nil {
		filter.Limit = query.Limit
	}
	if query.Offset != nil {
		filter.Offset = query.Offset
	}
	if query.Sort != nil {
		filter.Sort = query.Sort
	}
	if query.Order != nil {
		filter.Order = query.Order
	}
	filter.UserID = lo.ToPtr(userID)

	resp, err := h.invoicingService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetInvoice godoc
// @Summary Get an invoice
// @Description Get an invoice of a user with its items
// @Tags Invoices
// @Produce json
// @Param user_id path int true "User ID"
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /accounts/{user_id}/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}
	id, err := invoiceIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}

	inv, err := h.invoicingService.GetInvoice(c.Request.Context(), userID, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewInvoiceResponse(inv))
}

// PreviewInvoice godoc
// @Summary Preview an invoice
// @Description Compute the invoice of a period without saving it or claiming credit
// @Tags Invoices
// @Accept json
// @Produce json
// @Param user_id path int true "User ID"
// @Param request body dto.GenerateInvoiceRequest true "Invoice period"
// @Success 200 {object} dto.GenerateInvoiceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /accounts/{user_id}/invoices/preview [post]
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	h.generate(c, true)
}

// GenerateInvoice godoc
// @Summary Generate an invoice
// @Description Generate and save the invoice of a period
// @Tags Invoices
// @Accept json
// @Produce json
// @Param user_id path int true "User ID"
// @Param request body dto.GenerateInvoiceRequest true "Invoice period"
// @Success 200 {object} dto.GenerateInvoiceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /accounts/{user_id}/invoices/generate [post]
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	h.generate(c, false)
}

func (h *InvoiceHandler) generate(c *gin.Context, dryRun bool) {
	userID, err := userIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req dto.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}
	start, end, err := req.Period()
	if err != nil {
		c.Error(err)
		return
	}

	inv, err := h.invoicingService.GenerateInvoice(c.Request.Context(), service.GenerateInvoiceParams{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		DryRun:    dryRun,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.GenerateInvoiceResponse{
		Generated: inv != nil,
		Invoice:   dto.NewInvoiceResponse(inv),
	})
}
