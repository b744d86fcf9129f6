package cron

import (
	"net/http"
	"time"

	"github.com/flexprice/invoicer/internal/api/dto"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice related cron jobs
type InvoiceHandler struct {
	generator service.InvoiceGenerator
	logger    *logger.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(generator service.InvoiceGenerator, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		generator: generator,
		logger:    logger,
	}
}

// GenerateInvoices brings every account's invoices up to the requested end date. Account
// failures do not fail the request; they are reported in the response.
func (h *InvoiceHandler) GenerateInvoices(c *gin.Context) {
	h.logger.Infow("starting invoice generation cron job", "time", time.Now().UTC().Format(time.RFC3339))

	var req dto.GenerateInvoicesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Errorw("failed to parse request parameters", "error", err)
			c.Error(ierr.WithError(err).WithHint("invalid request parameters").Mark(ierr.ErrValidation))
			return
		}
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	endDate, err := req.GetEndDate()
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.generator.GenerateInvoices(c.Request.Context(), endDate, req.DryRun)
	if err != nil && resp == nil {
		c.Error(err)
		return
	}
	if err != nil {
		h.logger.Warnw("invoice generation cron job finished with failures",
			"end_date", endDate.Format(types.DateLayout),
			"failed", resp.Failed,
		)
	}

	c.JSON(http.StatusOK, resp)
}
