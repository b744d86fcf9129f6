package v1

import (
	"net/http"

	"github.com/flexprice/invoicer/internal/api/dto"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	invoicingService service.InvoicingService
	creditService    service.CreditService
	logger           *logger.Logger
}

func NewAccountHandler(invoicingService service.InvoicingService, creditService service.CreditService, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{
		invoicingService: invoicingService,
		creditService:    creditService,
		logger:           logger,
	}
}

// GetAccount godoc
// @Summary Get a billing account
// @Description Get the billing account of a user with its available credit
// @Tags Accounts
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /accounts/{user_id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	acct, err := h.invoicingService.AccountForUser(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}

	balance, err := h.creditService.GetBalanceForUser(ctx, userID)
	if err != nil {
		h.logger.Errorw("failed to get credit balance", "error", err, "user_id", userID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccountResponse(acct, balance))
}
