package service

import (
	"context"

	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
)

// InvoiceDeliverer hands a finished invoice to whatever renders and sends it
type InvoiceDeliverer interface {
	DeliverInvoice(ctx context.Context, inv *invoice.Invoice, acct *account.Account) error
}

// LoggingDeliverer records deliveries in the log only
type LoggingDeliverer struct {
	logger *logger.Logger
}

func NewLoggingDeliverer(logger *logger.Logger) InvoiceDeliverer {
	return &LoggingDeliverer{logger: logger}
}

func (d *LoggingDeliverer) DeliverInvoice(ctx context.Context, inv *invoice.Invoice, acct *account.Account) error {
	email := ""
	if acct.Address != nil {
		email = acct.Address.Email
	}
	d.logger.Infow("delivering invoice",
		"request_id", types.GetRequestID(ctx),
		"invoice_id", inv.Identity.String(),
		"account_id", acct.ID,
		"email", email,
		"currency", inv.CurrencyCode,
		"total", inv.TotalAmount().String(),
		"items", len(inv.Items),
	)
	return nil
}
