package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type invoiceItemRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewInvoiceItemRepository creates a new instance of the invoice item repository
func NewInvoiceItemRepository(db postgres.IClient, logger *logger.Logger) invoice.ItemRepository {
	return &invoiceItemRepository{
		db:     db,
		logger: logger,
	}
}

type invoiceItemRow struct {
	ID        uuid.UUID             `db:"id"`
	CreatedAt time.Time             `db:"created_at"`
	InvoiceID uuid.UUID             `db:"inv_id"`
	ItemType  types.InvoiceItemType `db:"item_type"`
	Key       string                `db:"item_key"`
	Quantity  decimal.Decimal       `db:"quantity"`
	Amount    decimal.Decimal       `db:"amount"`
	Metadata  []byte                `db:"metadata"`
}

func (r *invoiceItemRow) toDomain() (*invoice.InvoiceItem, error) {
	item := &invoice.InvoiceItem{
		ID:        r.ID,
		InvoiceID: r.InvoiceID,
		ItemType:  r.ItemType,
		Key:       r.Key,
		Quantity:  r.Quantity,
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
	}
	if len(r.Metadata) > 0 {
		var md invoice.ItemMetadata
		if err := json.Unmarshal(r.Metadata, &md); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Stored invoice item metadata is not valid").
				WithReportableDetails(map[string]any{"item_id": r.ID}).
				Mark(ierr.ErrDataIntegrity)
		}
		item.Metadata = &md
	}
	return item, nil
}

// Create stores an item of a persisted invoice. Amounts are stored rounded to the
// currency scale.
func (r *invoiceItemRepository) Create(ctx context.Context, item *invoice.InvoiceItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if item.InvoiceID == invoice.DraftID {
		return ierr.NewError("cannot store an item of a draft invoice").
			WithHint("Draft invoice items are never persisted").
			Mark(ierr.ErrInvalidOperation)
	}

	if item.ID == uuid.Nil {
		item.ID = types.NewEntityID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	// jsonb is bound as text, a nil pointer stores NULL
	var metadata *string
	if !item.Metadata.IsEmpty() {
		b, err := json.Marshal(item.Metadata)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to encode invoice item metadata").
				Mark(ierr.ErrSystem)
		}
		metadata = lo.ToPtr(string(b))
	}

	r.logger.Debugw("creating invoice item",
		"item_id", item.ID,
		"invoice_id", item.InvoiceID,
		"item_type", item.ItemType,
		"key", item.Key,
	)

	_, err := r.db.Querier(ctx).ExecContext(ctx, `
		INSERT INTO invoice_item (id, created_at, inv_id, item_type, item_key, quantity, amount, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID,
		item.CreatedAt,
		item.InvoiceID,
		item.ItemType,
		item.Key,
		item.Quantity,
		types.RoundAmount(item.Amount),
		metadata,
	)
	if err != nil {
		return postgres.WrapError(err, "Invoice item", map[string]any{
			"item_id":    item.ID,
			"invoice_id": item.InvoiceID,
			"key":        item.Key,
		})
	}
	return nil
}

func (r *invoiceItemRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*invoice.InvoiceItem, error) {
	return listInvoiceItems(ctx, r.db.Querier(ctx), invoiceID)
}

func listInvoiceItems(ctx context.Context, q postgres.Querier, invoiceID uuid.UUID) ([]*invoice.InvoiceItem, error) {
	var rows []invoiceItemRow
	err := q.SelectContext(ctx, &rows, `
		SELECT id, created_at, inv_id, item_type, item_key, quantity, amount, metadata
		FROM invoice_item
		WHERE inv_id = $1
		ORDER BY seq`, invoiceID)
	if err != nil {
		return nil, postgres.WrapError(err, "Invoice items", map[string]any{"invoice_id": invoiceID})
	}

	items := make([]*invoice.InvoiceItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
