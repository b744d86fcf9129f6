package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

type invoiceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of the invoice header repository
func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceSelect = `
	SELECT i.id, i.created_at, i.user_id, i.account_id, i.currency_code, i.start_date, i.end_date,` + addressColumns + `
	FROM invoice i
	JOIN address ad ON ad.id = i.address_id`

type invoiceRow struct {
	ID           uuid.UUID `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	UserID       int64     `db:"user_id"`
	AccountID    int64     `db:"account_id"`
	CurrencyCode string    `db:"currency_code"`
	StartDate    time.Time `db:"start_date"`
	EndDate      time.Time `db:"end_date"`
	addressRow
}

func (r *invoiceRow) toDomain() *invoice.Invoice {
	return &invoice.Invoice{
		Identity:     invoice.Persisted(r.ID),
		UserID:       r.UserID,
		AccountID:    r.AccountID,
		Address:      r.addressRow.toDomain(),
		CurrencyCode: r.CurrencyCode,
		StartDate:    types.DateOf(r.StartDate),
		EndDate:      types.DateOf(r.EndDate),
		CreatedAt:    r.CreatedAt,
	}
}

type nodeUsageRow struct {
	NodeID      int64 `db:"node_id"`
	PropIn      int64 `db:"prop_in"`
	DatumOut    int64 `db:"datum_out"`
	DatumStored int64 `db:"datum_stored"`
}

// Create stores a snapshot of the invoice address, the header and its node usage,
// then marks the invoice persisted. Items are stored separately.
func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if inv.Address == nil {
		return ierr.NewError("invoice address is required").
			WithHint("An invoice must carry its billing address").
			Mark(ierr.ErrValidation)
	}

	id := inv.ID()
	if inv.Identity.IsDraft() {
		id = types.NewEntityID()
	}
	createdAt := time.Now().UTC()
	details := map[string]any{
		"invoice_id": id,
		"account_id": inv.AccountID,
		"start_date": inv.StartDate.Format(types.DateLayout),
	}

	r.logger.Debugw("creating invoice",
		"invoice_id", id,
		"account_id", inv.AccountID,
		"start_date", inv.StartDate.Format(types.DateLayout),
		"end_date", inv.EndDate.Format(types.DateLayout),
	)

	var addressID int64
	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.Querier(ctx)

		addr := inv.Address
		err := q.QueryRowxContext(ctx, `
			INSERT INTO address (
				created_at, disp_name, email, country, time_zone, region,
				state_prov, locality, postal_code, address
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			createdAt,
			addr.Name,
			addr.Email,
			addr.Country,
			addr.TimeZoneID,
			addr.Region,
			addr.StateOrProvince,
			addr.Locality,
			addr.PostalCode,
			pq.Array(addr.Street),
		).Scan(&addressID)
		if err != nil {
			return postgres.WrapError(err, "Invoice address", details)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO invoice (
				id, created_at, user_id, account_id, address_id, currency_code, start_date, end_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id,
			createdAt,
			inv.UserID,
			inv.AccountID,
			addressID,
			inv.CurrencyCode,
			inv.StartDate.Format(types.DateLayout),
			inv.EndDate.Format(types.DateLayout),
		)
		if err != nil {
			return postgres.WrapError(err, "Invoice", details)
		}

		for _, nu := range inv.NodeUsage {
			_, err = q.ExecContext(ctx, `
				INSERT INTO invoice_node_usage (inv_id, node_id, created_at, prop_in, datum_out, datum_stored)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				id,
				nu.NodeID,
				createdAt,
				nu.DatumPropertiesIn,
				nu.DatumOut,
				nu.DatumDaysStored,
			)
			if err != nil {
				return postgres.WrapError(err, "Invoice node usage", details)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	snapshot := inv.Address.Copy()
	snapshot.ID = addressID
	snapshot.CreatedAt = createdAt

	inv.Identity = invoice.Persisted(id)
	inv.Address = snapshot
	inv.CreatedAt = createdAt
	return nil
}

// Get loads the header, items and node usage of an invoice
func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	r.logger.Debugw("getting invoice", "invoice_id", id)

	q := r.db.Querier(ctx)
	details := map[string]any{"invoice_id": id}

	var row invoiceRow
	if err := q.GetContext(ctx, &row, invoiceSelect+` WHERE i.id = $1`, id); err != nil {
		return nil, postgres.WrapError(err, "Invoice", details)
	}
	inv := row.toDomain()

	items, err := listInvoiceItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	var usageRows []nodeUsageRow
	err = q.SelectContext(ctx, &usageRows, `
		SELECT node_id, prop_in, datum_out, datum_stored
		FROM invoice_node_usage
		WHERE inv_id = $1
		ORDER BY node_id`, id)
	if err != nil {
		return nil, postgres.WrapError(err, "Invoice node usage", details)
	}
	inv.NodeUsage = lo.Map(usageRows, func(nu nodeUsageRow, _ int) *usage.RawUsageSnapshot {
		return &usage.RawUsageSnapshot{
			NodeID: nu.NodeID,
			Counts: usage.Counts{
				DatumPropertiesIn: nu.PropIn,
				DatumOut:          nu.DatumOut,
				DatumDaysStored:   nu.DatumStored,
			},
		}
	})

	return inv, nil
}

// List returns invoice headers without items
func (r *invoiceRepository) List(ctx context.Context, filter *invoice.Filter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = invoice.NewDefaultFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	w := invoiceWhere(filter)
	// sort and order are validated against fixed lists above
	query := invoiceSelect + w.clause() +
		fmt.Sprintf(" ORDER BY i.%s %s, i.id", filter.GetSort(), filter.GetOrder()) +
		w.page(filter.GetLimit(), filter.GetOffset())

	var rows []invoiceRow
	if err := r.db.Querier(ctx).SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, postgres.WrapError(err, "Invoices", nil)
	}

	return lo.Map(rows, func(row invoiceRow, _ int) *invoice.Invoice {
		return row.toDomain()
	}), nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *invoice.Filter) (int, error) {
	if filter == nil {
		filter = invoice.NewDefaultFilter()
	}

	w := invoiceWhere(filter)
	var count int
	if err := r.db.Querier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM invoice i`+w.clause(), w.args...); err != nil {
		return 0, postgres.WrapError(err, "Invoices", nil)
	}
	return count, nil
}

func invoiceWhere(filter *invoice.Filter) *whereBuilder {
	w := &whereBuilder{}
	if filter.UserID != nil {
		w.add("i.user_id = $%d", *filter.UserID)
	}
	if filter.AccountID != nil {
		w.add("i.account_id = $%d", *filter.AccountID)
	}
	if len(filter.IDs) > 0 {
		ids := lo.Map(filter.IDs, func(id uuid.UUID, _ int) string {
			return id.String()
		})
		w.add("i.id = ANY($%d::uuid[])", pq.Array(ids))
	}
	return w
}
