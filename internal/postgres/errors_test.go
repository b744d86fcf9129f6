package postgres

import (
	"database/sql"
	"errors"
	"testing"

	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "no_rows", err: sql.ErrNoRows, check: ierr.IsNotFound},
		{name: "unique_violation", err: &pq.Error{Code: "23505", Constraint: "invoice_pkey"}, check: ierr.IsAlreadyExists},
		{name: "foreign_key_violation", err: &pq.Error{Code: "23503"}, check: ierr.IsDataIntegrity},
		{name: "check_violation", err: &pq.Error{Code: "23514"}, check: ierr.IsDataIntegrity},
		{name: "other_driver_error", err: &pq.Error{Code: "57014"}, check: ierr.IsDatabase},
		{name: "plain_error", err: errors.New("connection reset"), check: ierr.IsDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(tt.err, "invoice", map[string]any{"id": "x"})
			assert.True(t, tt.check(err), "unexpected classification: %v", err)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, WrapError(nil, "invoice", nil))
}
