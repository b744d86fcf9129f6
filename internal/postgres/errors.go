package postgres

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/lib/pq"
)

// pq error classes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqClassIntegrityViolation = "23"
	pqUniqueViolation         = "23505"
)

// WrapError classifies a driver error into the domain error kinds. entity names the
// record being read or written and is used in the hint.
func WrapError(err error, entity string, details map[string]any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pqUniqueViolation {
			return ierr.WithError(err).
				WithHintf("%s already exists", entity).
				WithReportableDetails(withConstraint(details, pqErr)).
				Mark(ierr.ErrAlreadyExists)
		}
		if pqErr.Code.Class() == pqClassIntegrityViolation {
			return ierr.WithError(err).
				WithHintf("%s violates a data integrity constraint", entity).
				WithReportableDetails(withConstraint(details, pqErr)).
				Mark(ierr.ErrDataIntegrity)
		}
	}

	return ierr.WithError(err).
		WithHintf("Database error while accessing %s", entity).
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}

func withConstraint(details map[string]any, pqErr *pq.Error) map[string]any {
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	if pqErr.Constraint != "" {
		out["constraint"] = pqErr.Constraint
	}
	return out
}
