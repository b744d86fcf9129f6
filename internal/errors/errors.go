package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel kinds. Mark an error with one of these and the API maps it to a status code.
var (
	ErrNotFound         = newKind("not_found", "resource not found", http.StatusNotFound)
	ErrAlreadyExists    = newKind("already_exists", "resource already exists", http.StatusConflict)
	ErrValidation       = newKind("validation_error", "validation error", http.StatusBadRequest)
	ErrInvalidOperation = newKind("invalid_operation", "invalid operation", http.StatusBadRequest)
	ErrDataIntegrity    = newKind("data_integrity_error", "data integrity violation", http.StatusConflict)
	ErrDatabase         = newKind("database_error", "database error", http.StatusInternalServerError)
	ErrSystem           = newKind("system_error", "system error", http.StatusInternalServerError)
)

// kinds is ordered: when an error carries several marks the first match decides
var kinds = []*Kind{
	ErrValidation,
	ErrNotFound,
	ErrAlreadyExists,
	ErrDataIntegrity,
	ErrInvalidOperation,
	ErrDatabase,
	ErrSystem,
}

// Kind classifies an error for callers and for the HTTP layer
type Kind struct {
	Code    string
	Message string
	status  int
}

func newKind(code, message string, status int) *Kind {
	return &Kind{Code: code, Message: message, status: status}
}

func (k *Kind) Error() string {
	return k.Code + ": " + k.Message
}

// Is matches kinds by code so marks survive encoding across process boundaries
func (k *Kind) Is(target error) bool {
	t, ok := target.(*Kind)
	return ok && t.Code == k.Code
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

func IsDataIntegrity(err error) bool {
	return errors.Is(err, ErrDataIntegrity)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func IsSystem(err error) bool {
	return errors.Is(err, ErrSystem)
}

// KindOf returns the kind err is marked with, ErrSystem when unmarked
func KindOf(err error) *Kind {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrSystem
}

// HTTPStatusFromErr maps err to a response status, 500 when unmarked
func HTTPStatusFromErr(err error) int {
	return KindOf(err).status
}
