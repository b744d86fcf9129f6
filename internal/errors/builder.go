package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

const detailsPrefix = "__json__:"

// ErrorBuilder chains context onto an error. It is not an error itself; finish every
// chain with Mark.
type ErrorBuilder struct {
	err error
}

// NewError starts a chain from a new internal message
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a chain from an existing error, keeping its cause
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage prefixes the internal message
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint sets the message shown to API callers
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches values that are safe to return to callers and to
// send to sentry. Values that cannot be marshaled are dropped.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, detailsPrefix+"%s", errors.Safe(string(marshaled)))
	return b
}

// Mark tags the chain with one of the sentinel errors and returns it
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

// DisplayMessage returns the innermost hint on err, or fallback when it has none
func DisplayMessage(err error, fallback string) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return fallback
}

// ReportableDetails merges every details map attached along the chain, outer values
// winning. It returns nil when there are none.
func ReportableDetails(err error) map[string]any {
	var details map[string]any

	layers := errors.GetAllSafeDetails(err)
	for i := len(layers) - 1; i >= 0; i-- {
		for _, payload := range layers[i].SafeDetails {
			raw, ok := strings.CutPrefix(payload, detailsPrefix)
			if !ok {
				continue
			}
			var layer map[string]any
			if err := json.Unmarshal([]byte(raw), &layer); err != nil {
				continue
			}
			if details == nil {
				details = make(map[string]any, len(layer))
			}
			for k, v := range layer {
				details[k] = v
			}
		}
	}
	return details
}

// Err returns the chain without a kind; it classifies as ErrSystem
func (b *ErrorBuilder) Err() error {
	return b.err
}
