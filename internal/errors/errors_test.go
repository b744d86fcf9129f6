package errors

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderClassification(t *testing.T) {
	err := NewError("tier schedule missing").
		WithHint("No tiers are configured for this resource").
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromErr(err))

	wrapped := WithError(err).WithMessage("rating usage").Mark(ErrDatabase)
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsDatabase(wrapped))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromErr(wrapped))
}

func TestKindOfUnmarked(t *testing.T) {
	assert.Equal(t, ErrSystem, KindOf(NewError("boom").Err()))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(WithError(context.Canceled).WithMessage("listing").Err()))
	assert.Equal(t, "validation_error", KindOf(NewError("bad").Mark(ErrValidation)).Code)
}

func TestDisplayMessage(t *testing.T) {
	err := NewError("invalid period").
		WithHint("End date must be after start date").
		Mark(ErrValidation)
	outer := WithError(err).WithHint("Could not generate invoice").Mark(ErrValidation)

	assert.Equal(t, "End date must be after start date", DisplayMessage(outer, "fallback"))
	assert.Equal(t, "fallback", DisplayMessage(NewError("bare").Mark(ErrSystem), "fallback"))
}

func TestReportableDetails(t *testing.T) {
	inner := NewError("duplicate invoice").
		WithReportableDetails(map[string]any{"user_id": 7, "period": "2020-07"}).
		Mark(ErrAlreadyExists)
	outer := WithError(inner).
		WithReportableDetails(map[string]any{"period": "2020-08"}).
		Mark(ErrAlreadyExists)

	details := ReportableDetails(outer)
	assert.Equal(t, "2020-08", details["period"])
	assert.EqualValues(t, 7, details["user_id"])

	assert.Nil(t, ReportableDetails(NewError("plain").Mark(ErrSystem)))
}
