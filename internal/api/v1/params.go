package v1

import (
	"strconv"

	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// userIDParam parses the :user_id path parameter and records it on the request context
func userIDParam(c *gin.Context) (int64, error) {
	raw := c.Param("user_id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ierr.NewError("invalid user id").
			WithHint("User id must be a positive integer").
			WithReportableDetails(map[string]any{"user_id": raw}).
			Mark(ierr.ErrValidation)
	}

	c.Request = c.Request.WithContext(types.SetUserID(c.Request.Context(), userID))
	return userID, nil
}

// invoiceIDParam parses the :id path parameter
func invoiceIDParam(c *gin.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ierr.WithError(err).
			WithHint("Invoice id must be a UUID").
			WithReportableDetails(map[string]any{"id": raw}).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}
