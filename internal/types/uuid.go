package types

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier, used for trace and request ids
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex req_01HZX3KQ4TQ9F2V0M2VJ2R8N6B
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

// NewEntityID returns a random UUID for persisted entities (invoices, items, tasks)
func NewEntityID() uuid.UUID {
	return uuid.New()
}

const (
	UUID_PREFIX_REQUEST     = "req"
	UUID_PREFIX_TRANSACTION = "tx"
	UUID_PREFIX_BATCH       = "batch"
)
