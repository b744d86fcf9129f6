package invoice

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DraftID is the well-known id every draft invoice and its items refer to
var DraftID = uuid.Nil

// Identity tells a draft invoice apart from a persisted one
type Identity struct {
	id        uuid.UUID
	persisted bool
}

// Draft returns the identity of an invoice that is never stored
func Draft() Identity {
	return Identity{id: DraftID}
}

// Persisted returns the identity of a stored invoice
func Persisted(id uuid.UUID) Identity {
	return Identity{id: id, persisted: true}
}

// IsDraft reports whether the invoice is a dry run result
func (i Identity) IsDraft() bool {
	return !i.persisted
}

// ID returns the durable id, or DraftID for drafts
func (i Identity) ID() uuid.UUID {
	if !i.persisted {
		return DraftID
	}
	return i.id
}

func (i Identity) String() string {
	if !i.persisted {
		return "draft"
	}
	return i.id.String()
}

func (i Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}
