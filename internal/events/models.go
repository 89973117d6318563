// Package events is the registry's externally observable event channel.
// Every state-changing operation appends exactly one or two events; off-system
// observers (indexers, UIs) consume them from the store or the Kafka fan-out.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type names an observable registry event.
type Type string

const (
	TypeNameRegistration Type = "NameRegistration"
	TypeNameRenew        Type = "NameRenew"
	TypeNameTransfer     Type = "NameTransfer"
	TypePay              Type = "Pay"
	TypeReceipt          Type = "Receipt"

	// TypeChangeReturn is declared for wire compatibility with existing
	// indexers but no operation emits it.
	TypeChangeReturn Type = "ChangeReturn"
)

// Event is emitted from the registration protocol. Fields are rendered as
// strings (hex identities, base-10 wei) so the payload is transport-agnostic.
// Unused fields for a given type are left empty.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	NewOwner  string    `json:"new_owner,omitempty"`
	Amount    string    `json:"amount,omitempty"`

	PriceInWei string    `json:"price_in_wei,omitempty"`
	Expiration time.Time `json:"expiration,omitzero"`
}
