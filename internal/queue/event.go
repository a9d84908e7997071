// Package queue defines message payloads exchanged over the message broker.
package queue

// RemovalReason states why a panel was taken out of service.
type RemovalReason string

const (
	// RemovalExpired means the panel's check-in date passed and the
	// panel was evicted automatically.
	RemovalExpired RemovalReason = "expired"
	// RemovalDeleted means the owner deleted the panel explicitly.
	RemovalDeleted RemovalReason = "deleted"
)

// PanelRemovedEvent is published whenever a panel is deleted, whether
// explicitly by its owner or automatically on expiry.  The messaging
// gateway consumes it to take down the rendered surface and, for
// expirations, tell the owner why the panel disappeared.
type PanelRemovedEvent struct {
	PanelID     uint64        `json:"panel_id"`
	OwnerID     uint64        `json:"owner_id"`
	ExternalRef string        `json:"external_ref"`
	Reason      RemovalReason `json:"reason"`
	Destination string        `json:"destination,omitempty"`
	CheckIn     string        `json:"check_in,omitempty"`
	CheckOut    string        `json:"check_out,omitempty"`
	RemovedAt   string        `json:"removed_at"`
}
