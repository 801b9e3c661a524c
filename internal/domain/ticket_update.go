package domain

import "time"

// TicketUpdateKind differentiates comments from system transition records.
type TicketUpdateKind string

const (
	UpdateKindComment TicketUpdateKind = "COMMENT"
	UpdateKindSystem  TicketUpdateKind = "SYSTEM"
)

// TicketUpdate captures one entry in a ticket's activity thread: either
// an authored comment (optionally internal-only) or a system-generated
// record of a status/assignment transition. Threads are listed
// reverse-chronological.
type TicketUpdate struct {
	ID       string
	TicketID string
	Kind     TicketUpdateKind
	AuthorID *string
	Body     string
	// Internal comments are visible to staff and admins only.
	Internal  bool
	CreatedAt time.Time
}
