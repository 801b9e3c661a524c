package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusUnassigned TicketStatus = "UNASSIGNED"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// ValidTicketStatus reports whether s is a known status value.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusUnassigned, TicketStatusAssigned, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketUrgency enumerates submitter-declared urgency.
type TicketUrgency string

const (
	TicketUrgencyLow      TicketUrgency = "LOW"
	TicketUrgencyMedium   TicketUrgency = "MEDIUM"
	TicketUrgencyHigh     TicketUrgency = "HIGH"
	TicketUrgencyCritical TicketUrgency = "CRITICAL"
)

// ValidTicketUrgency reports whether u is a known urgency value.
func ValidTicketUrgency(u TicketUrgency) bool {
	switch u {
	case TicketUrgencyLow, TicketUrgencyMedium, TicketUrgencyHigh, TicketUrgencyCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. Tickets are never
// hard-deleted; a closed ticket keeps its resolution notes on record
// even if it is later reopened.
type Ticket struct {
	ID              string
	Number          int64
	SubmitterName   string
	SubmitterEmail  string
	Subject         string
	Description     string
	IssueType       string
	Status          TicketStatus
	Urgency         TicketUrgency
	AssigneeID      *string
	ResolutionNotes string
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
}
