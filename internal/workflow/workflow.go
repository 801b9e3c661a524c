// Package workflow gates ticket status mutations before they reach
// persistence. Transitions are permissive by design: any status may
// move to any other, including reopening a closed ticket. The single
// hard rule is that closing requires resolution notes.
package workflow

import (
	"errors"
	"strings"

	"github.com/opensupport/helpdesk/internal/domain"
)

// ErrResolutionNotesRequired rejects a close without non-blank notes.
var ErrResolutionNotesRequired = errors.New("resolution notes required to close")

// ErrUnknownStatus rejects status values outside the vocabulary.
var ErrUnknownStatus = errors.New("unknown ticket status")

// Change is the validated mutation handed to the repository layer.
// ResolutionNotes is populated only when the change closes the ticket;
// on any other transition the stored notes are left untouched.
type Change struct {
	Status          domain.TicketStatus
	AssigneeID      *string
	ResolutionNotes string
	Closing         bool
	Reopening       bool
}

// ValidateTransition checks a requested status/assignment change
// against the current ticket and derives assignment side effects.
// Nothing is persisted when an error is returned.
//
// Assignment is independent of status: a requested status always wins,
// but when the caller leaves the ticket in the unassigned/assigned pair
// the status follows the assignee: setting an assignee on an UNASSIGNED
// ticket derives ASSIGNED, clearing the assignee of an ASSIGNED ticket
// derives UNASSIGNED.
func ValidateTransition(ticket *domain.Ticket, requested domain.TicketStatus, assigneeID *string, resolutionNotes string) (Change, error) {
	if !domain.ValidTicketStatus(requested) {
		return Change{}, ErrUnknownStatus
	}

	change := Change{
		Status:     requested,
		AssigneeID: assigneeID,
		Closing:    requested == domain.TicketStatusClosed,
		Reopening:  ticket.Status == domain.TicketStatusClosed && requested != domain.TicketStatusClosed,
	}

	if change.Closing {
		notes := strings.TrimSpace(resolutionNotes)
		if notes == "" {
			return Change{}, ErrResolutionNotesRequired
		}
		change.ResolutionNotes = notes
	}

	switch requested {
	case domain.TicketStatusUnassigned:
		if assigneeID != nil {
			change.Status = domain.TicketStatusAssigned
		}
	case domain.TicketStatusAssigned:
		if assigneeID == nil {
			change.Status = domain.TicketStatusUnassigned
		}
	}

	return change, nil
}
