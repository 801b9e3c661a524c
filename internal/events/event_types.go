package events

import (
	"time"

	"github.com/opensupport/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventTaskCompleted       EventType = "task_completed"
	EventTaskRolled          EventType = "task_rolled"
)

// Event represents a domain event emitted by services. ActorID is nil
// for anonymous submitters and the scheduler.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number         int64                `json:"number"`
	Subject        string               `json:"subject"`
	Urgency        domain.TicketUrgency `json:"urgency"`
	SubmitterEmail string               `json:"submitter_email"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reopened  bool                `json:"reopened,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	NewAssigneeID *string `json:"new_assignee_id,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	UpdateID    string `json:"update_id"`
	Internal    bool   `json:"internal"`
	BodyPreview string `json:"body_preview"`
}

// TaskCompletedPayload payload.
type TaskCompletedPayload struct {
	Number      int64 `json:"number"`
	IsRecurring bool  `json:"is_recurring"`
}

// TaskRolledPayload payload.
type TaskRolledPayload struct {
	SourceTaskID string     `json:"source_task_id"`
	NextTaskID   string     `json:"next_task_id"`
	NextDueDate  *time.Time `json:"next_due_date,omitempty"`
}
