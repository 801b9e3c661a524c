package dto

import (
	"time"

	"github.com/opensupport/helpdesk/internal/domain"
)

// TaskRequest payload for create and full update. RecurrenceRule is
// the encoded rule string; it is ignored unless IsRecurring is true,
// and null means the task does not repeat.
type TaskRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Status         domain.TaskStatus `json:"status,omitempty"`
	DueDate        *time.Time        `json:"dueDate"`
	AssignedToID   *string           `json:"assignedToId"`
	TicketID       *string           `json:"ticketId"`
	IsRecurring    bool              `json:"isRecurring,omitempty"`
	RecurrenceRule *string           `json:"recurrenceRule"`
}

// UpdateTaskStatusRequest payload.
type UpdateTaskStatusRequest struct {
	Status domain.TaskStatus `json:"status"`
}

// TaskResponse mirrors the stored task, including the encoded rule.
type TaskResponse struct {
	ID             string            `json:"id"`
	Number         int64             `json:"taskNumber"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Status         domain.TaskStatus `json:"status"`
	DueDate        *time.Time        `json:"dueDate"`
	AssignedToID   *string           `json:"assignedToId"`
	TicketID       *string           `json:"ticketId"`
	IsRecurring    bool              `json:"isRecurring"`
	RecurrenceRule *string           `json:"recurrenceRule"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}
