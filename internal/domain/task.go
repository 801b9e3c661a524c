package domain

import "time"

// TaskStatus enumerates lifecycle states for tasks.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// ValidTaskStatus reports whether s is a known status value.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is an actionable work item, optionally recurring and optionally
// linked to a ticket. Unlike tickets, tasks may be deleted.
type Task struct {
	ID             string
	Number         int64
	Title          string
	Description    string
	Status         TaskStatus
	DueDate        *time.Time
	AssigneeID     *string
	TicketID       *string
	IsRecurring    bool
	RecurrenceRule *string
	// Rolled marks a completed recurring task whose next occurrence has
	// already been created by the scheduler sweep.
	Rolled    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
