package dto

import (
	"time"

	"github.com/opensupport/helpdesk/internal/domain"
)

// UpdateTicketStatusRequest payload. A null or absent assignedToId
// unassigns the ticket. ResolutionNotes is meaningful only when
// closing.
type UpdateTicketStatusRequest struct {
	Status          domain.TicketStatus `json:"status"`
	AssignedToID    *string             `json:"assignedToId"`
	ResolutionNotes string              `json:"resolutionNotes,omitempty"`
}

// CreateTicketUpdateRequest payload for comments.
type CreateTicketUpdateRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID             string               `json:"id"`
	Number         int64                `json:"ticketNumber"`
	Subject        string               `json:"subject"`
	Status         domain.TicketStatus  `json:"status"`
	Urgency        domain.TicketUrgency `json:"urgency"`
	AssignedToID   *string              `json:"assignedToId"`
	SubmitterEmail string               `json:"submitterEmail"`
	Tags           []string             `json:"tags"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              string                 `json:"id"`
	Number          int64                  `json:"ticketNumber"`
	SubmitterName   string                 `json:"submitterName"`
	SubmitterEmail  string                 `json:"submitterEmail"`
	Subject         string                 `json:"subject"`
	Description     string                 `json:"description"`
	IssueType       string                 `json:"issueType,omitempty"`
	Status          domain.TicketStatus    `json:"status"`
	Urgency         domain.TicketUrgency   `json:"urgency"`
	AssignedToID    *string                `json:"assignedToId"`
	ResolutionNotes string                 `json:"resolutionNotes,omitempty"`
	Tags            []string               `json:"tags"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	ClosedAt        *time.Time             `json:"closedAt"`
	Updates         []TicketUpdateResponse `json:"updates"`
	Attachments     []AttachmentResponse   `json:"attachments"`
}

// TicketUpdateResponse represents one thread entry.
type TicketUpdateResponse struct {
	ID        string                  `json:"id"`
	Kind      domain.TicketUpdateKind `json:"kind"`
	AuthorID  *string                 `json:"authorId"`
	Body      string                  `json:"body"`
	Internal  bool                    `json:"internal"`
	CreatedAt time.Time               `json:"createdAt"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID           string          `json:"id"`
	FileName     string          `json:"fileName"`
	MimeType     string          `json:"mimeType"`
	SizeBytes    int64           `json:"sizeBytes"`
	UploaderRole domain.UserRole `json:"uploaderRole"`
	URL          string          `json:"url"`
}
