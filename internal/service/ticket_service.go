package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opensupport/helpdesk/internal/domain"
	"github.com/opensupport/helpdesk/internal/events"
	"github.com/opensupport/helpdesk/internal/observability"
	"github.com/opensupport/helpdesk/internal/repository"
	"github.com/opensupport/helpdesk/internal/storage"
	"github.com/opensupport/helpdesk/internal/workflow"
	apperrors "github.com/opensupport/helpdesk/pkg/util/errorutil"
)

// Sequencer allocates human-facing sequential numbers.
type Sequencer interface {
	NextNumber(ctx context.Context, name string) (int64, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	updates     repository.TicketUpdateRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	blobs       *storage.BlobStore
	sequences   Sequencer
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	UpdateRepo     repository.TicketUpdateRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	Blobs          *storage.BlobStore
	Sequences      Sequencer
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// AttachmentUpload carries one uploaded file into ticket creation.
type AttachmentUpload struct {
	FileName string
	MimeType string
	Content  io.Reader
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	SubmitterName  string
	SubmitterEmail string
	Subject        string
	Description    string
	IssueType      string
	Urgency        domain.TicketUrgency
	Tags           []string
	UploaderRole   domain.UserRole
	Attachments    []AttachmentUpload
}

// TicketDetail is a ticket with its activity thread and attachments.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Updates     []domain.TicketUpdate
	Attachments []domain.Attachment
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		updates:     deps.UpdateRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		blobs:       deps.Blobs,
		sequences:   deps.Sequences,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// CreateTicket validates the submission, persists the ticket and then
// stores its attachments. The required-field guard runs before any
// blob is written so a rejected submission leaves no partial state.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	input.SubmitterEmail = strings.TrimSpace(input.SubmitterEmail)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Description = strings.TrimSpace(input.Description)
	if input.SubmitterEmail == "" || input.Subject == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("submitter_email, subject, description required", nil)
	}

	number, err := s.sequences.NextNumber(ctx, "ticket")
	if err != nil {
		return nil, apperrors.MapError(fmt.Errorf("allocate ticket number: %w", err))
	}

	ticket := &domain.Ticket{
		Number:         number,
		SubmitterName:  strings.TrimSpace(input.SubmitterName),
		SubmitterEmail: input.SubmitterEmail,
		Subject:        input.Subject,
		Description:    input.Description,
		IssueType:      strings.TrimSpace(input.IssueType),
		Status:         domain.TicketStatusUnassigned,
		Urgency:        input.Urgency,
		Tags:           input.Tags,
	}
	if ticket.Urgency == "" {
		ticket.Urgency = domain.TicketUrgencyMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	uploaderRole := input.UploaderRole
	if uploaderRole == "" {
		uploaderRole = domain.UserRoleUser
	}
	for _, upload := range input.Attachments {
		if err := s.storeAttachment(ctx, ticket.ID, uploaderRole, upload); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.metrics.TicketOpened()
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		SubjectID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Number:         ticket.Number,
			Subject:        ticket.Subject,
			Urgency:        ticket.Urgency,
			SubmitterEmail: ticket.SubmitterEmail,
		},
	})
	return ticket, nil
}

func (s *TicketService) storeAttachment(ctx context.Context, ticketID string, role domain.UserRole, upload AttachmentUpload) error {
	key, size, err := s.blobs.Save(upload.Content)
	if err != nil {
		return fmt.Errorf("store attachment %q: %w", upload.FileName, err)
	}
	record := &domain.Attachment{
		TicketID:     ticketID,
		StorageKey:   key,
		FileName:     upload.FileName,
		MimeType:     upload.MimeType,
		SizeBytes:    size,
		UploaderRole: role,
	}
	if err := s.attachments.Create(ctx, record); err != nil {
		_ = s.blobs.Remove(key)
		return fmt.Errorf("record attachment %q: %w", upload.FileName, err)
	}
	return nil
}

// ListTickets returns tickets matching the staff filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches a ticket with its thread and attachments. Internal
// comments are stripped unless the caller has staff access.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string, includeInternal bool) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	updates, err := s.updates.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !includeInternal {
		visible := make([]domain.TicketUpdate, 0, len(updates))
		for _, update := range updates {
			if update.Internal {
				continue
			}
			visible = append(visible, update)
		}
		updates = visible
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Updates: updates, Attachments: attachments}, nil
}

// UpdateStatus applies a workflow-gated status/assignment change and
// returns the authoritative stored ticket, re-read after the write.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, requested domain.TicketStatus, assigneeID *string, resolutionNotes string) (*domain.Ticket, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *assigneeID)
		if err != nil {
			return nil, apperrors.NewValidationError("assignee not found", map[string]any{"assignee_id": *assigneeID})
		}
		if !assignee.Role.IsStaff() {
			return nil, apperrors.NewValidationError("assignee must be staff or admin", map[string]any{"assignee_id": *assigneeID})
		}
	}

	change, err := workflow.ValidateTransition(ticket, requested, assigneeID, resolutionNotes)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	oldStatus := ticket.Status
	oldAssignee := ticket.AssigneeID

	ticket.Status = change.Status
	ticket.AssigneeID = change.AssigneeID
	if change.Closing {
		now := time.Now()
		ticket.ClosedAt = &now
		ticket.ResolutionNotes = change.ResolutionNotes
	} else if change.Reopening {
		ticket.ClosedAt = nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if oldStatus != ticket.Status {
		s.recordSystemUpdate(ctx, actor, ticket.ID,
			fmt.Sprintf("status changed from %s to %s", oldStatus, ticket.Status))
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketStatusChanged,
			SubjectID: ticket.ID,
			ActorID:   &actor.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
				Reopened:  change.Reopening,
			},
		})
	}
	if !sameAssignee(oldAssignee, ticket.AssigneeID) {
		s.recordSystemUpdate(ctx, actor, ticket.ID, assignmentNote(ticket.AssigneeID))
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketAssigned,
			SubjectID: ticket.ID,
			ActorID:   &actor.ID,
			Payload: events.TicketAssignedPayload{
				OldAssigneeID: oldAssignee,
				NewAssigneeID: ticket.AssigneeID,
			},
		})
	}
	if change.Closing {
		s.metrics.TicketClosed()
	}

	// Hand back what the database holds, not the mutated in-memory
	// copy, so callers cannot drift from persisted state.
	stored, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stored, nil
}

// AddComment appends a comment to a ticket's thread. Internal comments
// require staff access.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string, internal bool) (*domain.TicketUpdate, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	if internal && (actor == nil || !actor.Role.IsStaff()) {
		return nil, apperrors.NewForbidden("internal comments require staff role")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	update := &domain.TicketUpdate{
		TicketID: ticket.ID,
		Kind:     domain.UpdateKindComment,
		Body:     body,
		Internal: internal,
	}
	if actor != nil {
		update.AuthorID = &actor.ID
	}
	if err := s.updates.Create(ctx, update); err != nil {
		return nil, apperrors.MapError(err)
	}

	var actorID *string
	if actor != nil {
		actorID = &actor.ID
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCommentAdded,
		SubjectID: ticket.ID,
		ActorID:   actorID,
		Payload: events.TicketCommentAddedPayload{
			UpdateID:    update.ID,
			Internal:    update.Internal,
			BodyPreview: stringPreview(body, 120),
		},
	})
	return update, nil
}

// OpenAttachment resolves attachment metadata and its blob for download.
func (s *TicketService) OpenAttachment(ctx context.Context, ticketID, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if attachment.TicketID != ticketID {
		return nil, nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
	}
	blob, err := s.blobs.Open(attachment.StorageKey)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return attachment, blob, nil
}

func (s *TicketService) recordSystemUpdate(ctx context.Context, actor *domain.User, ticketID, body string) {
	update := &domain.TicketUpdate{
		TicketID: ticketID,
		Kind:     domain.UpdateKindSystem,
		Body:     body,
	}
	if actor != nil {
		update.AuthorID = &actor.ID
	}
	if err := s.updates.Create(ctx, update); err != nil {
		s.logger.Warn("record system update", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func assignmentNote(assigneeID *string) string {
	if assigneeID == nil {
		return "assignee cleared"
	}
	return "assigned to " + *assigneeID
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
