package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/opensupport/helpdesk/internal/api/dto"
	"github.com/opensupport/helpdesk/internal/auth"
	"github.com/opensupport/helpdesk/internal/domain"
	"github.com/opensupport/helpdesk/internal/service"
	apperrors "github.com/opensupport/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages the public ticket intake endpoints. Intake is
// open to anonymous submitters; an optional bearer token attaches the
// caller's identity to follow-up comments.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Accepts multipart form data so the
// submission can carry file attachments alongside the ticket fields.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}

	urgency := domain.TicketUrgency(strings.ToUpper(formValue(form.Value, "urgency")))
	if urgency != "" && !domain.ValidTicketUrgency(urgency) {
		return apperrors.NewValidationError("unknown urgency", map[string]any{"urgency": urgency})
	}

	submitterEmail := formValue(form.Value, "submitterEmail")
	if submitterEmail == "" {
		submitterEmail = formValue(form.Value, "endUserEmail")
	}

	input := service.TicketCreateInput{
		SubmitterName:  formValue(form.Value, "submitterName"),
		SubmitterEmail: submitterEmail,
		Subject:        formValue(form.Value, "subject"),
		Description:    formValue(form.Value, "description"),
		IssueType:      formValue(form.Value, "issueType"),
		Urgency:        urgency,
		Tags:           formValues(form.Value, "tags"),
		UploaderRole:   domain.UserRoleUser,
	}
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		input.UploaderRole = principal.Role
	}

	for _, header := range form.File["attachments"] {
		file, err := header.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable attachment", map[string]any{"file_name": header.Filename})
		}
		defer file.Close()
		input.Attachments = append(input.Attachments, service.AttachmentUpload{
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Content:  file,
		})
	}

	ticket, err := h.service.CreateTicket(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// GetTicket GET /tickets/:id. Public view; internal notes are hidden.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.service.GetTicket(c.Context(), c.Params("id"), false)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// AddComment POST /tickets/:id/updates. Public replies only; internal
// notes go through the staff surface.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CreateTicketUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	var actor *domain.User
	if principal, ok := auth.PrincipalFromContext(c); ok {
		actor = principal.User
	}
	update, err := h.service.AddComment(c.Context(), actor, c.Params("id"), req.Body, false)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketUpdateResponse(update)})
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentId.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	attachment, blob, err := h.service.OpenAttachment(c.Context(), c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, attachment.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	return c.SendStream(blob, int(attachment.SizeBytes))
}

func formValue(values map[string][]string, key string) string {
	if list := values[key]; len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

func formValues(values map[string][]string, key string) []string {
	var out []string
	for _, raw := range values[key] {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:             ticket.ID,
		Number:         ticket.Number,
		Subject:        ticket.Subject,
		Status:         ticket.Status,
		Urgency:        ticket.Urgency,
		AssignedToID:   ticket.AssigneeID,
		SubmitterEmail: ticket.SubmitterEmail,
		Tags:           ticket.Tags,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	ticket := detail.Ticket
	updates := make([]dto.TicketUpdateResponse, 0, len(detail.Updates))
	for i := range detail.Updates {
		updates = append(updates, ticketUpdateResponse(&detail.Updates[i]))
	}
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for _, att := range detail.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:           att.ID,
			FileName:     att.FileName,
			MimeType:     att.MimeType,
			SizeBytes:    att.SizeBytes,
			UploaderRole: att.UploaderRole,
			URL:          "/api/v1/tickets/" + ticket.ID + "/attachments/" + att.ID,
		})
	}
	return dto.TicketDetailResponse{
		ID:              ticket.ID,
		Number:          ticket.Number,
		SubmitterName:   ticket.SubmitterName,
		SubmitterEmail:  ticket.SubmitterEmail,
		Subject:         ticket.Subject,
		Description:     ticket.Description,
		IssueType:       ticket.IssueType,
		Status:          ticket.Status,
		Urgency:         ticket.Urgency,
		AssignedToID:    ticket.AssigneeID,
		ResolutionNotes: ticket.ResolutionNotes,
		Tags:            ticket.Tags,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		ClosedAt:        ticket.ClosedAt,
		Updates:         updates,
		Attachments:     attachments,
	}
}

func ticketUpdateResponse(update *domain.TicketUpdate) dto.TicketUpdateResponse {
	return dto.TicketUpdateResponse{
		ID:        update.ID,
		Kind:      update.Kind,
		AuthorID:  update.AuthorID,
		Body:      update.Body,
		Internal:  update.Internal,
		CreatedAt: update.CreatedAt,
	}
}
