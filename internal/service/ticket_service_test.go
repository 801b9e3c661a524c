package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opensupport/helpdesk/internal/domain"
	"github.com/opensupport/helpdesk/internal/events"
	"github.com/opensupport/helpdesk/internal/observability"
	"github.com/opensupport/helpdesk/internal/storage"
)

type ticketFixture struct {
	service     *TicketService
	tickets     *stubTicketRepo
	updates     *stubUpdateRepo
	attachments *stubAttachmentRepo
	users       *stubUserRepo
	sequences   *stubSequencer
	blobDir     string
}

func newTicketFixture(t *testing.T, users ...*domain.User) *ticketFixture {
	t.Helper()
	blobDir := t.TempDir()
	blobs, err := storage.NewBlobStore(blobDir, 1<<20)
	require.NoError(t, err)

	fixture := &ticketFixture{
		tickets:     newStubTicketRepo(),
		updates:     &stubUpdateRepo{},
		attachments: &stubAttachmentRepo{},
		users:       newStubUserRepo(users...),
		sequences:   &stubSequencer{},
		blobDir:     blobDir,
	}
	fixture.service = NewTicketService(TicketDependencies{
		TicketRepo:     fixture.tickets,
		UpdateRepo:     fixture.updates,
		AttachmentRepo: fixture.attachments,
		UserRepo:       fixture.users,
		Blobs:          blobs,
		Sequences:      fixture.sequences,
		Dispatcher:     events.NewInMemoryDispatcher(),
		Metrics:        observability.NewMetrics(prometheus.NewRegistry()),
		Logger:         zap.NewNop(),
	})
	return fixture
}

func blobCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestCreateTicketRejectsMissingRequiredFields(t *testing.T) {
	fixture := newTicketFixture(t)

	_, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "user@example.com",
		Subject:        "Printer on fire",
		Description:    "   ",
		Attachments: []AttachmentUpload{
			{FileName: "photo.png", MimeType: "image/png", Content: strings.NewReader("payload")},
		},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "description")

	// Rejected submissions must leave no partial state behind.
	assert.Zero(t, blobCount(t, fixture.blobDir))
	assert.Empty(t, fixture.attachments.attachments)
	assert.Zero(t, fixture.sequences.calls)
}

func TestCreateTicketStoresTicketAndAttachments(t *testing.T) {
	fixture := newTicketFixture(t)

	ticket, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterName:  "Pat",
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect since this morning",
		IssueType:      "network",
		Tags:           []string{"vpn", "remote"},
		Attachments: []AttachmentUpload{
			{FileName: "trace.log", MimeType: "text/plain", Content: strings.NewReader("log line")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), ticket.Number)
	assert.Equal(t, domain.TicketStatusUnassigned, ticket.Status)
	assert.Equal(t, domain.TicketUrgencyMedium, ticket.Urgency)
	assert.Equal(t, 1, blobCount(t, fixture.blobDir))
	require.Len(t, fixture.attachments.attachments, 1)
	assert.Equal(t, ticket.ID, fixture.attachments.attachments[0].TicketID)
	assert.Equal(t, int64(len("log line")), fixture.attachments.attachments[0].SizeBytes)
}

func TestCreateTicketRemovesBlobWhenMetadataFails(t *testing.T) {
	fixture := newTicketFixture(t)
	fixture.attachments.failCreate = true

	_, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect",
		Attachments: []AttachmentUpload{
			{FileName: "trace.log", MimeType: "text/plain", Content: strings.NewReader("log line")},
		},
	})
	require.Error(t, err)
	assert.Zero(t, blobCount(t, fixture.blobDir))
}

func TestUpdateStatusCloseRequiresResolutionNotes(t *testing.T) {
	staff := &domain.User{ID: "staff-1", Role: domain.UserRoleStaff}
	fixture := newTicketFixture(t, staff)

	ticket, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect",
	})
	require.NoError(t, err)

	_, err = fixture.service.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusClosed, nil, "   \t")
	require.Error(t, err)
	assert.ErrorContains(t, err, "resolution notes")

	closed, err := fixture.service.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusClosed, nil, "Reset the tunnel config")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	assert.Equal(t, "Reset the tunnel config", closed.ResolutionNotes)
	require.NotNil(t, closed.ClosedAt)
}

func TestUpdateStatusRequiresStaffActor(t *testing.T) {
	endUser := &domain.User{ID: "user-1", Role: domain.UserRoleUser}
	fixture := newTicketFixture(t, endUser)

	ticket, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect",
	})
	require.NoError(t, err)

	_, err = fixture.service.UpdateStatus(context.Background(), endUser, ticket.ID, domain.TicketStatusInProgress, nil, "")
	assert.ErrorContains(t, err, "staff")
}

func TestUpdateStatusDerivesAssignmentTransitions(t *testing.T) {
	staff := &domain.User{ID: "staff-1", Role: domain.UserRoleStaff}
	fixture := newTicketFixture(t, staff)

	ticket, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect",
	})
	require.NoError(t, err)

	assigneeID := staff.ID
	assigned, err := fixture.service.UpdateStatus(context.Background(), staff, ticket.ID, ticket.Status, &assigneeID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssigneeID)
	assert.Equal(t, staff.ID, *assigned.AssigneeID)

	// Both the status change and the assignment leave system records.
	updates, err := fixture.updates.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, updates, 2)

	cleared, err := fixture.service.UpdateStatus(context.Background(), staff, ticket.ID, assigned.Status, nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusUnassigned, cleared.Status)
	assert.Nil(t, cleared.AssigneeID)
}

func TestUpdateStatusReopenClearsClosedAt(t *testing.T) {
	staff := &domain.User{ID: "staff-1", Role: domain.UserRoleStaff}
	fixture := newTicketFixture(t, staff)

	ticket, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect",
	})
	require.NoError(t, err)

	_, err = fixture.service.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusClosed, nil, "Fixed")
	require.NoError(t, err)

	reopened, err := fixture.service.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusInProgress, nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)
	// Resolution notes stay on record after reopening.
	assert.Equal(t, "Fixed", reopened.ResolutionNotes)
}

func TestAddCommentInternalRequiresStaff(t *testing.T) {
	endUser := &domain.User{ID: "user-1", Role: domain.UserRoleUser}
	fixture := newTicketFixture(t, endUser)

	ticket, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect",
	})
	require.NoError(t, err)

	_, err = fixture.service.AddComment(context.Background(), endUser, ticket.ID, "note to self", true)
	assert.ErrorContains(t, err, "staff")

	update, err := fixture.service.AddComment(context.Background(), nil, ticket.ID, "any update?", false)
	require.NoError(t, err)
	assert.False(t, update.Internal)
	assert.Nil(t, update.AuthorID)
}

func TestGetTicketHidesInternalUpdatesFromPublicView(t *testing.T) {
	staff := &domain.User{ID: "staff-1", Role: domain.UserRoleStaff}
	fixture := newTicketFixture(t, staff)

	ticket, err := fixture.service.CreateTicket(context.Background(), TicketCreateInput{
		SubmitterEmail: "pat@example.com",
		Subject:        "VPN down",
		Description:    "Cannot connect",
	})
	require.NoError(t, err)

	_, err = fixture.service.AddComment(context.Background(), staff, ticket.ID, "escalating internally", true)
	require.NoError(t, err)
	_, err = fixture.service.AddComment(context.Background(), staff, ticket.ID, "we are on it", false)
	require.NoError(t, err)

	publicView, err := fixture.service.GetTicket(context.Background(), ticket.ID, false)
	require.NoError(t, err)
	require.Len(t, publicView.Updates, 1)
	assert.Equal(t, "we are on it", publicView.Updates[0].Body)

	staffView, err := fixture.service.GetTicket(context.Background(), ticket.ID, true)
	require.NoError(t, err)
	assert.Len(t, staffView.Updates, 2)
}
