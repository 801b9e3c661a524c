package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opensupport/helpdesk/internal/domain"
	"github.com/opensupport/helpdesk/internal/events"
	"github.com/opensupport/helpdesk/internal/observability"
	"github.com/opensupport/helpdesk/internal/recurrence"
)

type taskFixture struct {
	service   *TaskService
	tasks     *stubTaskRepo
	tickets   *stubTicketRepo
	users     *stubUserRepo
	sequences *stubSequencer
}

func newTaskFixture(t *testing.T, users ...*domain.User) *taskFixture {
	t.Helper()
	fixture := &taskFixture{
		tasks:     newStubTaskRepo(),
		tickets:   newStubTicketRepo(),
		users:     newStubUserRepo(users...),
		sequences: &stubSequencer{},
	}
	fixture.service = NewTaskService(TaskDependencies{
		TaskRepo:   fixture.tasks,
		TicketRepo: fixture.tickets,
		UserRepo:   fixture.users,
		Sequences:  fixture.sequences,
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    observability.NewMetrics(prometheus.NewRegistry()),
		Logger:     zap.NewNop(),
	})
	return fixture
}

func TestCreateTaskEncodesRecurrenceRule(t *testing.T) {
	fixture := newTaskFixture(t)

	task, err := fixture.service.CreateTask(context.Background(), TaskInput{
		Title: "Weekly backup check",
		Recurrence: recurrence.Spec{
			Frequency:  recurrence.FreqWeekly,
			DaysOfWeek: []string{"MO", "WE", "FR"},
		},
	})
	require.NoError(t, err)

	assert.True(t, task.IsRecurring)
	require.NotNil(t, task.RecurrenceRule)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,WE,FR", *task.RecurrenceRule)
	assert.Equal(t, domain.TaskStatusOpen, task.Status)
	assert.Equal(t, int64(1), task.Number)
}

func TestCreateTaskWithoutRecurrence(t *testing.T) {
	fixture := newTaskFixture(t)

	task, err := fixture.service.CreateTask(context.Background(), TaskInput{Title: "One-off audit"})
	require.NoError(t, err)

	assert.False(t, task.IsRecurring)
	assert.Nil(t, task.RecurrenceRule)
}

func TestCreateTaskRejectsBlankTitle(t *testing.T) {
	fixture := newTaskFixture(t)

	_, err := fixture.service.CreateTask(context.Background(), TaskInput{Title: "   "})
	assert.ErrorContains(t, err, "title")
}

func TestCreateTaskRejectsUnknownTicketLink(t *testing.T) {
	fixture := newTaskFixture(t)

	missing := "ticket-404"
	_, err := fixture.service.CreateTask(context.Background(), TaskInput{Title: "Follow up", TicketID: &missing})
	assert.ErrorContains(t, err, "ticket")
}

func TestRollRecurringCreatesSuccessorOnce(t *testing.T) {
	fixture := newTaskFixture(t)

	task, err := fixture.service.CreateTask(context.Background(), TaskInput{
		Title: "Rotate logs",
		Recurrence: recurrence.Spec{
			Frequency: recurrence.FreqDaily,
			Interval:  3,
		},
	})
	require.NoError(t, err)

	_, err = fixture.service.UpdateStatus(context.Background(), task.ID, domain.TaskStatusCompleted)
	require.NoError(t, err)

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	rolled, err := fixture.service.RollRecurring(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)

	all, err := fixture.tasks.ListWithFilter(context.Background(), taskFilterAll())
	require.NoError(t, err)
	require.Len(t, all, 2)

	var source, successor *domain.Task
	for i := range all {
		if all[i].ID == task.ID {
			source = &all[i]
		} else {
			successor = &all[i]
		}
	}
	require.NotNil(t, source)
	require.NotNil(t, successor)

	assert.True(t, source.Rolled)
	assert.Equal(t, domain.TaskStatusOpen, successor.Status)
	assert.True(t, successor.IsRecurring)
	assert.Equal(t, *task.RecurrenceRule, *successor.RecurrenceRule)
	require.NotNil(t, successor.DueDate)
	assert.True(t, successor.DueDate.After(now))

	// Second sweep must not duplicate the successor.
	rolled, err = fixture.service.RollRecurring(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, rolled)
}

func TestRollRecurringRollsStaleDueDatePastNow(t *testing.T) {
	fixture := newTaskFixture(t)

	stale := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	task, err := fixture.service.CreateTask(context.Background(), TaskInput{
		Title:   "Certificate renewal reminder",
		DueDate: &stale,
		Recurrence: recurrence.Spec{
			Frequency: recurrence.FreqDaily,
		},
	})
	require.NoError(t, err)

	_, err = fixture.service.UpdateStatus(context.Background(), task.ID, domain.TaskStatusCompleted)
	require.NoError(t, err)

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	rolled, err := fixture.service.RollRecurring(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, rolled)

	all, err := fixture.tasks.ListWithFilter(context.Background(), taskFilterAll())
	require.NoError(t, err)
	for i := range all {
		if all[i].ID == task.ID {
			continue
		}
		require.NotNil(t, all[i].DueDate)
		// A weeks-old anchor must not spawn a backlog of occurrences.
		assert.True(t, all[i].DueDate.After(now))
	}
}

func TestRollRecurringMarksTaskMissingRule(t *testing.T) {
	fixture := newTaskFixture(t)

	task := &domain.Task{
		Title:       "Orphaned recurring task",
		Status:      domain.TaskStatusCompleted,
		IsRecurring: true,
	}
	require.NoError(t, fixture.tasks.Create(context.Background(), task))

	rolled, err := fixture.service.RollRecurring(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, rolled)

	stored, err := fixture.tasks.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Rolled)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	fixture := newTaskFixture(t)

	task, err := fixture.service.CreateTask(context.Background(), TaskInput{Title: "Audit"})
	require.NoError(t, err)

	_, err = fixture.service.UpdateStatus(context.Background(), task.ID, domain.TaskStatus("DONE"))
	assert.ErrorContains(t, err, "unknown task status")
}
