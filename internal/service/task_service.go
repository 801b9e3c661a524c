package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opensupport/helpdesk/internal/domain"
	"github.com/opensupport/helpdesk/internal/events"
	"github.com/opensupport/helpdesk/internal/observability"
	"github.com/opensupport/helpdesk/internal/recurrence"
	"github.com/opensupport/helpdesk/internal/repository"
	apperrors "github.com/opensupport/helpdesk/pkg/util/errorutil"
)

// TaskService coordinates task workflows including recurrence.
type TaskService struct {
	tasks      repository.TaskRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	sequences  Sequencer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// TaskDependencies bundles collaborators for task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Sequences  Sequencer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// TaskInput describes task create/update payloads. Recurrence carries
// the structured spec; the service derives the stored rule string and
// the IsRecurring flag from it.
type TaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	DueDate     *time.Time
	AssigneeID  *string
	TicketID    *string
	Recurrence  recurrence.Spec
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		sequences:  deps.Sequences,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// CreateTask validates and persists a new task.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*domain.Task, error) {
	task := &domain.Task{Status: domain.TaskStatusOpen}
	if err := s.applyInput(ctx, task, input); err != nil {
		return nil, err
	}

	number, err := s.sequences.NextNumber(ctx, "task")
	if err != nil {
		return nil, apperrors.MapError(fmt.Errorf("allocate task number: %w", err))
	}
	task.Number = number

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// UpdateTask replaces a task's editable fields.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, input TaskInput) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.applyInput(ctx, task, input); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// UpdateStatus moves a task between lifecycle states.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	if !domain.ValidTaskStatus(status) {
		return nil, apperrors.NewValidationError("unknown task status", map[string]any{"status": status})
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if task.Status == status {
		return task, nil
	}
	task.Status = status
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	if status == domain.TaskStatusCompleted {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTaskCompleted,
			SubjectID: task.ID,
			Payload: events.TaskCompletedPayload{
				Number:      task.Number,
				IsRecurring: task.IsRecurring,
			},
		})
	}
	return task, nil
}

// GetTask fetches a single task.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// ListTasks returns tasks matching the filter.
func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.tasks.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tasks, nil
}

// DeleteTask removes a task permanently.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	return apperrors.MapError(s.tasks.Delete(ctx, taskID))
}

// RollRecurring creates the next occurrence for every completed
// recurring task that has not been rolled yet. Called by the scheduler
// sweep; safe to run repeatedly because rolled tasks are marked before
// the next sweep sees them again.
func (s *TaskService) RollRecurring(ctx context.Context, now time.Time) (int, error) {
	due, err := s.tasks.ListUnrolledRecurring(ctx, 50)
	if err != nil {
		return 0, err
	}

	rolled := 0
	for i := range due {
		task := &due[i]
		if task.RecurrenceRule == nil || *task.RecurrenceRule == "" {
			// Flag out of sync with the rule; mark it so the sweep
			// does not pick it up forever.
			s.logger.Warn("recurring task without rule", zap.String("task_id", task.ID))
			if err := s.tasks.MarkRolled(ctx, task.ID); err != nil {
				return rolled, err
			}
			continue
		}
		if err := s.rollOne(ctx, task, now); err != nil {
			s.logger.Error("roll recurring task", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		rolled++
	}
	return rolled, nil
}

func (s *TaskService) rollOne(ctx context.Context, task *domain.Task, now time.Time) error {
	spec := recurrence.Decode(*task.RecurrenceRule)
	if normalized := spec.Encode(); normalized != *task.RecurrenceRule {
		s.logger.Warn("recurrence rule normalized on decode",
			zap.String("task_id", task.ID),
			zap.String("stored", *task.RecurrenceRule),
			zap.String("normalized", normalized))
	}

	anchor := now
	if task.DueDate != nil {
		anchor = *task.DueDate
	}
	next := spec.NextAfter(anchor)
	// A rule anchored in the past rolls forward until the occurrence
	// is in the future, so stale tasks do not spawn a backlog.
	for !next.IsZero() && !next.After(now) {
		next = spec.NextAfter(next)
	}

	number, err := s.sequences.NextNumber(ctx, "task")
	if err != nil {
		return fmt.Errorf("allocate task number: %w", err)
	}
	successor := &domain.Task{
		Number:         number,
		Title:          task.Title,
		Description:    task.Description,
		Status:         domain.TaskStatusOpen,
		AssigneeID:     task.AssigneeID,
		TicketID:       task.TicketID,
		IsRecurring:    true,
		RecurrenceRule: task.RecurrenceRule,
	}
	if !next.IsZero() {
		successor.DueDate = &next
	}
	if err := s.tasks.Create(ctx, successor); err != nil {
		return err
	}
	if err := s.tasks.MarkRolled(ctx, task.ID); err != nil {
		return err
	}

	s.metrics.TaskRolled()
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTaskRolled,
		SubjectID: successor.ID,
		Payload: events.TaskRolledPayload{
			SourceTaskID: task.ID,
			NextTaskID:   successor.ID,
			NextDueDate:  successor.DueDate,
		},
	})
	return nil
}

func (s *TaskService) applyInput(ctx context.Context, task *domain.Task, input TaskInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	if input.Status != "" {
		if !domain.ValidTaskStatus(input.Status) {
			return apperrors.NewValidationError("unknown task status", map[string]any{"status": input.Status})
		}
		task.Status = input.Status
	}
	if input.TicketID != nil {
		if _, err := s.tickets.GetByID(ctx, *input.TicketID); err != nil {
			return apperrors.NewValidationError("linked ticket not found", map[string]any{"ticket_id": *input.TicketID})
		}
	}
	if input.AssigneeID != nil {
		if _, err := s.users.GetByID(ctx, *input.AssigneeID); err != nil {
			return apperrors.NewValidationError("assignee not found", map[string]any{"assignee_id": *input.AssigneeID})
		}
	}

	task.Title = title
	task.Description = strings.TrimSpace(input.Description)
	task.DueDate = input.DueDate
	task.AssigneeID = input.AssigneeID
	task.TicketID = input.TicketID

	rule := input.Recurrence.Encode()
	if rule == "" {
		task.IsRecurring = false
		task.RecurrenceRule = nil
	} else {
		task.IsRecurring = true
		task.RecurrenceRule = &rule
	}
	return nil
}

func (s *TaskService) publishEvent(ctx context.Context, event events.Event) {
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
