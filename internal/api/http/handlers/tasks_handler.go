package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/opensupport/helpdesk/internal/api/dto"
	"github.com/opensupport/helpdesk/internal/domain"
	"github.com/opensupport/helpdesk/internal/recurrence"
	"github.com/opensupport/helpdesk/internal/repository"
	"github.com/opensupport/helpdesk/internal/service"
	apperrors "github.com/opensupport/helpdesk/pkg/util/errorutil"
)

// TasksHandler manages staff task endpoints.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// CreateTask POST /tasks.
func (h *TasksHandler) CreateTask(c *fiber.Ctx) error {
	input, err := parseTaskRequest(c)
	if err != nil {
		return err
	}
	task, err := h.service.CreateTask(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": taskResponse(task)})
}

// UpdateTask PUT /tasks/:id.
func (h *TasksHandler) UpdateTask(c *fiber.Ctx) error {
	input, err := parseTaskRequest(c)
	if err != nil {
		return err
	}
	task, err := h.service.UpdateTask(c.Context(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// UpdateStatus PATCH /tasks/:id/status.
func (h *TasksHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	task, err := h.service.UpdateStatus(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// GetTask GET /tasks/:id.
func (h *TasksHandler) GetTask(c *fiber.Ctx) error {
	task, err := h.service.GetTask(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// ListTasks GET /tasks.
func (h *TasksHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.service.ListTasks(c.Context(), parseTaskQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteTask DELETE /tasks/:id.
func (h *TasksHandler) DeleteTask(c *fiber.Ctx) error {
	if err := h.service.DeleteTask(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseTaskRequest(c *fiber.Ctx) (service.TaskInput, error) {
	var req dto.TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return service.TaskInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	var spec recurrence.Spec
	if req.IsRecurring && req.RecurrenceRule != nil {
		spec = recurrence.Decode(*req.RecurrenceRule)
	}
	return service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssignedToID,
		TicketID:    req.TicketID,
		Recurrence:  spec,
	}, nil
}

func parseTaskQuery(c *fiber.Ctx) repository.TaskFilter {
	filter := repository.TaskFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TaskStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if ticketID := c.Query("ticket_id"); ticketID != "" {
		filter.TicketID = &ticketID
	}
	if from := parseTime(c.Query("due_from")); from != nil {
		filter.DueFrom = from
	}
	if to := parseTime(c.Query("due_to")); to != nil {
		filter.DueTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func taskResponse(task *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:             task.ID,
		Number:         task.Number,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		DueDate:        task.DueDate,
		AssignedToID:   task.AssigneeID,
		TicketID:       task.TicketID,
		IsRecurring:    task.IsRecurring,
		RecurrenceRule: task.RecurrenceRule,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}
