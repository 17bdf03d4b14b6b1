package api

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var apiFieldNames = domain.FieldNames{
	Title:       "taskTitle",
	Description: "description",
	Priority:    "priorityId",
	Status:      "taskStatusId",
}

// setupRoutes configures all HTTP routes. Fixed task paths are registered
// before /:id.
func (m *Module) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	api := app.Group("/api")
	if m.cfg.RateLimitMax > 0 {
		api.Use(m.rateLimiter())
	}

	tasks := api.Group("/tasks")
	tasks.Get("", m.listTasks)
	tasks.Post("", m.createTask)
	tasks.Get("/statistics", m.statistics)
	tasks.Get("/search", m.searchTasks)
	tasks.Get("/filter", m.filterTasks)
	tasks.Get("/status/:statusId", m.listTasksByStatus)
	tasks.Get("/priority/:priorityId", m.listTasksByPriority)
	tasks.Get("/:id", m.getTask)
	tasks.Put("/:id", m.updateTask)
	tasks.Delete("/:id", m.deleteTask)

	priorities := api.Group("/priority-types")
	priorities.Get("", m.listPriorityTypes)
	priorities.Get("/:id", m.getPriorityType)

	statuses := api.Group("/task-status-types")
	statuses.Get("", m.listStatusTypes)
	statuses.Get("/:id", m.getStatusType)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"addr":   m.cfg.Addr,
		},
	})
}

// ============================================================
// Request parsing
// ============================================================

func pathID(c *fiber.Ctx, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", key))
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

func queryID(c *fiber.Ctx, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be an integer", key))
	}
	return &id, nil
}

func queryTerm(c *fiber.Ctx, key string) *string {
	term := c.Query(key)
	if term == "" {
		return nil
	}
	return &term
}

// pageRequest reads page, size, sortBy and sortDirection. Oversized pages
// are clamped to maxPageSize.
func pageRequest(c *fiber.Ctx) (domain.PageRequest, error) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		return domain.PageRequest{}, err
	}
	size, err := queryInt(c, "size", defaultPageSize)
	if err != nil {
		return domain.PageRequest{}, err
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return domain.NewPageRequest(page, size, c.Query("sortBy", "createDate"), c.Query("sortDirection", "DESC"))
}

// ============================================================
// Tasks
// ============================================================

// createTask handles POST /api/tasks.
func (m *Module) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	in := domain.CreateTaskInput{
		Title:       req.TaskTitle,
		Description: req.Description,
		PriorityID:  req.PriorityID,
		StatusID:    req.TaskStatusID,
	}
	if err := domain.ValidateCreate(in, apiFieldNames); err != nil {
		return err
	}

	t, err := m.service.CreateTask(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(*t))
}

// getTask handles GET /api/tasks/:id.
func (m *Module) getTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	t, err := m.service.GetTask(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toTaskResponse(*t))
}

// updateTask handles PUT /api/tasks/:id.
func (m *Module) updateTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	in := domain.UpdateTaskInput{
		Title:           req.TaskTitle,
		Description:     req.Description,
		PriorityID:      req.PriorityID,
		StatusID:        req.TaskStatusID,
		ExpectedVersion: req.Version,
	}
	if err := domain.ValidateUpdate(in, apiFieldNames); err != nil {
		return err
	}

	t, err := m.service.UpdateTask(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(toTaskResponse(*t))
}

// deleteTask handles DELETE /api/tasks/:id. The task is closed, not removed.
func (m *Module) deleteTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := m.service.SoftDeleteTask(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// listTasks handles GET /api/tasks.
func (m *Module) listTasks(c *fiber.Ctx) error {
	p, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := m.service.ListTasks(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(toPageResponse(page))
}

// listTasksByStatus handles GET /api/tasks/status/:statusId.
func (m *Module) listTasksByStatus(c *fiber.Ctx) error {
	statusID, err := pathID(c, "statusId")
	if err != nil {
		return err
	}
	p, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := m.service.ListTasksByStatus(c.UserContext(), statusID, p)
	if err != nil {
		return err
	}
	return c.JSON(toPageResponse(page))
}

// listTasksByPriority handles GET /api/tasks/priority/:priorityId.
func (m *Module) listTasksByPriority(c *fiber.Ctx) error {
	priorityID, err := pathID(c, "priorityId")
	if err != nil {
		return err
	}
	p, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := m.service.ListTasksByPriority(c.UserContext(), priorityID, p)
	if err != nil {
		return err
	}
	return c.JSON(toPageResponse(page))
}

// searchTasks handles GET /api/tasks/search?searchTerm=.
func (m *Module) searchTasks(c *fiber.Ctx) error {
	term := c.Query("searchTerm")
	if strings.TrimSpace(term) == "" {
		return &domain.ValidationError{Fields: map[string]string{"searchTerm": "must not be blank"}}
	}
	p, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := m.service.SearchTasks(c.UserContext(), term, p)
	if err != nil {
		return err
	}
	return c.JSON(toPageResponse(page))
}

// filterTasks handles GET /api/tasks/filter.
func (m *Module) filterTasks(c *fiber.Ctx) error {
	statusID, err := queryID(c, "statusId")
	if err != nil {
		return err
	}
	priorityID, err := queryID(c, "priorityId")
	if err != nil {
		return err
	}
	p, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := m.service.FilterTasks(c.UserContext(), domain.Filter{
		StatusID:   statusID,
		PriorityID: priorityID,
		SearchTerm: queryTerm(c, "searchTerm"),
	}, p)
	if err != nil {
		return err
	}
	return c.JSON(toPageResponse(page))
}

// statistics handles GET /api/tasks/statistics.
func (m *Module) statistics(c *fiber.Ctx) error {
	stats, err := m.service.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(toStatisticsResponse(stats))
}

// ============================================================
// Reference registries
// ============================================================

func (m *Module) listPriorityTypes(c *fiber.Ctx) error {
	priorities, err := m.service.ListPriorityTypes(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]ReferenceTypeResponse, len(priorities))
	for i, p := range priorities {
		out[i] = ReferenceTypeResponse{ID: p.ID, Type: p.Name}
	}
	return c.JSON(out)
}

func (m *Module) getPriorityType(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := m.service.GetPriorityType(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(ReferenceTypeResponse{ID: p.ID, Type: p.Name})
}

func (m *Module) listStatusTypes(c *fiber.Ctx) error {
	statuses, err := m.service.ListStatusTypes(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]ReferenceTypeResponse, len(statuses))
	for i, s := range statuses {
		out[i] = ReferenceTypeResponse{ID: s.ID, Type: s.Name}
	}
	return c.JSON(out)
}

func (m *Module) getStatusType(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s, err := m.service.GetStatusType(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(ReferenceTypeResponse{ID: s.ID, Type: s.Name})
}
