package api

import (
	"context"
	"fmt"
	"log"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	taskmod "github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// TaskService is the part of the task service the HTTP layer calls.
type TaskService interface {
	CreateTask(ctx context.Context, in domain.CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, in domain.UpdateTaskInput) (*domain.Task, error)
	SoftDeleteTask(ctx context.Context, id int64) error

	ListTasks(ctx context.Context, p domain.PageRequest) (*domain.Page[domain.Task], error)
	ListTasksByStatus(ctx context.Context, statusID int64, p domain.PageRequest) (*domain.Page[domain.Task], error)
	ListTasksByPriority(ctx context.Context, priorityID int64, p domain.PageRequest) (*domain.Page[domain.Task], error)
	SearchTasks(ctx context.Context, term string, p domain.PageRequest) (*domain.Page[domain.Task], error)
	FilterTasks(ctx context.Context, f domain.Filter, p domain.PageRequest) (*domain.Page[domain.Task], error)
	Statistics(ctx context.Context) (*domain.Statistics, error)

	ListPriorityTypes(ctx context.Context) ([]domain.PriorityType, error)
	GetPriorityType(ctx context.Context, id int64) (*domain.PriorityType, error)
	ListStatusTypes(ctx context.Context) ([]domain.TaskStatusType, error)
	GetStatusType(ctx context.Context, id int64) (*domain.TaskStatusType, error)
}

var _ TaskService = (*taskmod.Service)(nil)

// Config configures the HTTP server.
type Config struct {
	Addr            string
	AllowOrigins    string
	RateLimitMax    int
	RateLimitWindow time.Duration
	RedisAddr       string
}

// Module serves the task REST API with Fiber.
type Module struct {
	cfg            Config
	logger         types.Logger
	tasks          *taskmod.Module
	service        TaskService
	app            *fiber.App
	limiterStorage fiber.Storage

	// taskServices is the task module's container, set by the framework.
	taskServices mono.ServiceContainer
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the API module. It declares a dependency on the task
// module, so the framework starts tasks first whatever the registration order.
func NewModule(cfg Config, tasks *taskmod.Module, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		tasks:  tasks,
		logger: logger,
	}
}

// NewModuleWithService creates the API module over an existing service.
func NewModuleWithService(cfg Config, service TaskService, logger types.Logger) *Module {
	return &Module{
		cfg:     cfg,
		service: service,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the modules that must start before this one.
func (m *Module) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives the task module's service container.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "task" {
		m.taskServices = container
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *Module) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Task Tracker",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "[api] ${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	m.setupRoutes(app)
	return app
}

// Start resolves the task service and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.service == nil {
		if m.tasks == nil || m.tasks.Service() == nil {
			return fmt.Errorf("task service not available")
		}
		m.service = m.tasks.Service()
	}

	m.limiterStorage = newLimiterStorage(m.cfg.RedisAddr)
	if m.limiterStorage != nil {
		log.Printf("[api] Rate limiter counters stored in Redis at %s", m.cfg.RedisAddr)
	}
	m.app = m.newApp()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			errCh <- err
		}
	}()

	// Wait briefly to catch immediate startup errors
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[api] HTTP server started on %s", m.cfg.Addr)
	return nil
}

// Stop shuts down the HTTP server and releases the limiter storage.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}

	log.Println("[api] Shutting down HTTP server...")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if m.limiterStorage != nil {
		if err := m.limiterStorage.Close(); err != nil {
			log.Printf("[api] Error closing limiter storage: %v", err)
		}
	}
	return nil
}

// Health reports whether the HTTP server is running.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "HTTP server not started",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":         m.cfg.Addr,
			"rate_limit":   m.cfg.RateLimitMax,
			"task_service": m.taskServices != nil,
		},
	}
}

// GetApp returns the Fiber app (for testing).
func (m *Module) GetApp() *fiber.App {
	return m.app
}
