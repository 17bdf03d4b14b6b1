package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Request-reply service names, prefixed "services.task." by the framework.
const (
	ServiceCreate            = "create"
	ServiceGet               = "get"
	ServiceUpdate            = "update"
	ServiceDelete            = "delete"
	ServiceFilter            = "filter"
	ServiceStatistics        = "statistics"
	ServiceListPriorityTypes = "list-priority-types"
	ServiceGetPriorityType   = "get-priority-type"
	ServiceListStatusTypes   = "list-status-types"
	ServiceGetStatusType     = "get-status-type"
)

// ServiceNames lists every service RegisterServices registers.
var ServiceNames = []string{
	ServiceCreate,
	ServiceGet,
	ServiceUpdate,
	ServiceDelete,
	ServiceFilter,
	ServiceStatistics,
	ServiceListPriorityTypes,
	ServiceGetPriorityType,
	ServiceListStatusTypes,
	ServiceGetStatusType,
}

// DefaultPageSize applies when a caller leaves the page size unset.
const DefaultPageSize = 10

// Config selects and configures the task store.
type Config struct {
	Driver          string
	DBPath          string
	DatabaseURL     string
	Debug           bool
	SeedSampleTasks bool
}

// Module owns the task store and exposes the task service.
type Module struct {
	cfg     Config
	logger  types.Logger
	store   domain.Store
	service *Service
	opts    []ServiceOption
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a task module that opens its store on Start.
func NewModule(cfg Config, logger types.Logger) *Module {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	return &Module{cfg: cfg, logger: logger}
}

// NewModuleWithStore creates a task module over an already open store.
func NewModuleWithStore(store domain.Store, logger types.Logger, opts ...ServiceOption) *Module {
	return &Module{
		cfg:    Config{Driver: "injected"},
		logger: logger,
		store:  store,
		opts:   opts,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// Service returns the task service. It is nil until Start succeeds.
func (m *Module) Service() *Service {
	return m.service
}

// Health reports whether the store answers a ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.cfg.Driver,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
// The framework prefixes names with "services.task.".
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreate, json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGet, json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdate, json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDelete, json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceFilter, json.Unmarshal, json.Marshal, m.filterTasks,
	); err != nil {
		return fmt.Errorf("failed to register filter service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceStatistics, json.Unmarshal, json.Marshal, m.statistics,
	); err != nil {
		return fmt.Errorf("failed to register statistics service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListPriorityTypes, json.Unmarshal, json.Marshal, m.listPriorityTypes,
	); err != nil {
		return fmt.Errorf("failed to register list-priority-types service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetPriorityType, json.Unmarshal, json.Marshal, m.getPriorityType,
	); err != nil {
		return fmt.Errorf("failed to register get-priority-type service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListStatusTypes, json.Unmarshal, json.Marshal, m.listStatusTypes,
	); err != nil {
		return fmt.Errorf("failed to register list-status-types service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetStatusType, json.Unmarshal, json.Marshal, m.getStatusType,
	); err != nil {
		return fmt.Errorf("failed to register get-status-type service: %w", err)
	}

	log.Printf("[task] Registered services: services.task.{%s}", strings.Join(ServiceNames, ","))
	return nil
}

// Start opens the store, seeds reference data and builds the service.
func (m *Module) Start(ctx context.Context) error {
	if m.store == nil {
		store, err := m.openStore(ctx)
		if err != nil {
			return err
		}
		m.store = store
	}

	if err := SeedReferenceData(ctx, m.store); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	m.service = NewService(m.store, m.logger, m.opts...)

	if m.cfg.SeedSampleTasks {
		n, err := SeedSampleTasks(ctx, m.store, m.service)
		if err != nil {
			return fmt.Errorf("failed to seed sample tasks: %w", err)
		}
		if n > 0 {
			log.Printf("[task] Seeded %d sample tasks", n)
		}
	}

	log.Println("[task] Module started successfully")
	return nil
}

func (m *Module) openStore(ctx context.Context) (domain.Store, error) {
	switch m.cfg.Driver {
	case DriverSQLite:
		log.Printf("[task] Opening SQLite database: %s", m.cfg.DBPath)
		return OpenGormStore(m.cfg.DBPath, m.cfg.Debug)
	case DriverPostgres:
		log.Printf("[task] Connecting to PostgreSQL...")
		return OpenPgStore(ctx, m.cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", m.cfg.Driver)
	}
}

// Stop closes the store.
func (m *Module) Stop(_ context.Context) error {
	if m.store == nil {
		return nil
	}

	log.Println("[task] Closing database connection...")
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("[task] Database connection closed")
	return nil
}
