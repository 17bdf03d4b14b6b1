package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// Service implements task lifecycle, queries, statistics and registry
// reads on top of a domain.Store. Every call runs in its own transaction.
type Service struct {
	store  domain.Store
	logger types.Logger
	now    func() time.Time

	closedStatusID atomic.Int64
	closedLookup   singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock replaces the time source used for task timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service over store.
func NewService(store domain.Store, logger types.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) read(ctx context.Context, fn func(domain.Store) error) error {
	return s.store.Transaction(ctx, true, fn)
}

func (s *Service) write(ctx context.Context, fn func(domain.Store) error) error {
	return s.store.Transaction(ctx, false, fn)
}

// ============================================================
// Reference registries
// ============================================================

func (s *Service) ListPriorityTypes(ctx context.Context) ([]domain.PriorityType, error) {
	var out []domain.PriorityType
	err := s.read(ctx, func(tx domain.Store) (err error) {
		out, err = tx.ListPriorityTypes(ctx)
		return err
	})
	return out, err
}

func (s *Service) GetPriorityType(ctx context.Context, id int64) (*domain.PriorityType, error) {
	var out *domain.PriorityType
	err := s.read(ctx, func(tx domain.Store) (err error) {
		out, err = tx.FindPriorityType(ctx, id)
		return err
	})
	return out, err
}

// GetPriorityTypeByName matches name exactly, case included.
func (s *Service) GetPriorityTypeByName(ctx context.Context, name string) (*domain.PriorityType, error) {
	var out *domain.PriorityType
	err := s.read(ctx, func(tx domain.Store) (err error) {
		out, err = tx.FindPriorityTypeByName(ctx, name)
		return err
	})
	return out, err
}

func (s *Service) ListStatusTypes(ctx context.Context) ([]domain.TaskStatusType, error) {
	var out []domain.TaskStatusType
	err := s.read(ctx, func(tx domain.Store) (err error) {
		out, err = tx.ListStatusTypes(ctx)
		return err
	})
	return out, err
}

func (s *Service) GetStatusType(ctx context.Context, id int64) (*domain.TaskStatusType, error) {
	var out *domain.TaskStatusType
	err := s.read(ctx, func(tx domain.Store) (err error) {
		out, err = tx.FindStatusType(ctx, id)
		return err
	})
	return out, err
}

// GetStatusTypeByName matches name exactly, case included.
func (s *Service) GetStatusTypeByName(ctx context.Context, name string) (*domain.TaskStatusType, error) {
	var out *domain.TaskStatusType
	err := s.read(ctx, func(tx domain.Store) (err error) {
		out, err = tx.FindStatusTypeByName(ctx, name)
		return err
	})
	return out, err
}

// ============================================================
// Queries
// ============================================================

// FilterTasks returns one page of tasks matching every present criterion
// of f. Unknown status or priority ids simply match nothing.
func (s *Service) FilterTasks(ctx context.Context, f domain.Filter, p domain.PageRequest) (*domain.Page[domain.Task], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var (
		tasks []domain.Task
		total int64
	)
	err := s.read(ctx, func(tx domain.Store) (err error) {
		tasks, total, err = tx.SearchTasks(ctx, f, p)
		return err
	})
	if err != nil {
		s.logger.Error("Task query failed", "error", err)
		return nil, err
	}
	return domain.NewPage(tasks, p, total), nil
}

func (s *Service) ListTasks(ctx context.Context, p domain.PageRequest) (*domain.Page[domain.Task], error) {
	return s.FilterTasks(ctx, domain.Filter{}, p)
}

func (s *Service) ListTasksByStatus(ctx context.Context, statusID int64, p domain.PageRequest) (*domain.Page[domain.Task], error) {
	return s.FilterTasks(ctx, domain.Filter{StatusID: &statusID}, p)
}

func (s *Service) ListTasksByPriority(ctx context.Context, priorityID int64, p domain.PageRequest) (*domain.Page[domain.Task], error) {
	return s.FilterTasks(ctx, domain.Filter{PriorityID: &priorityID}, p)
}

// SearchTasks matches term case-insensitively against title or description.
func (s *Service) SearchTasks(ctx context.Context, term string, p domain.PageRequest) (*domain.Page[domain.Task], error) {
	return s.FilterTasks(ctx, domain.Filter{SearchTerm: &term}, p)
}

// ============================================================
// Statistics
// ============================================================

// Statistics summarizes every task in one read transaction.
func (s *Service) Statistics(ctx context.Context) (*domain.Statistics, error) {
	var (
		total      int64
		byStatus   map[string]int64
		byPriority map[string]int64
	)
	err := s.read(ctx, func(tx domain.Store) (err error) {
		if total, err = tx.CountTasks(ctx); err != nil {
			return err
		}
		if byStatus, err = tx.CountTasksByStatus(ctx); err != nil {
			return err
		}
		byPriority, err = tx.CountTasksByPriority(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("Task statistics failed", "error", err)
		return nil, err
	}
	return domain.Summarize(total, byStatus, byPriority), nil
}

// ============================================================
// Lifecycle
// ============================================================

func (s *Service) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var out *domain.Task
	err := s.read(ctx, func(tx domain.Store) (err error) {
		out, err = tx.FindTask(ctx, id)
		return err
	})
	return out, err
}

// CreateTask resolves the priority and status before inserting, so an
// unknown id leaves storage untouched.
func (s *Service) CreateTask(ctx context.Context, in domain.CreateTaskInput) (*domain.Task, error) {
	var created *domain.Task
	err := s.write(ctx, func(tx domain.Store) error {
		priority, err := tx.FindPriorityType(ctx, in.PriorityID)
		if err != nil {
			return err
		}
		status, err := tx.FindStatusType(ctx, in.StatusID)
		if err != nil {
			return err
		}

		now := s.now()
		t := &domain.Task{
			Title:               in.Title,
			Description:         in.Description,
			CreatedAt:           now,
			LastStatusChangedAt: now,
			PriorityID:          priority.ID,
			Priority:            *priority,
			StatusID:            status.ID,
			Status:              *status,
			Version:             1,
		}
		if err := tx.CreateTask(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task created", "task_id", created.ID, "priority", created.Priority.Name, "status", created.Status.Name)
	return created, nil
}

// UpdateTask applies the non-nil fields of in. A title that is blank after
// trimming is ignored. lastStatusChangedAt is refreshed on every call.
func (s *Service) UpdateTask(ctx context.Context, id int64, in domain.UpdateTaskInput) (*domain.Task, error) {
	var updated *domain.Task
	err := s.write(ctx, func(tx domain.Store) error {
		t, err := tx.FindTask(ctx, id)
		if err != nil {
			return err
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != t.Version {
			return fmt.Errorf("%w: task %d is at version %d, not %d", domain.ErrConflict, id, t.Version, *in.ExpectedVersion)
		}

		if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = in.Description
		}
		if in.PriorityID != nil {
			priority, err := tx.FindPriorityType(ctx, *in.PriorityID)
			if err != nil {
				return err
			}
			t.PriorityID, t.Priority = priority.ID, *priority
		}
		if in.StatusID != nil {
			status, err := tx.FindStatusType(ctx, *in.StatusID)
			if err != nil {
				return err
			}
			t.StatusID, t.Status = status.ID, *status
		}

		if err := s.save(ctx, tx, t, in.ExpectedVersion); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task updated", "task_id", updated.ID, "version", updated.Version, "status", updated.Status.Name)
	return updated, nil
}

// SoftDeleteTask moves the task to the CLOSED status. The row stays
// queryable and repeating the call is not an error.
func (s *Service) SoftDeleteTask(ctx context.Context, id int64) error {
	closed, err := s.closedStatus(ctx)
	if err == nil {
		err = s.write(ctx, func(tx domain.Store) error {
			t, err := tx.FindTask(ctx, id)
			if err != nil {
				return err
			}
			t.StatusID, t.Status = closed.ID, *closed
			return s.save(ctx, tx, t, nil)
		})
	}
	if err != nil {
		if errors.Is(err, domain.ErrMissingClosedStatus) {
			s.logger.Error("Soft delete impossible", "task_id", id, "error", err)
		}
		return err
	}

	s.logger.Info("Task closed", "task_id", id)
	return nil
}

func (s *Service) save(ctx context.Context, tx domain.Store, t *domain.Task, expectedVersion *int64) error {
	t.LastStatusChangedAt = s.now()
	t.Version++
	return tx.UpdateTask(ctx, t, expectedVersion)
}

// closedStatus resolves the CLOSED status once and reuses its id.
// Concurrent callers share one lookup, which runs in its own read
// transaction detached from any caller's cancellation. Each caller stops
// waiting when its own ctx ends.
func (s *Service) closedStatus(ctx context.Context) (*domain.TaskStatusType, error) {
	if id := s.closedStatusID.Load(); id != 0 {
		return &domain.TaskStatusType{ID: id, Name: domain.StatusClosed}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lookupCtx := context.WithoutCancel(ctx)
	ch := s.closedLookup.DoChan(domain.StatusClosed, func() (any, error) {
		var closed *domain.TaskStatusType
		err := s.read(lookupCtx, func(tx domain.Store) (err error) {
			closed, err = tx.FindStatusTypeByName(lookupCtx, domain.StatusClosed)
			return err
		})
		if err != nil {
			return nil, err
		}
		s.closedStatusID.Store(closed.ID)
		return closed, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %w", domain.ErrMissingClosedStatus, res.Err)
			}
			return nil, res.Err
		}
		return res.Val.(*domain.TaskStatusType), nil
	}
}
