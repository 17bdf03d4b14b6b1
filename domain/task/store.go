package task

import "context"

// RegistryStore reads and seeds the two reference tables.
// Lookups return a NotFoundError when nothing matches.
type RegistryStore interface {
	FindPriorityType(ctx context.Context, id int64) (*PriorityType, error)
	FindPriorityTypeByName(ctx context.Context, name string) (*PriorityType, error)
	ListPriorityTypes(ctx context.Context) ([]PriorityType, error)
	CreatePriorityType(ctx context.Context, p *PriorityType) error

	FindStatusType(ctx context.Context, id int64) (*TaskStatusType, error)
	FindStatusTypeByName(ctx context.Context, name string) (*TaskStatusType, error)
	ListStatusTypes(ctx context.Context) ([]TaskStatusType, error)
	CreateStatusType(ctx context.Context, s *TaskStatusType) error
}

// TaskStore persists tasks and answers filtered, paged queries.
type TaskStore interface {
	FindTask(ctx context.Context, id int64) (*Task, error)
	CreateTask(ctx context.Context, t *Task) error
	// UpdateTask writes t. A non-nil expectedVersion must match the stored
	// version or ErrConflict is returned.
	UpdateTask(ctx context.Context, t *Task, expectedVersion *int64) error
	// SearchTasks returns the requested window plus the total match count.
	SearchTasks(ctx context.Context, f Filter, p PageRequest) ([]Task, int64, error)
}

// StatisticsStore answers the counting queries behind Statistics.
type StatisticsStore interface {
	CountTasks(ctx context.Context) (int64, error)
	CountTasksByStatus(ctx context.Context) (map[string]int64, error)
	CountTasksByPriority(ctx context.Context) (map[string]int64, error)
}

// Store is the relational storage used by the task service.
type Store interface {
	RegistryStore
	TaskStore
	StatisticsStore

	// Transaction runs fn against a store bound to one transaction.
	// Calls on a store that is already transactional run fn in place.
	Transaction(ctx context.Context, readOnly bool, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
