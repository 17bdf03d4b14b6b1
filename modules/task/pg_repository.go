package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS priority_types (
		id   BIGSERIAL PRIMARY KEY,
		type VARCHAR(50) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS task_status_types (
		id   BIGSERIAL PRIMARY KEY,
		type VARCHAR(50) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id                      BIGSERIAL PRIMARY KEY,
		task_title              VARCHAR(255) NOT NULL,
		description             VARCHAR(1000),
		create_date             TIMESTAMPTZ NOT NULL,
		last_status_change_date TIMESTAMPTZ NOT NULL,
		priority_id             BIGINT NOT NULL REFERENCES priority_types(id),
		task_status_id          BIGINT NOT NULL REFERENCES task_status_types(id),
		version                 BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_priority_id ON tasks (priority_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_task_status_id ON tasks (task_status_id)`,
}

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore is the PostgreSQL backed store built on pgx.
type PgStore struct {
	pool *pgxpool.Pool // nil inside a transaction
	q    pgQuerier
}

var _ domain.Store = (*PgStore)(nil)

// OpenPgStore connects to databaseURL and creates the schema if needed.
func OpenPgStore(ctx context.Context, databaseURL string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPgStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPgStore wraps an existing pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, q: pool}
}

// EnsureSchema creates the registry and task tables.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := s.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Transaction runs fn in a transaction opened with the matching access mode.
func (s *PgStore) Transaction(ctx context.Context, readOnly bool, fn func(domain.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	mode := pgx.ReadWrite
	if readOnly {
		mode = pgx.ReadOnly
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: mode}, func(tx pgx.Tx) error {
		return fn(&PgStore{q: tx})
	})
}

func (s *PgStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("ping inside a transaction")
	}
	return s.pool.Ping(ctx)
}

func (s *PgStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func isPgDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ============================================================
// Reference registries
// ============================================================

func (s *PgStore) FindPriorityType(ctx context.Context, id int64) (*domain.PriorityType, error) {
	var p domain.PriorityType
	err := s.q.QueryRow(ctx, `SELECT id, type FROM priority_types WHERE id = $1`, id).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundByID(domain.KindPriority, id)
		}
		return nil, fmt.Errorf("failed to find priority type: %w", err)
	}
	return &p, nil
}

func (s *PgStore) FindPriorityTypeByName(ctx context.Context, name string) (*domain.PriorityType, error) {
	var p domain.PriorityType
	err := s.q.QueryRow(ctx, `SELECT id, type FROM priority_types WHERE type = $1`, name).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundByName(domain.KindPriority, name)
		}
		return nil, fmt.Errorf("failed to find priority type: %w", err)
	}
	return &p, nil
}

func (s *PgStore) ListPriorityTypes(ctx context.Context) ([]domain.PriorityType, error) {
	rows, err := s.q.Query(ctx, `SELECT id, type FROM priority_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list priority types: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PriorityType, error) {
		var p domain.PriorityType
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list priority types: %w", err)
	}
	return out, nil
}

func (s *PgStore) CreatePriorityType(ctx context.Context, p *domain.PriorityType) error {
	err := s.q.QueryRow(ctx, `INSERT INTO priority_types (type) VALUES ($1) RETURNING id`, p.Name).Scan(&p.ID)
	if err != nil {
		if isPgDuplicateKeyError(err) {
			return fmt.Errorf("%w: priority type %q already exists", domain.ErrConflict, p.Name)
		}
		return fmt.Errorf("failed to create priority type: %w", err)
	}
	return nil
}

func (s *PgStore) FindStatusType(ctx context.Context, id int64) (*domain.TaskStatusType, error) {
	var st domain.TaskStatusType
	err := s.q.QueryRow(ctx, `SELECT id, type FROM task_status_types WHERE id = $1`, id).Scan(&st.ID, &st.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundByID(domain.KindStatusType, id)
		}
		return nil, fmt.Errorf("failed to find task status type: %w", err)
	}
	return &st, nil
}

func (s *PgStore) FindStatusTypeByName(ctx context.Context, name string) (*domain.TaskStatusType, error) {
	var st domain.TaskStatusType
	err := s.q.QueryRow(ctx, `SELECT id, type FROM task_status_types WHERE type = $1`, name).Scan(&st.ID, &st.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundByName(domain.KindStatusType, name)
		}
		return nil, fmt.Errorf("failed to find task status type: %w", err)
	}
	return &st, nil
}

func (s *PgStore) ListStatusTypes(ctx context.Context) ([]domain.TaskStatusType, error) {
	rows, err := s.q.Query(ctx, `SELECT id, type FROM task_status_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list task status types: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TaskStatusType, error) {
		var st domain.TaskStatusType
		err := row.Scan(&st.ID, &st.Name)
		return st, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list task status types: %w", err)
	}
	return out, nil
}

func (s *PgStore) CreateStatusType(ctx context.Context, st *domain.TaskStatusType) error {
	err := s.q.QueryRow(ctx, `INSERT INTO task_status_types (type) VALUES ($1) RETURNING id`, st.Name).Scan(&st.ID)
	if err != nil {
		if isPgDuplicateKeyError(err) {
			return fmt.Errorf("%w: task status type %q already exists", domain.ErrConflict, st.Name)
		}
		return fmt.Errorf("failed to create task status type: %w", err)
	}
	return nil
}

// ============================================================
// Tasks
// ============================================================

const pgTaskSelect = `SELECT t.id, t.task_title, t.description, t.create_date, t.last_status_change_date, t.version,
	p.id, p.type, s.id, s.type
	FROM tasks t
	JOIN priority_types p ON p.id = t.priority_id
	JOIN task_status_types s ON s.id = t.task_status_id`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.LastStatusChangedAt, &t.Version,
		&t.Priority.ID, &t.Priority.Name, &t.Status.ID, &t.Status.Name,
	)
	t.PriorityID = t.Priority.ID
	t.StatusID = t.Status.ID
	return t, err
}

func (s *PgStore) FindTask(ctx context.Context, id int64) (*domain.Task, error) {
	t, err := scanTask(s.q.QueryRow(ctx, pgTaskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundByID(domain.KindTask, id)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

func (s *PgStore) CreateTask(ctx context.Context, t *domain.Task) error {
	err := s.q.QueryRow(ctx,
		`INSERT INTO tasks (task_title, description, create_date, last_status_change_date, priority_id, task_status_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		t.Title, t.Description, t.CreatedAt, t.LastStatusChangedAt, t.PriorityID, t.StatusID, t.Version,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *PgStore) UpdateTask(ctx context.Context, t *domain.Task, expectedVersion *int64) error {
	query := `UPDATE tasks SET task_title = $2, description = $3, priority_id = $4, task_status_id = $5,
		last_status_change_date = $6, version = $7 WHERE id = $1`
	args := []any{t.ID, t.Title, t.Description, t.PriorityID, t.StatusID, t.LastStatusChangedAt, t.Version}
	if expectedVersion != nil {
		query += ` AND version = $8`
		args = append(args, *expectedVersion)
	}

	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if expectedVersion != nil {
		var exists bool
		if err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check task: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: task %d is not at version %d", domain.ErrConflict, t.ID, *expectedVersion)
		}
	}
	return domain.NotFoundByID(domain.KindTask, t.ID)
}

// pgWhere builds the WHERE clause for f with positional arguments.
func pgWhere(f domain.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.StatusID != nil {
		args = append(args, *f.StatusID)
		conds = append(conds, fmt.Sprintf("t.task_status_id = $%d", len(args)))
	}
	if f.PriorityID != nil {
		args = append(args, *f.PriorityID)
		conds = append(conds, fmt.Sprintf("t.priority_id = $%d", len(args)))
	}
	if pattern, ok := f.LikePattern(); ok {
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(LOWER(t.task_title) LIKE LOWER($%d) ESCAPE '\' OR LOWER(t.description) LIKE LOWER($%d) ESCAPE '\')`, n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PgStore) SearchTasks(ctx context.Context, f domain.Filter, p domain.PageRequest) ([]domain.Task, int64, error) {
	where, args := pgWhere(f)

	var total int64
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	if total == 0 || p.Offset() >= int(total) {
		return []domain.Task{}, total, nil
	}

	dir := "ASC"
	if p.Direction.Desc() {
		dir = "DESC"
	}
	args = append(args, p.Size, p.Offset())
	query := fmt.Sprintf("%s%s ORDER BY t.%s %s, t.id ASC LIMIT $%d OFFSET $%d",
		pgTaskSelect, where, p.Sort.Column(), dir, len(args)-1, len(args))

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search tasks: %w", err)
	}
	return tasks, total, nil
}

// ============================================================
// Statistics
// ============================================================

func (s *PgStore) CountTasks(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

func (s *PgStore) countGrouped(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			name string
			n    int64
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

func (s *PgStore) CountTasksByStatus(ctx context.Context) (map[string]int64, error) {
	out, err := s.countGrouped(ctx, `SELECT s.type, COUNT(*) FROM tasks t
		JOIN task_status_types s ON s.id = t.task_status_id GROUP BY s.type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	return out, nil
}

func (s *PgStore) CountTasksByPriority(ctx context.Context) (map[string]int64, error) {
	out, err := s.countGrouped(ctx, `SELECT p.type, COUNT(*) FROM tasks t
		JOIN priority_types p ON p.id = t.priority_id GROUP BY p.type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by priority: %w", err)
	}
	return out, nil
}
