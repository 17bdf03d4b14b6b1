package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore is the SQLite backed store built on GORM.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

var _ domain.Store = (*GormStore)(nil)

// OpenGormStore opens (or creates) the SQLite database at path and
// migrates the schema. debug turns on GORM's SQL logging.
func OpenGormStore(path string, debug bool) (*GormStore, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection serializes transactions.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store := NewGormStore(db)
	if err := store.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// NewGormStore wraps an open GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the registry and task tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&domain.PriorityType{}, &domain.TaskStatusType{}, &domain.Task{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Transaction runs fn inside db.Transaction. The readOnly flag is not
// passed to SQLite; the single connection already isolates callers.
func (s *GormStore) Transaction(ctx context.Context, _ bool, fn func(domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

// Ping checks the underlying connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

// ============================================================
// Reference registries
// ============================================================

func (s *GormStore) FindPriorityType(ctx context.Context, id int64) (*domain.PriorityType, error) {
	var p domain.PriorityType
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundByID(domain.KindPriority, id)
		}
		return nil, fmt.Errorf("failed to find priority type: %w", err)
	}
	return &p, nil
}

func (s *GormStore) FindPriorityTypeByName(ctx context.Context, name string) (*domain.PriorityType, error) {
	var p domain.PriorityType
	if err := s.db.WithContext(ctx).Where("type = ?", name).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundByName(domain.KindPriority, name)
		}
		return nil, fmt.Errorf("failed to find priority type: %w", err)
	}
	return &p, nil
}

func (s *GormStore) ListPriorityTypes(ctx context.Context) ([]domain.PriorityType, error) {
	var out []domain.PriorityType
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list priority types: %w", err)
	}
	return out, nil
}

func (s *GormStore) CreatePriorityType(ctx context.Context, p *domain.PriorityType) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: priority type %q already exists", domain.ErrConflict, p.Name)
		}
		return fmt.Errorf("failed to create priority type: %w", err)
	}
	return nil
}

func (s *GormStore) FindStatusType(ctx context.Context, id int64) (*domain.TaskStatusType, error) {
	var st domain.TaskStatusType
	if err := s.db.WithContext(ctx).First(&st, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundByID(domain.KindStatusType, id)
		}
		return nil, fmt.Errorf("failed to find task status type: %w", err)
	}
	return &st, nil
}

func (s *GormStore) FindStatusTypeByName(ctx context.Context, name string) (*domain.TaskStatusType, error) {
	var st domain.TaskStatusType
	if err := s.db.WithContext(ctx).Where("type = ?", name).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundByName(domain.KindStatusType, name)
		}
		return nil, fmt.Errorf("failed to find task status type: %w", err)
	}
	return &st, nil
}

func (s *GormStore) ListStatusTypes(ctx context.Context) ([]domain.TaskStatusType, error) {
	var out []domain.TaskStatusType
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list task status types: %w", err)
	}
	return out, nil
}

func (s *GormStore) CreateStatusType(ctx context.Context, st *domain.TaskStatusType) error {
	if err := s.db.WithContext(ctx).Create(st).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: task status type %q already exists", domain.ErrConflict, st.Name)
		}
		return fmt.Errorf("failed to create task status type: %w", err)
	}
	return nil
}

// ============================================================
// Tasks
// ============================================================

func (s *GormStore) withRefs(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Priority").Preload("Status")
}

func (s *GormStore) FindTask(ctx context.Context, id int64) (*domain.Task, error) {
	var t domain.Task
	if err := s.withRefs(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundByID(domain.KindTask, id)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

func (s *GormStore) CreateTask(ctx context.Context, t *domain.Task) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateTask(ctx context.Context, t *domain.Task, expectedVersion *int64) error {
	q := s.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", t.ID)
	if expectedVersion != nil {
		q = q.Where("version = ?", *expectedVersion)
	}

	result := q.Updates(map[string]any{
		"task_title":              t.Title,
		"description":             t.Description,
		"priority_id":             t.PriorityID,
		"task_status_id":          t.StatusID,
		"last_status_change_date": t.LastStatusChangedAt,
		"version":                 t.Version,
	})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if expectedVersion != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", t.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check task: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: task %d is not at version %d", domain.ErrConflict, t.ID, *expectedVersion)
		}
	}
	return domain.NotFoundByID(domain.KindTask, t.ID)
}

func filterScope(f domain.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.StatusID != nil {
			db = db.Where("task_status_id = ?", *f.StatusID)
		}
		if f.PriorityID != nil {
			db = db.Where("priority_id = ?", *f.PriorityID)
		}
		if pattern, ok := f.LikePattern(); ok {
			db = db.Where(`(LOWER(task_title) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
		}
		return db
	}
}

func (s *GormStore) SearchTasks(ctx context.Context, f domain.Filter, p domain.PageRequest) ([]domain.Task, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.Task{}).Scopes(filterScope(f)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	if total == 0 || p.Offset() >= int(total) {
		return []domain.Task{}, total, nil
	}

	var tasks []domain.Task
	err := s.withRefs(ctx).
		Scopes(filterScope(f)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: p.Sort.Column()}, Desc: p.Direction.Desc()}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(p.Offset()).
		Limit(p.Size).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search tasks: %w", err)
	}
	return tasks, total, nil
}

// ============================================================
// Statistics
// ============================================================

func (s *GormStore) CountTasks(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.Task{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

type nameCount struct {
	Name  string
	Total int64
}

func (s *GormStore) countGrouped(ctx context.Context, table, fk string) (map[string]int64, error) {
	var rows []nameCount
	err := s.db.WithContext(ctx).
		Table("tasks").
		Select(table + ".type AS name, COUNT(*) AS total").
		Joins("JOIN " + table + " ON " + table + ".id = tasks." + fk).
		Group(table + ".type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Total
	}
	return out, nil
}

func (s *GormStore) CountTasksByStatus(ctx context.Context) (map[string]int64, error) {
	out, err := s.countGrouped(ctx, "task_status_types", "task_status_id")
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	return out, nil
}

func (s *GormStore) CountTasksByPriority(ctx context.Context) (map[string]int64, error) {
	out, err := s.countGrouped(ctx, "priority_types", "priority_id")
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by priority: %w", err)
	}
	return out, nil
}
