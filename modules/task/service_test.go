package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger discards everything.
type mockLogger struct{}

var _ types.Logger = (*mockLogger)(nil)

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *GormStore
	svc      *Service
	clock    *testClock
	priority map[string]int64
	status   map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := setupTestDB(t)
	clock := newTestClock()
	f := &fixture{
		store:    store,
		svc:      NewService(store, &mockLogger{}, WithClock(clock.Now)),
		clock:    clock,
		priority: map[string]int64{},
		status:   map[string]int64{},
	}
	f.reload(t)
	return f
}

// reload refreshes the name to id maps after registry changes.
func (f *fixture) reload(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	priorities, err := f.svc.ListPriorityTypes(ctx)
	if err != nil {
		t.Fatalf("ListPriorityTypes() error = %v", err)
	}
	for _, p := range priorities {
		f.priority[p.Name] = p.ID
	}
	statuses, err := f.svc.ListStatusTypes(ctx)
	if err != nil {
		t.Fatalf("ListStatusTypes() error = %v", err)
	}
	for _, s := range statuses {
		f.status[s.Name] = s.ID
	}
}

func (f *fixture) create(t *testing.T, title, description, priority, status string) *domain.Task {
	t.Helper()

	in := domain.CreateTaskInput{
		Title:      title,
		PriorityID: f.priority[priority],
		StatusID:   f.status[status],
	}
	if description != "" {
		in.Description = &description
	}
	task, err := f.svc.CreateTask(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateTask(%q) error = %v", title, err)
	}
	return task
}

func firstPage(size int) domain.PageRequest {
	return domain.PageRequest{Page: 0, Size: size, Sort: domain.SortByCreatedAt, Direction: domain.SortDesc}
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestService_CreateTask(t *testing.T) {
	f := newFixture(t)

	task := f.create(t, "Write tests", "cover the service", domain.PriorityHigh, domain.StatusOpen)

	if task.ID == 0 {
		t.Error("expected an id to be assigned")
	}
	if !task.CreatedAt.Equal(f.clock.Now()) || !task.LastStatusChangedAt.Equal(task.CreatedAt) {
		t.Errorf("expected both timestamps at %v, got %v and %v", f.clock.Now(), task.CreatedAt, task.LastStatusChangedAt)
	}
	if task.Priority.Name != domain.PriorityHigh || task.Status.Name != domain.StatusOpen {
		t.Errorf("expected HIGH/OPEN, got %s/%s", task.Priority.Name, task.Status.Name)
	}
	if task.Version != 1 {
		t.Errorf("expected version 1, got %d", task.Version)
	}

	stored, err := f.svc.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if stored.Title != "Write tests" || stored.Description == nil || *stored.Description != "cover the service" {
		t.Errorf("unexpected stored task %+v", stored)
	}
}

func TestService_CreateTask_UnresolvableReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		in       domain.CreateTaskInput
		wantKind domain.EntityKind
	}{
		{"priority", domain.CreateTaskInput{Title: "x", PriorityID: 999, StatusID: f.status[domain.StatusOpen]}, domain.KindPriority},
		{"status", domain.CreateTaskInput{Title: "x", PriorityID: f.priority[domain.PriorityLow], StatusID: 999}, domain.KindStatusType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTask(ctx, tt.in)
			var nf *domain.NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if nf.Kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, nf.Kind)
			}
		})
	}

	n, err := f.store.CountTasks(ctx)
	if err != nil {
		t.Fatalf("CountTasks() error = %v", err)
	}
	if n != 0 {
		t.Errorf("failed creates must not write, found %d tasks", n)
	}
}

func TestService_GetTask_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetTask(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdateTask_Partial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Original", "first", domain.PriorityLow, domain.StatusOpen)

	f.clock.Advance(time.Hour)
	updated, err := f.svc.UpdateTask(ctx, task.ID, domain.UpdateTaskInput{Description: strPtr("second")})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	if updated.Title != "Original" {
		t.Errorf("absent title must be kept, got %q", updated.Title)
	}
	if *updated.Description != "second" {
		t.Errorf("expected description %q, got %q", "second", *updated.Description)
	}
	if updated.Priority.Name != domain.PriorityLow || updated.Status.Name != domain.StatusOpen {
		t.Errorf("references must be kept, got %s/%s", updated.Priority.Name, updated.Status.Name)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("createdAt changed from %v to %v", task.CreatedAt, updated.CreatedAt)
	}
	if !updated.LastStatusChangedAt.Equal(f.clock.Now()) {
		t.Errorf("expected lastStatusChangedAt %v, got %v", f.clock.Now(), updated.LastStatusChangedAt)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}
}

func TestService_UpdateTask_AllFields(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Original", "", domain.PriorityLow, domain.StatusOpen)

	updated, err := f.svc.UpdateTask(context.Background(), task.ID, domain.UpdateTaskInput{
		Title:      strPtr("Renamed"),
		PriorityID: int64Ptr(f.priority[domain.PriorityHigh]),
		StatusID:   int64Ptr(f.status[domain.StatusInProgress]),
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "Renamed" || updated.Priority.Name != domain.PriorityHigh || updated.Status.Name != domain.StatusInProgress {
		t.Errorf("unexpected update result %+v", updated)
	}

	stored, _ := f.svc.GetTask(context.Background(), task.ID)
	if stored.Status.Name != domain.StatusInProgress {
		t.Errorf("expected persisted status IN_PROGRESS, got %s", stored.Status.Name)
	}
}

func TestService_UpdateTask_BlankTitleIgnored(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Keep me", "", domain.PriorityLow, domain.StatusOpen)

	for _, title := range []string{"", "   ", "\t\n"} {
		updated, err := f.svc.UpdateTask(context.Background(), task.ID, domain.UpdateTaskInput{Title: strPtr(title)})
		if err != nil {
			t.Fatalf("UpdateTask(%q) error = %v", title, err)
		}
		if updated.Title != "Keep me" {
			t.Errorf("blank title %q replaced the title with %q", title, updated.Title)
		}
	}
}

func TestService_UpdateTask_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateTask(context.Background(), 404, domain.UpdateTaskInput{Title: strPtr("x")})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != domain.KindTask {
		t.Errorf("expected task NotFoundError, got %v", err)
	}
}

func TestService_UpdateTask_CrossRegistryID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Grow the priority registry past the last status id.
	for _, name := range []string{"URGENT", "CRITICAL", "TRIVIAL"} {
		if err := f.store.CreatePriorityType(ctx, &domain.PriorityType{Name: name}); err != nil {
			t.Fatalf("CreatePriorityType(%s) error = %v", name, err)
		}
	}
	f.reload(t)
	priorityOnlyID := f.priority["TRIVIAL"]
	if _, err := f.svc.GetStatusType(ctx, priorityOnlyID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("test setup: id %d must not be a status id", priorityOnlyID)
	}

	task := f.create(t, "Guarded", "", domain.PriorityLow, domain.StatusOpen)
	_, err := f.svc.UpdateTask(ctx, task.ID, domain.UpdateTaskInput{
		Title:    strPtr("should not stick"),
		StatusID: &priorityOnlyID,
	})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != domain.KindStatusType {
		t.Fatalf("expected status NotFoundError, got %v", err)
	}

	stored, _ := f.svc.GetTask(ctx, task.ID)
	if stored.Title != "Guarded" || stored.Status.Name != domain.StatusOpen || stored.Version != 1 {
		t.Errorf("failed update must leave the row untouched, got %+v", stored)
	}
}

func TestService_UpdateTask_ExpectedVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Versioned", "", domain.PriorityLow, domain.StatusOpen)

	updated, err := f.svc.UpdateTask(ctx, task.ID, domain.UpdateTaskInput{
		Title:           strPtr("First writer"),
		ExpectedVersion: int64Ptr(1),
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	_, err = f.svc.UpdateTask(ctx, task.ID, domain.UpdateTaskInput{
		Title:           strPtr("Second writer"),
		ExpectedVersion: int64Ptr(1),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, _ := f.svc.GetTask(ctx, task.ID)
	if stored.Title != "First writer" {
		t.Errorf("conflicting update must not be applied, got %q", stored.Title)
	}
}

func TestService_SoftDeleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Retire me", "", domain.PriorityMedium, domain.StatusInProgress)

	for i := 0; i < 2; i++ {
		if err := f.svc.SoftDeleteTask(ctx, task.ID); err != nil {
			t.Fatalf("SoftDeleteTask() call %d error = %v", i+1, err)
		}
	}

	stored, err := f.svc.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("soft-deleted task must stay retrievable: %v", err)
	}
	if !stored.IsClosed() {
		t.Errorf("expected CLOSED, got %s", stored.Status.Name)
	}
	if stored.Title != "Retire me" || stored.Priority.Name != domain.PriorityMedium {
		t.Errorf("soft delete must keep other fields, got %+v", stored)
	}

	page, err := f.svc.ListTasksByStatus(ctx, f.status[domain.StatusClosed], firstPage(10))
	if err != nil {
		t.Fatalf("ListTasksByStatus() error = %v", err)
	}
	if page.TotalElements != 1 {
		t.Errorf("expected the closed task to be queryable, got %d", page.TotalElements)
	}
}

func TestService_SoftDeleteTask_NotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SoftDeleteTask(context.Background(), 77)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, domain.ErrMissingClosedStatus) {
		t.Errorf("a missing task is not a configuration problem: %v", err)
	}
}

func TestService_SoftDeleteTask_MissingClosedStatus(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if err := store.db.Where("type = ?", domain.StatusClosed).Delete(&domain.TaskStatusType{}).Error; err != nil {
		t.Fatalf("failed to remove CLOSED: %v", err)
	}
	svc := NewService(store, &mockLogger{})
	task := insertTask(t, store, "Stuck", nil, 1, 1)

	err := svc.SoftDeleteTask(ctx, task.ID)
	if !errors.Is(err, domain.ErrMissingClosedStatus) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrMissingClosedStatus wrapping ErrNotFound, got %v", err)
	}

	stored, _ := store.FindTask(ctx, task.ID)
	if stored.Status.Name != domain.StatusOpen {
		t.Errorf("failed delete must not write, status is %s", stored.Status.Name)
	}
}

func TestService_SoftDeleteTask_CancelledCallerDoesNotPoisonLookup(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Later", "", domain.PriorityLow, domain.StatusOpen)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.svc.SoftDeleteTask(cancelled, task.ID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := f.svc.SoftDeleteTask(context.Background(), task.ID); err != nil {
		t.Fatalf("SoftDeleteTask() error = %v", err)
	}
	stored, err := f.svc.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if !stored.IsClosed() {
		t.Errorf("expected CLOSED, got %s", stored.Status.Name)
	}
}

func TestService_SoftDeleteTask_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]int64, 8)
	for i := range ids {
		ids[i] = f.create(t, fmt.Sprintf("task %d", i), "", domain.PriorityLow, domain.StatusOpen).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			errs <- f.svc.SoftDeleteTask(ctx, id)
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("SoftDeleteTask() error = %v", err)
		}
	}

	page, err := f.svc.ListTasksByStatus(ctx, f.status[domain.StatusClosed], firstPage(10))
	if err != nil {
		t.Fatalf("ListTasksByStatus() error = %v", err)
	}
	if page.TotalElements != int64(len(ids)) {
		t.Errorf("expected %d closed tasks, got %d", len(ids), page.TotalElements)
	}
}

func TestService_Registries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GetStatusTypeByName(ctx, "open"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected lowercase lookup to fail, got %v", err)
	}
	open, err := f.svc.GetStatusTypeByName(ctx, domain.StatusOpen)
	if err != nil {
		t.Fatalf("GetStatusTypeByName() error = %v", err)
	}
	byID, err := f.svc.GetStatusType(ctx, open.ID)
	if err != nil || byID.Name != domain.StatusOpen {
		t.Errorf("GetStatusType(%d) = %+v, %v", open.ID, byID, err)
	}

	high, err := f.svc.GetPriorityTypeByName(ctx, domain.PriorityHigh)
	if err != nil {
		t.Fatalf("GetPriorityTypeByName() error = %v", err)
	}
	if p, err := f.svc.GetPriorityType(ctx, high.ID); err != nil || p.Name != domain.PriorityHigh {
		t.Errorf("GetPriorityType(%d) = %+v, %v", high.ID, p, err)
	}
	if _, err := f.svc.GetPriorityType(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Statistics_EndToEnd(t *testing.T) {
	f := newFixture(t)

	f.create(t, "A", "d1", domain.PriorityHigh, domain.StatusOpen)
	f.create(t, "B", "d2", domain.PriorityHigh, domain.StatusDone)

	stats, err := f.svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalTasks != 2 || stats.CompletedTasks != 1 || stats.ActiveTasks != 1 {
		t.Errorf("expected total 2, completed 1, active 1, got %+v", stats)
	}
	if len(stats.TasksByPriority) != 1 || stats.TasksByPriority[domain.PriorityHigh] != 2 {
		t.Errorf("expected {HIGH:2}, got %v", stats.TasksByPriority)
	}
	if len(stats.TasksByStatus) != 2 || stats.TasksByStatus[domain.StatusOpen] != 1 || stats.TasksByStatus[domain.StatusDone] != 1 {
		t.Errorf("expected {OPEN:1, DONE:1}, got %v", stats.TasksByStatus)
	}
}

func TestService_Statistics_UnlistedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.CreateStatusType(ctx, &domain.TaskStatusType{Name: "HOLD_CUSTOM"}); err != nil {
		t.Fatalf("CreateStatusType() error = %v", err)
	}
	f.reload(t)

	f.create(t, "open", "", domain.PriorityLow, domain.StatusOpen)
	f.create(t, "hold", "", domain.PriorityLow, domain.StatusHold)
	f.create(t, "closed", "", domain.PriorityLow, domain.StatusClosed)
	f.create(t, "custom", "", domain.PriorityLow, "HOLD_CUSTOM")

	stats, err := f.svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalTasks != 4 || stats.ActiveTasks != 2 || stats.CompletedTasks != 1 {
		t.Errorf("expected total 4, active 2, completed 1, got %+v", stats)
	}
	if stats.CompletedTasks+stats.ActiveTasks > stats.TotalTasks {
		t.Errorf("partitions exceed total: %+v", stats)
	}
	var sum int64
	for _, n := range stats.TasksByStatus {
		sum += n
	}
	if sum != stats.TotalTasks {
		t.Errorf("status counts sum to %d, total is %d", sum, stats.TotalTasks)
	}
	if stats.TasksByStatus["HOLD_CUSTOM"] != 1 {
		t.Errorf("expected HOLD_CUSTOM:1, got %v", stats.TasksByStatus)
	}
}

func TestService_FilterTasks_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Identical timestamps: order falls back to id ascending.
	first := f.create(t, "one", "", domain.PriorityLow, domain.StatusOpen)
	second := f.create(t, "two", "", domain.PriorityLow, domain.StatusOpen)
	third := f.create(t, "three", "", domain.PriorityLow, domain.StatusOpen)

	page0, err := f.svc.ListTasks(ctx, firstPage(2))
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(page0.Content) != 2 || page0.TotalPages != 2 || page0.TotalElements != 3 {
		t.Fatalf("page 0: expected 2 items of 3 over 2 pages, got %d of %d over %d",
			len(page0.Content), page0.TotalElements, page0.TotalPages)
	}
	if page0.Content[0].ID != first.ID || page0.Content[1].ID != second.ID {
		t.Errorf("page 0: expected ids %d,%d, got %d,%d", first.ID, second.ID, page0.Content[0].ID, page0.Content[1].ID)
	}

	p1 := firstPage(2)
	p1.Page = 1
	page1, err := f.svc.ListTasks(ctx, p1)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(page1.Content) != 1 || page1.Content[0].ID != third.ID {
		t.Errorf("page 1: expected only id %d, got %v", third.ID, titles(page1.Content))
	}
	if !page1.Last() || page1.First() {
		t.Errorf("page 1 should be last and not first")
	}
}

func TestService_FilterTasks_SortOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "banana", "", domain.PriorityLow, domain.StatusOpen)
	f.clock.Advance(time.Minute)
	f.create(t, "apple", "", domain.PriorityLow, domain.StatusOpen)
	f.clock.Advance(time.Minute)
	f.create(t, "cherry", "", domain.PriorityLow, domain.StatusOpen)

	tests := []struct {
		name  string
		field string
		dir   string
		want  []string
	}{
		{"default newest first", "", "", []string{"cherry", "apple", "banana"}},
		{"created ascending", "createDate", "asc", []string{"banana", "apple", "cherry"}},
		{"title ascending", "title", "ASC", []string{"apple", "banana", "cherry"}},
		{"title descending", "taskTitle", "DESC", []string{"cherry", "banana", "apple"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := domain.NewPageRequest(0, 10, tt.field, tt.dir)
			if err != nil {
				t.Fatalf("NewPageRequest() error = %v", err)
			}
			page, err := f.svc.ListTasks(ctx, p)
			if err != nil {
				t.Fatalf("ListTasks() error = %v", err)
			}
			got := titles(page.Content)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestService_FilterTasks_SortByPriorityID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "low", "", domain.PriorityLow, domain.StatusOpen)
	f.create(t, "high", "", domain.PriorityHigh, domain.StatusOpen)
	f.create(t, "medium", "", domain.PriorityMedium, domain.StatusOpen)

	p, err := domain.NewPageRequest(0, 10, "priority", "ASC")
	if err != nil {
		t.Fatalf("NewPageRequest() error = %v", err)
	}
	page, err := f.svc.ListTasks(ctx, p)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}

	// Seed order, where names alone would give HIGH, LOW, MEDIUM.
	want := []string{"high", "medium", "low"}
	got := titles(page.Content)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestService_FilterTasks_InvalidPageRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListTasks(context.Background(), domain.PageRequest{Size: 10, Direction: "UPWARDS"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_FilterTasks_NoCriteriaMatchesList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "a", "", domain.PriorityHigh, domain.StatusOpen)
	f.create(t, "b", "", domain.PriorityLow, domain.StatusDone)
	f.create(t, "c", "", domain.PriorityMedium, domain.StatusHold)

	filtered, err := f.svc.FilterTasks(ctx, domain.Filter{}, firstPage(2))
	if err != nil {
		t.Fatalf("FilterTasks() error = %v", err)
	}
	listed, err := f.svc.ListTasks(ctx, firstPage(2))
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if filtered.TotalElements != listed.TotalElements || filtered.TotalPages != listed.TotalPages {
		t.Errorf("filter without criteria (%d/%d) differs from list (%d/%d)",
			filtered.TotalElements, filtered.TotalPages, listed.TotalElements, listed.TotalPages)
	}
}

func TestService_SearchTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "Plain title", "Long DESCRIPTION text", domain.PriorityLow, domain.StatusOpen)
	f.create(t, "Describe the API", "", domain.PriorityLow, domain.StatusOpen)
	f.create(t, "Unrelated", "nothing here", domain.PriorityLow, domain.StatusOpen)

	page, err := f.svc.SearchTasks(ctx, "desc", firstPage(10))
	if err != nil {
		t.Fatalf("SearchTasks() error = %v", err)
	}
	if page.TotalElements != 2 {
		t.Fatalf("expected 2 matches, got %v", titles(page.Content))
	}
	found := map[string]bool{}
	for _, task := range page.Content {
		found[task.Title] = true
	}
	if !found["Plain title"] || !found["Describe the API"] {
		t.Errorf("expected description and title matches, got %v", titles(page.Content))
	}
}

func TestService_SearchTasks_NonASCII(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "Éclair release", "", domain.PriorityLow, domain.StatusOpen)
	f.create(t, "Notes", "Übersicht für das Team", domain.PriorityLow, domain.StatusOpen)

	tests := []struct {
		term string
		want string
	}{
		{"Éclair", "Éclair release"},
		{"ÉCLAIR RELEASE", "Éclair release"},
		{"Übersicht", "Notes"},
		{"für das", "Notes"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			page, err := f.svc.SearchTasks(ctx, tt.term, firstPage(10))
			if err != nil {
				t.Fatalf("SearchTasks() error = %v", err)
			}
			if page.TotalElements != 1 || page.Content[0].Title != tt.want {
				t.Errorf("SearchTasks(%q) = %v, want [%s]", tt.term, titles(page.Content), tt.want)
			}
		})
	}
}

func TestService_FilterTasks_Combined(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "x marks the spot", "", domain.PriorityHigh, domain.StatusOpen)
	f.create(t, "plain", "contains x", domain.PriorityHigh, domain.StatusOpen)
	f.create(t, "x but low", "", domain.PriorityLow, domain.StatusOpen)
	f.create(t, "x but done", "", domain.PriorityHigh, domain.StatusDone)
	f.create(t, "nothing", "", domain.PriorityHigh, domain.StatusOpen)

	open := f.status[domain.StatusOpen]
	high := f.priority[domain.PriorityHigh]
	term := "x"

	count := func(filter domain.Filter) int64 {
		t.Helper()
		page, err := f.svc.FilterTasks(ctx, filter, firstPage(10))
		if err != nil {
			t.Fatalf("FilterTasks(%+v) error = %v", filter, err)
		}
		return page.TotalElements
	}

	all := count(domain.Filter{StatusID: &open, PriorityID: &high, SearchTerm: &term})
	if all != 2 {
		t.Fatalf("expected 2 tasks matching all criteria, got %d", all)
	}

	broadened := []domain.Filter{
		{PriorityID: &high, SearchTerm: &term},
		{StatusID: &open, SearchTerm: &term},
		{StatusID: &open, PriorityID: &high},
		{},
	}
	for _, filter := range broadened {
		if n := count(filter); n < all {
			t.Errorf("dropping a criterion shrank the result: %+v gave %d < %d", filter, n, all)
		}
	}

	if n := count(domain.Filter{PriorityID: &high, SearchTerm: &term}); n != 3 {
		t.Errorf("expected 3 without status, got %d", n)
	}
}

func TestService_FilterTasks_UnknownIDs(t *testing.T) {
	f := newFixture(t)
	f.create(t, "a", "", domain.PriorityHigh, domain.StatusOpen)

	ctx := context.Background()
	byStatus, err := f.svc.ListTasksByStatus(ctx, 999, firstPage(10))
	if err != nil {
		t.Fatalf("ListTasksByStatus() error = %v", err)
	}
	byPriority, err := f.svc.ListTasksByPriority(ctx, 999, firstPage(10))
	if err != nil {
		t.Fatalf("ListTasksByPriority() error = %v", err)
	}
	if !byStatus.Empty() || !byPriority.Empty() || byStatus.TotalElements != 0 {
		t.Errorf("unknown ids must give empty pages")
	}
}

func TestService_ReferencesResolveAfterWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.create(t, "a", "", domain.PriorityHigh, domain.StatusOpen)
	if _, err := f.svc.UpdateTask(ctx, task.ID, domain.UpdateTaskInput{PriorityID: int64Ptr(f.priority[domain.PriorityLow])}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if err := f.svc.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("SoftDeleteTask() error = %v", err)
	}

	page, err := f.svc.ListTasks(ctx, firstPage(10))
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	for _, got := range page.Content {
		if got.Priority.ID != got.PriorityID || got.Priority.Name == "" {
			t.Errorf("priority does not resolve for task %d", got.ID)
		}
		if got.Status.ID != got.StatusID || got.Status.Name == "" {
			t.Errorf("status does not resolve for task %d", got.ID)
		}
	}
}
