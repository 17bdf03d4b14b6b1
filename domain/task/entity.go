package task

import "time"

// Well-known priority names seeded at startup.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Well-known status names seeded at startup.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusHold       = "HOLD"
	StatusDone       = "DONE"
	StatusClosed     = "CLOSED"
)

// PriorityType is a row of the priority registry.
type PriorityType struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:type;size:50;uniqueIndex;not null" json:"name"`
}

// TableName returns the table name for PriorityType.
func (PriorityType) TableName() string {
	return "priority_types"
}

// TaskStatusType is a row of the status registry.
type TaskStatusType struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:type;size:50;uniqueIndex;not null" json:"name"`
}

// TableName returns the table name for TaskStatusType.
func (TaskStatusType) TableName() string {
	return "task_status_types"
}

// Task is the tracked work item. Priority and Status are populated on reads.
//
// Version starts at 1 and grows by one on every write.
type Task struct {
	ID                  int64          `gorm:"primaryKey" json:"id"`
	Title               string         `gorm:"column:task_title;size:255;not null" json:"title"`
	Description         *string        `gorm:"column:description;size:1000" json:"description,omitempty"`
	CreatedAt           time.Time      `gorm:"column:create_date;not null" json:"created_at"`
	LastStatusChangedAt time.Time      `gorm:"column:last_status_change_date;not null" json:"last_status_changed_at"`
	PriorityID          int64          `gorm:"column:priority_id;not null;index" json:"priority_id"`
	Priority            PriorityType   `gorm:"foreignKey:PriorityID" json:"priority"`
	StatusID            int64          `gorm:"column:task_status_id;not null;index" json:"status_id"`
	Status              TaskStatusType `gorm:"foreignKey:StatusID" json:"status"`
	Version             int64          `gorm:"column:version;not null;default:1" json:"version"`
}

// TableName returns the table name for Task.
func (Task) TableName() string {
	return "tasks"
}

// IsClosed reports whether the task carries the CLOSED status.
func (t *Task) IsClosed() bool {
	return t.Status.Name == StatusClosed
}

// CreateTaskInput carries the fields of a new task. Shape constraints
// (blank title, lengths) are enforced by the caller.
type CreateTaskInput struct {
	Title       string
	Description *string
	PriorityID  int64
	StatusID    int64
}

// UpdateTaskInput carries a partial update. Nil fields are left unchanged.
// A non-nil ExpectedVersion turns the update into a compare-and-swap.
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	PriorityID      *int64
	StatusID        *int64
	ExpectedVersion *int64
}
