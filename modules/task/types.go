package task

import (
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

// ReferenceType is a priority or status registry row in responses.
type ReferenceType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TaskResponse represents a task in responses.
type TaskResponse struct {
	ID                  int64         `json:"id"`
	Title               string        `json:"title"`
	Description         *string       `json:"description,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	LastStatusChangedAt time.Time     `json:"last_status_changed_at"`
	Priority            ReferenceType `json:"priority"`
	Status              ReferenceType `json:"status"`
	Version             int64         `json:"version"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	PriorityID  int64   `json:"priority_id"`
	StatusID    int64   `json:"status_id"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	ID int64 `json:"id"`
}

// UpdateTaskRequest is the request for a partial task update.
// Omitted fields are left unchanged.
type UpdateTaskRequest struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	PriorityID  *int64  `json:"priority_id,omitempty"`
	StatusID    *int64  `json:"status_id,omitempty"`
	Version     *int64  `json:"version,omitempty"`
}

// DeleteTaskRequest is the request for soft-deleting a task.
type DeleteTaskRequest struct {
	ID int64 `json:"id"`
}

// DeleteTaskResponse is the response after soft-deleting a task.
type DeleteTaskResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// FilterTasksRequest covers listing, filtering by status or priority and
// searching. Absent criteria do not constrain the result.
type FilterTasksRequest struct {
	StatusID      *int64  `json:"status_id,omitempty"`
	PriorityID    *int64  `json:"priority_id,omitempty"`
	SearchTerm    *string `json:"search_term,omitempty"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
	SortBy        string  `json:"sort_by,omitempty"`
	SortDirection string  `json:"sort_direction,omitempty"`
}

// TaskPageResponse is one page of tasks.
type TaskPageResponse struct {
	Tasks         []TaskResponse `json:"tasks"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int64          `json:"total_elements"`
	TotalPages    int            `json:"total_pages"`
}

// StatisticsRequest is the request for task statistics.
type StatisticsRequest struct{}

// StatisticsResponse summarizes all tasks.
type StatisticsResponse struct {
	TotalTasks      int64            `json:"total_tasks"`
	TasksByStatus   map[string]int64 `json:"tasks_by_status"`
	TasksByPriority map[string]int64 `json:"tasks_by_priority"`
	CompletedTasks  int64            `json:"completed_tasks"`
	ActiveTasks     int64            `json:"active_tasks"`
}

// ListReferenceTypesRequest is the request for listing a registry.
type ListReferenceTypesRequest struct{}

// ListReferenceTypesResponse is the content of a registry.
type ListReferenceTypesResponse struct {
	Types []ReferenceType `json:"types"`
}

// GetReferenceTypeRequest is the request for one registry row.
type GetReferenceTypeRequest struct {
	ID int64 `json:"id"`
}

func toTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description,
		CreatedAt:           t.CreatedAt,
		LastStatusChangedAt: t.LastStatusChangedAt,
		Priority:            ReferenceType{ID: t.Priority.ID, Name: t.Priority.Name},
		Status:              ReferenceType{ID: t.Status.ID, Name: t.Status.Name},
		Version:             t.Version,
	}
}
