package api

import (
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	TaskTitle    string  `json:"taskTitle"`
	Description  *string `json:"description"`
	PriorityID   int64   `json:"priorityId"`
	TaskStatusID int64   `json:"taskStatusId"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/:id. Omitted fields
// are left unchanged; version enables the conflict check.
type UpdateTaskRequest struct {
	TaskTitle    *string `json:"taskTitle"`
	Description  *string `json:"description"`
	PriorityID   *int64  `json:"priorityId"`
	TaskStatusID *int64  `json:"taskStatusId"`
	Version      *int64  `json:"version"`
}

// ReferenceTypeResponse is a priority or status registry row.
type ReferenceTypeResponse struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// TaskResponse is a task as the UI client reads it.
type TaskResponse struct {
	ID                   int64                 `json:"id"`
	TaskTitle            string                `json:"taskTitle"`
	Description          *string               `json:"description"`
	CreateDate           time.Time             `json:"createDate"`
	LastStatusChangeDate time.Time             `json:"lastStatusChangeDate"`
	Priority             ReferenceTypeResponse `json:"priority"`
	TaskStatus           ReferenceTypeResponse `json:"taskStatus"`
	Version              int64                 `json:"version"`
}

// PageResponse is one page of results with its metadata.
type PageResponse[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	Size             int   `json:"size"`
	Number           int   `json:"number"`
	NumberOfElements int   `json:"numberOfElements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

// StatisticsResponse is the body of GET /api/tasks/statistics.
type StatisticsResponse struct {
	TotalTasks      int64            `json:"totalTasks"`
	TasksByStatus   map[string]int64 `json:"tasksByStatus"`
	TasksByPriority map[string]int64 `json:"tasksByPriority"`
	CompletedTasks  int64            `json:"completedTasks"`
	ActiveTasks     int64            `json:"activeTasks"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

func toTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:                   t.ID,
		TaskTitle:            t.Title,
		Description:          t.Description,
		CreateDate:           t.CreatedAt,
		LastStatusChangeDate: t.LastStatusChangedAt,
		Priority:             ReferenceTypeResponse{ID: t.Priority.ID, Type: t.Priority.Name},
		TaskStatus:           ReferenceTypeResponse{ID: t.Status.ID, Type: t.Status.Name},
		Version:              t.Version,
	}
}

func toPageResponse(p *domain.Page[domain.Task]) PageResponse[TaskResponse] {
	out := domain.MapPage(p, toTaskResponse)
	return PageResponse[TaskResponse]{
		Content:          out.Content,
		TotalElements:    out.TotalElements,
		TotalPages:       out.TotalPages,
		Size:             out.Size,
		Number:           out.Number,
		NumberOfElements: out.NumberOfElements(),
		First:            out.First(),
		Last:             out.Last(),
		Empty:            out.Empty(),
	}
}

func toStatisticsResponse(s *domain.Statistics) StatisticsResponse {
	return StatisticsResponse{
		TotalTasks:      s.TotalTasks,
		TasksByStatus:   s.TasksByStatus,
		TasksByPriority: s.TasksByPriority,
		CompletedTasks:  s.CompletedTasks,
		ActiveTasks:     s.ActiveTasks,
	}
}
