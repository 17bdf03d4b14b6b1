package task

import (
	"context"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
)

var serviceFieldNames = domain.FieldNames{
	Title:       "title",
	Description: "description",
	Priority:    "priority_id",
	Status:      "status_id",
}

// createTask handles the task.create service request.
func (m *Module) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	in := domain.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		PriorityID:  req.PriorityID,
		StatusID:    req.StatusID,
	}
	if err := domain.ValidateCreate(in, serviceFieldNames); err != nil {
		return TaskResponse{}, err
	}

	t, err := m.service.CreateTask(ctx, in)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(*t), nil
}

// getTask handles the task.get service request.
func (m *Module) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.GetTask(ctx, req.ID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(*t), nil
}

// updateTask handles the task.update service request.
func (m *Module) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	in := domain.UpdateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		PriorityID:      req.PriorityID,
		StatusID:        req.StatusID,
		ExpectedVersion: req.Version,
	}
	if err := domain.ValidateUpdate(in, serviceFieldNames); err != nil {
		return TaskResponse{}, err
	}

	t, err := m.service.UpdateTask(ctx, req.ID, in)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(*t), nil
}

// deleteTask handles the task.delete service request.
func (m *Module) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.SoftDeleteTask(ctx, req.ID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{ID: req.ID, Status: domain.StatusClosed}, nil
}

// filterTasks handles the task.filter service request. A zero size means
// the default page size.
func (m *Module) filterTasks(ctx context.Context, req FilterTasksRequest, _ *mono.Msg) (TaskPageResponse, error) {
	size := req.Size
	if size == 0 {
		size = DefaultPageSize
	}
	p, err := domain.NewPageRequest(req.Page, size, req.SortBy, req.SortDirection)
	if err != nil {
		return TaskPageResponse{}, err
	}

	page, err := m.service.FilterTasks(ctx, domain.Filter{
		StatusID:   req.StatusID,
		PriorityID: req.PriorityID,
		SearchTerm: req.SearchTerm,
	}, p)
	if err != nil {
		return TaskPageResponse{}, err
	}

	out := domain.MapPage(page, toTaskResponse)
	return TaskPageResponse{
		Tasks:         out.Content,
		Page:          out.Number,
		Size:          out.Size,
		TotalElements: out.TotalElements,
		TotalPages:    out.TotalPages,
	}, nil
}

// statistics handles the task.statistics service request.
func (m *Module) statistics(ctx context.Context, _ StatisticsRequest, _ *mono.Msg) (StatisticsResponse, error) {
	stats, err := m.service.Statistics(ctx)
	if err != nil {
		return StatisticsResponse{}, err
	}
	return StatisticsResponse{
		TotalTasks:      stats.TotalTasks,
		TasksByStatus:   stats.TasksByStatus,
		TasksByPriority: stats.TasksByPriority,
		CompletedTasks:  stats.CompletedTasks,
		ActiveTasks:     stats.ActiveTasks,
	}, nil
}

func (m *Module) listPriorityTypes(ctx context.Context, _ ListReferenceTypesRequest, _ *mono.Msg) (ListReferenceTypesResponse, error) {
	priorities, err := m.service.ListPriorityTypes(ctx)
	if err != nil {
		return ListReferenceTypesResponse{}, err
	}
	out := ListReferenceTypesResponse{Types: make([]ReferenceType, len(priorities))}
	for i, p := range priorities {
		out.Types[i] = ReferenceType{ID: p.ID, Name: p.Name}
	}
	return out, nil
}

func (m *Module) getPriorityType(ctx context.Context, req GetReferenceTypeRequest, _ *mono.Msg) (ReferenceType, error) {
	p, err := m.service.GetPriorityType(ctx, req.ID)
	if err != nil {
		return ReferenceType{}, err
	}
	return ReferenceType{ID: p.ID, Name: p.Name}, nil
}

func (m *Module) listStatusTypes(ctx context.Context, _ ListReferenceTypesRequest, _ *mono.Msg) (ListReferenceTypesResponse, error) {
	statuses, err := m.service.ListStatusTypes(ctx)
	if err != nil {
		return ListReferenceTypesResponse{}, err
	}
	out := ListReferenceTypesResponse{Types: make([]ReferenceType, len(statuses))}
	for i, st := range statuses {
		out.Types[i] = ReferenceType{ID: st.ID, Name: st.Name}
	}
	return out, nil
}

func (m *Module) getStatusType(ctx context.Context, req GetReferenceTypeRequest, _ *mono.Msg) (ReferenceType, error) {
	st, err := m.service.GetStatusType(ctx, req.ID)
	if err != nil {
		return ReferenceType{}, err
	}
	return ReferenceType{ID: st.ID, Name: st.Name}, nil
}
