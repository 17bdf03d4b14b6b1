package task

import (
	"context"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
)

var (
	defaultPriorities = []string{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow}
	defaultStatuses   = []string{
		domain.StatusOpen,
		domain.StatusInProgress,
		domain.StatusHold,
		domain.StatusDone,
		domain.StatusClosed,
	}
)

type sampleTask struct {
	title       string
	description string
	priority    string
	status      string
}

var sampleTasks = []sampleTask{
	{"Complete project documentation", "Write comprehensive documentation for the task management system", domain.PriorityHigh, domain.StatusInProgress},
	{"Implement user authentication", "Add login and registration functionality", domain.PriorityHigh, domain.StatusOpen},
	{"Set up CI/CD pipeline", "Configure automated testing and deployment", domain.PriorityMedium, domain.StatusOpen},
	{"Write unit tests", "Increase test coverage for the service layer", domain.PriorityMedium, domain.StatusInProgress},
	{"Design database schema", "Model tasks, priorities and statuses", domain.PriorityHigh, domain.StatusDone},
	{"Create frontend components", "Build the task list and task form views", domain.PriorityMedium, domain.StatusOpen},
	{"Implement search functionality", "Search tasks by title and description", domain.PriorityLow, domain.StatusOpen},
	{"Add email notifications", "Notify assignees when a task changes", domain.PriorityLow, domain.StatusOpen},
	{"Performance optimization", "Profile and speed up slow queries", domain.PriorityMedium, domain.StatusOpen},
	{"Security audit", "Review the application for common vulnerabilities", domain.PriorityHigh, domain.StatusOpen},
}

// SeedReferenceData inserts the well-known priorities and statuses into
// whichever registry table is still empty.
func SeedReferenceData(ctx context.Context, store domain.Store) error {
	return store.Transaction(ctx, false, func(tx domain.Store) error {
		priorities, err := tx.ListPriorityTypes(ctx)
		if err != nil {
			return err
		}
		if len(priorities) == 0 {
			for _, name := range defaultPriorities {
				if err := tx.CreatePriorityType(ctx, &domain.PriorityType{Name: name}); err != nil {
					return err
				}
			}
		}

		statuses, err := tx.ListStatusTypes(ctx)
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			for _, name := range defaultStatuses {
				if err := tx.CreateStatusType(ctx, &domain.TaskStatusType{Name: name}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SeedSampleTasks inserts the demo tasks when no task exists yet. It
// returns the number of tasks created.
func SeedSampleTasks(ctx context.Context, store domain.Store, svc *Service) (int, error) {
	total, err := store.CountTasks(ctx)
	if err != nil {
		return 0, err
	}
	if total > 0 {
		return 0, nil
	}

	for i, st := range sampleTasks {
		priority, err := svc.GetPriorityTypeByName(ctx, st.priority)
		if err != nil {
			return i, fmt.Errorf("failed to seed sample task %q: %w", st.title, err)
		}
		status, err := svc.GetStatusTypeByName(ctx, st.status)
		if err != nil {
			return i, fmt.Errorf("failed to seed sample task %q: %w", st.title, err)
		}

		description := st.description
		if _, err := svc.CreateTask(ctx, domain.CreateTaskInput{
			Title:       st.title,
			Description: &description,
			PriorityID:  priority.ID,
			StatusID:    status.ID,
		}); err != nil {
			return i, fmt.Errorf("failed to seed sample task %q: %w", st.title, err)
		}
	}
	return len(sampleTasks), nil
}
