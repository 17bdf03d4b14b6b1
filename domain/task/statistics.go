package task

// CompletedStatuses and ActiveStatuses partition status names for
// statistics. A name in neither set is counted in neither total.
var (
	CompletedStatuses = []string{StatusDone, StatusClosed}
	ActiveStatuses    = []string{StatusOpen, StatusInProgress, StatusHold}
)

// Statistics is a snapshot summary over every task.
type Statistics struct {
	TotalTasks      int64
	TasksByStatus   map[string]int64
	TasksByPriority map[string]int64
	CompletedTasks  int64
	ActiveTasks     int64
}

// Summarize derives the completed and active counters from grouped counts.
func Summarize(total int64, byStatus, byPriority map[string]int64) *Statistics {
	if byStatus == nil {
		byStatus = map[string]int64{}
	}
	if byPriority == nil {
		byPriority = map[string]int64{}
	}
	return &Statistics{
		TotalTasks:      total,
		TasksByStatus:   byStatus,
		TasksByPriority: byPriority,
		CompletedTasks:  sumOf(byStatus, CompletedStatuses),
		ActiveTasks:     sumOf(byStatus, ActiveStatuses),
	}
}

func sumOf(counts map[string]int64, names []string) int64 {
	var n int64
	for _, name := range names {
		n += counts[name]
	}
	return n
}
