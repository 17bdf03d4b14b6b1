package task

import (
	"math"
	"strings"
)

// Filter is a conjunction of optional criteria. A nil field puts no
// constraint on its dimension.
type Filter struct {
	StatusID   *int64
	PriorityID *int64
	SearchTerm *string
}

// Term returns the trimmed search term and whether it is present.
// A term that is blank after trimming counts as absent.
func (f Filter) Term() (string, bool) {
	if f.SearchTerm == nil {
		return "", false
	}
	term := strings.TrimSpace(*f.SearchTerm)
	return term, term != ""
}

// LikePattern returns the substring pattern for the search term with LIKE
// wildcards escaped by backslash. Case is kept; stores fold both the pattern
// and the column with the database's LOWER so the two sides fold alike.
func (f Filter) LikePattern() (string, bool) {
	term, ok := f.Term()
	if !ok {
		return "", false
	}
	return "%" + likeEscaper.Replace(term) + "%", true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SortField is a sortable task attribute. SortByPriority and SortByStatus
// order by the reference id, not the name, so seeded registries sort in seed
// order (HIGH, MEDIUM, LOW and OPEN through CLOSED).
type SortField string

const (
	SortByID                  SortField = "id"
	SortByTitle               SortField = "title"
	SortByDescription         SortField = "description"
	SortByCreatedAt           SortField = "createdAt"
	SortByLastStatusChangedAt SortField = "lastStatusChangedAt"
	SortByPriority            SortField = "priority"
	SortByStatus              SortField = "status"
)

var sortColumns = map[SortField]string{
	SortByID:                  "id",
	SortByTitle:               "task_title",
	SortByDescription:         "description",
	SortByCreatedAt:           "create_date",
	SortByLastStatusChangedAt: "last_status_change_date",
	SortByPriority:            "priority_id",
	SortByStatus:              "task_status_id",
}

// field names used by the UI client
var sortAliases = map[string]SortField{
	"taskTitle":            SortByTitle,
	"createDate":           SortByCreatedAt,
	"lastStatusChangeDate": SortByLastStatusChangedAt,
	"taskStatus":           SortByStatus,
}

// ParseSortField resolves a caller supplied field name. Empty means createdAt.
func ParseSortField(s string) (SortField, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortByCreatedAt, nil
	}
	if f, ok := sortAliases[s]; ok {
		return f, nil
	}
	if _, ok := sortColumns[SortField(s)]; ok {
		return SortField(s), nil
	}
	return "", invalidArgument("unsupported sort field %q", s)
}

// Column returns the tasks table column the field sorts on.
func (f SortField) Column() string {
	if col, ok := sortColumns[f]; ok {
		return col
	}
	return sortColumns[SortByCreatedAt]
}

// SortDirection is ASC or DESC.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection accepts ASC or DESC in any case. Empty means DESC.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return SortDesc, nil
	case string(SortAsc):
		return SortAsc, nil
	case string(SortDesc):
		return SortDesc, nil
	default:
		return "", invalidArgument("sort direction must be ASC or DESC, got %q", s)
	}
}

// Desc reports whether the direction is descending.
func (d SortDirection) Desc() bool {
	return d != SortAsc
}

// PageRequest selects a window of a sorted result set. Page is 0-based.
type PageRequest struct {
	Page      int
	Size      int
	Sort      SortField
	Direction SortDirection
}

// NewPageRequest validates raw paging and sort input.
func NewPageRequest(page, size int, sortField, sortDirection string) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, invalidArgument("page must not be negative, got %d", page)
	}
	if size <= 0 {
		return PageRequest{}, invalidArgument("page size must be positive, got %d", size)
	}
	if page > math.MaxInt/size {
		return PageRequest{}, invalidArgument("page %d of size %d is out of range", page, size)
	}
	field, err := ParseSortField(sortField)
	if err != nil {
		return PageRequest{}, err
	}
	dir, err := ParseSortDirection(sortDirection)
	if err != nil {
		return PageRequest{}, err
	}
	return PageRequest{Page: page, Size: size, Sort: field, Direction: dir}, nil
}

// Validate checks a PageRequest that was built without NewPageRequest.
func (p PageRequest) Validate() error {
	_, err := NewPageRequest(p.Page, p.Size, string(p.Sort), string(p.Direction))
	return err
}

// Offset is the number of rows skipped before the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one window of a larger result set.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage assembles a page; total counts every matching row.
func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// MapPage converts page content while keeping the page metadata.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, len(p.Content))
	for i, item := range p.Content {
		out[i] = fn(item)
	}
	return &Page[U]{
		Content:       out,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}

func (p *Page[T]) NumberOfElements() int { return len(p.Content) }

func (p *Page[T]) First() bool { return p.Number == 0 }

func (p *Page[T]) Last() bool { return p.Number+1 >= p.TotalPages }

func (p *Page[T]) Empty() bool { return len(p.Content) == 0 }
