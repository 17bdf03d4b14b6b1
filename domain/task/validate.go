package task

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Column limits shared by both stores and the input layers.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
	MaxTypeNameLength    = 50
)

// ValidationError lists per-field input problems. It matches
// ErrInvalidArgument.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func (f fieldErrors) length(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		f[field] = fmt.Sprintf("must be at most %d characters", max)
	}
}

func (f fieldErrors) positive(field string, id int64) {
	if id <= 0 {
		f[field] = "must be a positive id"
	}
}

// FieldNames are the caller facing names used as ValidationError keys.
type FieldNames struct {
	Title       string
	Description string
	Priority    string
	Status      string
}

// ValidateCreate checks the shape of a create request: the title is
// required and both text fields fit their columns.
func ValidateCreate(in CreateTaskInput, names FieldNames) error {
	errs := fieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		errs[names.Title] = "must not be blank"
	} else {
		errs.length(names.Title, in.Title, MaxTitleLength)
	}
	if in.Description != nil {
		errs.length(names.Description, *in.Description, MaxDescriptionLength)
	}
	errs.positive(names.Priority, in.PriorityID)
	errs.positive(names.Status, in.StatusID)
	return errs.err()
}

// ValidateUpdate checks the provided fields of a partial update. An empty
// title is rejected; a whitespace-only one passes and is ignored later.
func ValidateUpdate(in UpdateTaskInput, names FieldNames) error {
	errs := fieldErrors{}
	if in.Title != nil {
		if *in.Title == "" {
			errs[names.Title] = fmt.Sprintf("must be between 1 and %d characters", MaxTitleLength)
		} else {
			errs.length(names.Title, *in.Title, MaxTitleLength)
		}
	}
	if in.Description != nil {
		errs.length(names.Description, *in.Description, MaxDescriptionLength)
	}
	if in.PriorityID != nil {
		errs.positive(names.Priority, *in.PriorityID)
	}
	if in.StatusID != nil {
		errs.positive(names.Status, *in.StatusID)
	}
	return errs.err()
}
