package task

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed paging, sort or filter input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict is returned when an update loses a version check.
	ErrConflict = errors.New("version conflict")

	// ErrMissingClosedStatus means the CLOSED status row is not seeded.
	ErrMissingClosedStatus = errors.New("status CLOSED is not configured")
)

// EntityKind names the kind of record a lookup failed for.
type EntityKind string

const (
	KindTask       EntityKind = "task"
	KindPriority   EntityKind = "priority type"
	KindStatusType EntityKind = "task status type"
)

// NotFoundError reports a failed lookup by id or name.
type NotFoundError struct {
	Kind EntityKind
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFoundByID builds a NotFoundError keyed by id.
func NotFoundByID(kind EntityKind, id int64) error {
	return &NotFoundError{Kind: kind, Key: strconv.FormatInt(id, 10)}
}

// NotFoundByName builds a NotFoundError keyed by name.
func NotFoundByName(kind EntityKind, name string) error {
	return &NotFoundError{Kind: kind, Key: strconv.Quote(name)}
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
