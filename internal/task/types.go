package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Task is a schedulable work item on the timeline.
type Task struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Progress     float64   `json:"progress"` // percentage, 0-100
	Description  string    `json:"description,omitempty"`
	Dependencies []string  `json:"dependencies"` // ids of tasks this one depends on
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// Duration returns the span between start and end.
func (t *Task) Duration() time.Duration {
	return t.EndDate.Sub(t.StartDate)
}

// DependsOn reports whether id appears in the task's dependency list.
func (t *Task) DependsOn(id string) bool {
	for _, dep := range t.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// clone returns a copy that shares no slices with t.
func (t Task) clone() Task {
	deps := make([]string, len(t.Dependencies))
	copy(deps, t.Dependencies)
	t.Dependencies = deps
	return t
}

// CreateInput holds the client-supplied fields of a new task.
// ID and Progress are assigned by the store.
type CreateInput struct {
	Name         string
	StartDate    time.Time
	EndDate      time.Time
	Description  string
	Dependencies []string
}

// UpdateInput identifies a task and carries the fields to overwrite.
// A nil field is left unchanged; a non-nil field replaces the stored value
// wholesale, even when it points at an empty value.
type UpdateInput struct {
	ID           string
	Name         *string
	StartDate    *time.Time
	EndDate      *time.Time
	Progress     *float64
	Description  *string
	Dependencies *[]string
}

// Ptr returns a pointer to v. It is a convenience for building UpdateInput.
func Ptr[T any](v T) *T {
	return &v
}

// DependencyKind describes how two linked tasks constrain each other.
type DependencyKind string

const (
	FinishToStart  DependencyKind = "finish-to-start"
	StartToStart   DependencyKind = "start-to-start"
	FinishToFinish DependencyKind = "finish-to-finish"
	StartToFinish  DependencyKind = "start-to-finish"
)

// Link is a directed dependency edge between two tasks.
// From is the predecessor, To the dependent task.
type Link struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Kind DependencyKind `json:"kind"`
}

// Progress bounds, inclusive.
const (
	MinProgress = 0
	MaxProgress = 100
)

// Validation failure reasons. Use errors.Is against a *ValidationError.
var (
	ErrNameRequired   = errors.New("name required")
	ErrEndBeforeStart = errors.New("end date must be after start date")
	ErrProgressRange  = errors.New("progress must be between 0 and 100")
)

// ValidationError reports which task field violated an invariant.
type ValidationError struct {
	Field string // task field name
	Err   error  // one of the Err* reasons
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying reason.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Err: ErrNameRequired}
	}
	return nil
}

func validateDates(start, end time.Time) error {
	if !end.After(start) {
		return &ValidationError{Field: "end_date", Err: ErrEndBeforeStart}
	}
	return nil
}

func validateProgress(progress float64) error {
	// NaN fails both comparisons, so test for the valid range instead.
	if !(progress >= MinProgress && progress <= MaxProgress) {
		return &ValidationError{Field: "progress", Err: ErrProgressRange}
	}
	return nil
}

// validateCreate checks a CreateInput: name first, then dates.
func validateCreate(in CreateInput) error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	return validateDates(in.StartDate, in.EndDate)
}

// validateTask checks a merged candidate: dates, name, then progress.
func validateTask(t *Task) error {
	if err := validateDates(t.StartDate, t.EndDate); err != nil {
		return err
	}
	if err := validateName(t.Name); err != nil {
		return err
	}
	return validateProgress(t.Progress)
}

// apply returns a copy of t with every present field of in overwritten.
func (in UpdateInput) apply(t Task) Task {
	out := t.clone()
	if in.Name != nil {
		out.Name = *in.Name
	}
	if in.StartDate != nil {
		out.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		out.EndDate = *in.EndDate
	}
	if in.Progress != nil {
		out.Progress = *in.Progress
	}
	if in.Description != nil {
		out.Description = *in.Description
	}
	if in.Dependencies != nil {
		deps := make([]string, len(*in.Dependencies))
		copy(deps, *in.Dependencies)
		out.Dependencies = deps
	}
	return out
}

// IsEmpty reports whether the input carries no fields to change.
func (in UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.StartDate == nil && in.EndDate == nil &&
		in.Progress == nil && in.Description == nil && in.Dependencies == nil
}
