package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/nibzard/gantt-go/internal/parallel"
	"github.com/nibzard/gantt-go/internal/task"
)

// FileResult is the outcome of checking one plan file.
type FileResult struct {
	Path string
	File *File
	// Result is nil when the file could not be loaded.
	Result *ValidationResult
	// Tasks is the number of tasks a store accepted from the plan.
	Tasks    int
	Err      error
	Duration time.Duration
}

// OK reports whether the file loaded, validated and applied cleanly.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// ValidateFiles loads, validates and applies each plan to a scratch store,
// running up to workers checks at once. Results are returned in the order of
// paths. A workers value of 0 or less checks every file at once.
func ValidateFiles(ctx context.Context, paths []string, opts ValidationOptions, workers int) []FileResult {
	pool := parallel.NewPool[FileResult](ctx, workers, false)
	for _, path := range paths {
		pool.Submit(path, func(context.Context) (FileResult, error) {
			r := checkFile(path, opts)
			return r, r.Err
		})
	}

	results, _ := pool.Wait()
	out := make([]FileResult, len(results))
	for i, r := range results {
		out[i] = r.Value
		out[i].Path = r.Key
		out[i].Duration = r.Duration
		if r.Skipped {
			out[i].Err = r.Err
		}
	}
	return out
}

func checkFile(path string, opts ValidationOptions) FileResult {
	r := FileResult{Path: path}

	f, err := Load(path)
	if err != nil {
		r.Err = fmt.Errorf("loading plan file: %w", err)
		return r
	}
	r.File = f

	r.Result = f.Validate(opts)
	if !r.Result.Valid {
		r.Err = r.Result.Err()
		return r
	}

	store := task.New()
	if _, err := f.Apply(store); err != nil {
		r.Err = fmt.Errorf("invalid plan file: %w", err)
		return r
	}
	r.Tasks = store.Len()
	return r
}
