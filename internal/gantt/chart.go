package gantt

import (
	"math"
	"time"

	"github.com/nibzard/gantt-go/internal/task"
)

// MinWidth is the narrowest bar area Layout will produce.
const MinWidth = 10

// Range is the visible window of a chart. End is exclusive.
type Range struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Duration returns the length of the window.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Days returns the number of whole or partial days the window covers.
func (r Range) Days() int {
	d := r.Duration()
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// Contains reports whether t falls inside [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Bounds derives a range covering every task, widened to whole days.
// The boolean is false for an empty task list.
func Bounds(tasks []task.Task) (Range, bool) {
	if len(tasks) == 0 {
		return Range{}, false
	}
	rng := Range{Start: tasks[0].StartDate, End: tasks[0].EndDate}
	for _, t := range tasks[1:] {
		if t.StartDate.Before(rng.Start) {
			rng.Start = t.StartDate
		}
		if t.EndDate.After(rng.End) {
			rng.End = t.EndDate
		}
	}
	rng.Start = floorDay(rng.Start)
	if end := floorDay(rng.End); !end.Equal(rng.End) {
		rng.End = end.AddDate(0, 0, 1)
	}
	if !rng.End.After(rng.Start) {
		rng.End = rng.Start.AddDate(0, 0, 1)
	}
	return rng, true
}

// floorDay truncates t to midnight in its own location.
func floorDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Row is one task's bar, measured in cells from the left edge of the chart.
type Row struct {
	Task task.Task
	// Offset is the first cell of the bar.
	Offset int
	// Span is the bar length in cells; zero when the task lies outside the range.
	Span int
	// Done is the number of filled cells, proportional to Progress.
	Done int
	// ClippedLeft and ClippedRight report that the task extends past the range.
	ClippedLeft  bool
	ClippedRight bool
}

// Visible reports whether any part of the bar is inside the chart.
func (r Row) Visible() bool {
	return r.Span > 0
}

// Chart is a laid-out set of rows ready for rendering.
type Chart struct {
	Range Range
	Width int
	Rows  []Row
}

// Layout maps tasks onto width cells spanning rng. Rows keep the order of
// tasks. A width below MinWidth is raised to MinWidth.
func Layout(tasks []task.Task, rng Range, width int) Chart {
	if width < MinWidth {
		width = MinWidth
	}
	chart := Chart{Range: rng, Width: width, Rows: make([]Row, 0, len(tasks))}
	total := rng.Duration()

	for _, t := range tasks {
		row := Row{Task: t}
		if total <= 0 || !t.EndDate.After(rng.Start) || !t.StartDate.Before(rng.End) {
			chart.Rows = append(chart.Rows, row)
			continue
		}

		start, end := t.StartDate, t.EndDate
		if start.Before(rng.Start) {
			start = rng.Start
			row.ClippedLeft = true
		}
		if end.After(rng.End) {
			end = rng.End
			row.ClippedRight = true
		}

		first := column(start, rng.Start, total, width)
		last := column(end, rng.Start, total, width)
		if first >= width {
			first = width - 1
		}
		if last <= first {
			last = first + 1
		}

		row.Offset = first
		row.Span = last - first
		row.Done = doneCells(row.Span, t.Progress)
		chart.Rows = append(chart.Rows, row)
	}
	return chart
}

// column converts an instant to a cell index in [0, width].
func column(t, origin time.Time, total time.Duration, width int) int {
	frac := float64(t.Sub(origin)) / float64(total)
	col := int(math.Round(frac * float64(width)))
	switch {
	case col < 0:
		return 0
	case col > width:
		return width
	}
	return col
}

func doneCells(span int, progress float64) int {
	if progress <= task.MinProgress {
		return 0
	}
	if progress >= task.MaxProgress {
		return span
	}
	return int(math.Round(float64(span) * progress / task.MaxProgress))
}
