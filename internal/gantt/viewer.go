package gantt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/gantt-go/internal/task"
)

const (
	// DefaultProgressStep is how far + and - move a task's progress.
	DefaultProgressStep = 10
	// DefaultWidth is the bar area width before the terminal size is known.
	DefaultWidth = 60
)

// ViewerOption configures a Viewer.
type ViewerOption func(*Viewer)

// WithRange pins the chart window instead of fitting it to the tasks.
func WithRange(rng Range) ViewerOption {
	return func(v *Viewer) {
		v.rng = rng
		v.fixedRange = !rng.IsZero()
	}
}

// WithWidth fixes the bar area width. Without it the viewer follows the
// terminal size.
func WithWidth(width int) ViewerOption {
	return func(v *Viewer) {
		v.width = width
		v.fixedWidth = width > 0
	}
}

// WithOnSelect sets the callback invoked when a task is selected with enter.
func WithOnSelect(fn func(task.Task)) ViewerOption {
	return func(v *Viewer) {
		v.onSelect = fn
	}
}

// WithProgressStep sets the progress increment for + and -.
func WithProgressStep(step float64) ViewerOption {
	return func(v *Viewer) {
		if step > 0 {
			v.step = step
		}
	}
}

// Viewer is an interactive bubbletea model over a task store.
type Viewer struct {
	store      *task.Store
	tasks      []task.Task
	cursor     int
	rng        Range
	fixedRange bool
	width      int
	fixedWidth bool
	nameWidth  int
	step       float64
	onSelect   func(task.Task)
	status     string
	statusErr  bool
	showHelp   bool

	changed chan struct{}
	done    chan struct{}
	cancel  func()
}

type storeChangedMsg struct{}

// NewViewer creates a viewer and subscribes it to store changes. Call Close
// when the viewer is no longer used.
func NewViewer(store *task.Store, opts ...ViewerOption) *Viewer {
	v := &Viewer{
		store:     store,
		width:     DefaultWidth,
		nameWidth: DefaultNameWidth,
		step:      DefaultProgressStep,
		changed:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.cancel = store.Subscribe(func(task.Event) {
		select {
		case v.changed <- struct{}{}:
		default:
		}
	})
	v.refresh()
	return v
}

// Close removes the store subscription and stops pending waits.
func (v *Viewer) Close() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
		close(v.done)
	}
}

// Run starts the viewer full screen on a terminal.
func Run(ctx context.Context, store *task.Store, opts ...ViewerOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	v := NewViewer(store, opts...)
	defer v.Close()

	program := tea.NewProgram(v, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (v *Viewer) Init() tea.Cmd {
	return v.waitForChange()
}

func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return v, tea.Quit
		case "up", "k":
			v.move(-1)
		case "down", "j":
			v.move(1)
		case "home", "g":
			v.cursor = 0
		case "end", "G":
			v.cursor = max(len(v.tasks)-1, 0)
		case "enter":
			v.selectCurrent()
		case "+", "=":
			v.adjustProgress(v.step)
		case "-", "_":
			v.adjustProgress(-v.step)
		case "d", "delete":
			v.deleteCurrent()
		case "r", "f5":
			v.refresh()
		case "h", "?":
			v.showHelp = !v.showHelp
		}
		return v, nil
	case tea.WindowSizeMsg:
		if !v.fixedWidth {
			v.width = max(msg.Width-v.nameWidth-8, MinWidth)
		}
		return v, nil
	case storeChangedMsg:
		v.refresh()
		return v, v.waitForChange()
	}
	return v, nil
}

func (v *Viewer) View() string {
	var b strings.Builder
	writeTitle(&b)

	if v.showHelp {
		writeHelp(&b, v.step)
		writeFooter(&b)
		return b.String()
	}

	if len(v.tasks) == 0 {
		b.WriteString("No tasks.\n\n")
		writeStatus(&b, v.status, v.statusErr)
		writeFooter(&b)
		return b.String()
	}

	chart := Layout(v.tasks, v.rng, v.width)
	b.WriteString(Render(chart, RenderOptions{
		NameWidth: v.nameWidth,
		Selected:  v.tasks[v.cursor].ID,
	}))
	b.WriteString("\n")
	writeDetails(&b, v.tasks[v.cursor])
	writeStatus(&b, v.status, v.statusErr)
	writeFooter(&b)
	return b.String()
}

// Selected returns the task under the cursor.
func (v *Viewer) Selected() (task.Task, bool) {
	if len(v.tasks) == 0 {
		return task.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *Viewer) waitForChange() tea.Cmd {
	changed, done := v.changed, v.done
	return func() tea.Msg {
		select {
		case <-changed:
			return storeChangedMsg{}
		case <-done:
			return nil
		}
	}
}

// refresh reloads the sorted view, keeping the cursor on the same task
// when it still exists.
func (v *Viewer) refresh() {
	var current string
	if t, ok := v.Selected(); ok {
		current = t.ID
	}

	v.tasks = v.store.Sorted()
	if !v.fixedRange {
		v.rng, _ = Bounds(v.tasks)
	}

	for i, t := range v.tasks {
		if t.ID == current {
			v.cursor = i
			return
		}
	}
	v.cursor = min(v.cursor, max(len(v.tasks)-1, 0))
}

func (v *Viewer) move(delta int) {
	if len(v.tasks) == 0 {
		return
	}
	v.cursor = min(max(v.cursor+delta, 0), len(v.tasks)-1)
}

func (v *Viewer) selectCurrent() {
	t, ok := v.Selected()
	if !ok {
		return
	}
	v.setStatus(fmt.Sprintf("Selected %s", t.Name), false)
	if v.onSelect != nil {
		v.onSelect(t)
	}
}

func (v *Viewer) adjustProgress(delta float64) {
	t, ok := v.Selected()
	if !ok {
		return
	}
	progress := min(max(t.Progress+delta, task.MinProgress), task.MaxProgress)
	if progress == t.Progress {
		v.setStatus(fmt.Sprintf("%s: %.0f%%", t.Name, t.Progress), false)
		return
	}
	updated, found, err := v.store.Update(task.UpdateInput{
		ID:       t.ID,
		Progress: task.Ptr(progress),
	})
	switch {
	case err != nil:
		v.setStatus(err.Error(), true)
	case !found:
		v.setStatus(fmt.Sprintf("task %s no longer exists", t.ID), true)
	default:
		v.setStatus(fmt.Sprintf("%s: %.0f%%", updated.Name, updated.Progress), false)
	}
	v.refresh()
}

func (v *Viewer) deleteCurrent() {
	t, ok := v.Selected()
	if !ok {
		return
	}
	if v.store.Delete(t.ID) {
		v.setStatus(fmt.Sprintf("Deleted %s", t.Name), false)
	} else {
		v.setStatus(fmt.Sprintf("task %s no longer exists", t.ID), true)
	}
	v.refresh()
}

func (v *Viewer) setStatus(msg string, isErr bool) {
	v.status = msg
	v.statusErr = isErr
}

func writeTitle(b *strings.Builder) {
	title := "Gantt"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeDetails(b *strings.Builder, t task.Task) {
	b.WriteString(fmt.Sprintf("  %s [%s]\n", t.Name, t.ID))
	b.WriteString(fmt.Sprintf("  %s -> %s  %.0f%%\n",
		t.StartDate.Format("2006-01-02"), t.EndDate.Format("2006-01-02"), t.Progress))
	if t.Description != "" {
		b.WriteString("  " + truncate(t.Description, 60) + "\n")
	}
	b.WriteString("\n")
}

func writeStatus(b *strings.Builder, status string, isErr bool) {
	if status == "" {
		return
	}
	if isErr {
		b.WriteString("Error: ")
	}
	b.WriteString(status + "\n\n")
}

func writeHelp(b *strings.Builder, step float64) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  up/k down/j  Move selection\n")
	b.WriteString("  g, G         First / last task\n")
	b.WriteString("  enter        Select task\n")
	b.WriteString(fmt.Sprintf("  +, -         Progress up / down by %.0f\n", step))
	b.WriteString("  d            Delete task\n")
	b.WriteString("  r, F5        Refresh\n")
	b.WriteString("  h, ?         Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString("Press h for help | q to quit\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
