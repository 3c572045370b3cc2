package gantt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar glyphs.
const (
	glyphDone  = "█"
	glyphTodo  = "░"
	glyphEdge  = "│"
	glyphLeft  = "‹"
	glyphRight = "›"
)

// DefaultNameWidth is the task name column width used when none is set.
const DefaultNameWidth = 24

// Styles controls how Render colours each part of the chart.
type Styles struct {
	Header   lipgloss.Style
	Name     lipgloss.Style
	Selected lipgloss.Style
	Done     lipgloss.Style
	Todo     lipgloss.Style
	Edge     lipgloss.Style
	Percent  lipgloss.Style
	Deps     lipgloss.Style
}

// DefaultStyles returns the stock chart palette.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Name:     lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Todo:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Edge:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Percent:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Deps:     lipgloss.NewStyle().Faint(true),
	}
}

// RenderOptions tunes Render.
type RenderOptions struct {
	// NameWidth is the width of the task name column; zero means DefaultNameWidth.
	NameWidth int
	// Selected highlights the row of the task with this id.
	Selected string
	// ShowDeps appends the names of each task's dependencies.
	ShowDeps bool
	// Styles overrides DefaultStyles.
	Styles *Styles
}

// Render draws chart as text: a date header followed by one bar per row.
func Render(chart Chart, opts RenderOptions) string {
	if opts.NameWidth <= 0 {
		opts.NameWidth = DefaultNameWidth
	}
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}

	var b strings.Builder
	if len(chart.Rows) == 0 {
		b.WriteString("No tasks.\n")
		return b.String()
	}

	writeHeader(&b, chart, opts.NameWidth, styles)

	names := make(map[string]string, len(chart.Rows))
	for _, row := range chart.Rows {
		names[row.Task.ID] = row.Task.Name
	}
	for _, row := range chart.Rows {
		writeRow(&b, row, chart.Width, opts, styles, names)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, chart Chart, nameWidth int, styles Styles) {
	first := chart.Range.Start.Format("Jan 02")
	last := chart.Range.End.Add(-1).Format("Jan 02")

	gap := max(chart.Width-len(first)-len(last), 1)
	label := first + strings.Repeat(" ", gap) + last

	b.WriteString(strings.Repeat(" ", nameWidth+1))
	b.WriteString(styles.Header.Render(label))
	b.WriteString("\n")

	year := chart.Range.Start.Format("2006")
	b.WriteString(padRight(styles.Header.Render(year), nameWidth))
	b.WriteString(" ")
	b.WriteString(styles.Edge.Render(strings.Repeat("─", chart.Width)))
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, row Row, width int, opts RenderOptions, styles Styles, names map[string]string) {
	name := truncate(row.Task.Name, opts.NameWidth)
	nameStyle := styles.Name
	if opts.Selected != "" && row.Task.ID == opts.Selected {
		nameStyle = styles.Selected
	}
	b.WriteString(padRight(nameStyle.Render(name), opts.NameWidth))

	left, right := glyphEdge, glyphEdge
	if row.ClippedLeft {
		left = glyphLeft
	}
	if row.ClippedRight {
		right = glyphRight
	}
	b.WriteString(styles.Edge.Render(left))

	if !row.Visible() {
		b.WriteString(strings.Repeat(" ", width))
	} else {
		b.WriteString(strings.Repeat(" ", row.Offset))
		b.WriteString(styles.Done.Render(strings.Repeat(glyphDone, row.Done)))
		b.WriteString(styles.Todo.Render(strings.Repeat(glyphTodo, row.Span-row.Done)))
		b.WriteString(strings.Repeat(" ", width-row.Offset-row.Span))
	}

	b.WriteString(styles.Edge.Render(right))
	b.WriteString(" ")
	b.WriteString(styles.Percent.Render(fmt.Sprintf("%3.0f%%", row.Task.Progress)))

	if opts.ShowDeps && len(row.Task.Dependencies) > 0 {
		deps := make([]string, 0, len(row.Task.Dependencies))
		for _, id := range row.Task.Dependencies {
			if n, ok := names[id]; ok {
				deps = append(deps, n)
			} else {
				deps = append(deps, id)
			}
		}
		b.WriteString(" ")
		b.WriteString(styles.Deps.Render("← " + strings.Join(deps, ", ")))
	}
	b.WriteString("\n")
}

// truncate shortens s to at most width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// padRight pads a possibly styled string to width visible cells.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
