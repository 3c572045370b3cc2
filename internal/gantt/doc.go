// Package gantt lays tasks out on a timeline and draws them in the terminal.
//
// Layout maps each task onto a fixed number of cells covering a Range.
// Render turns the resulting Chart into styled text, and Viewer wraps both
// in an interactive bubbletea program that edits a task.Store and redraws
// whenever the store changes.
package gantt
