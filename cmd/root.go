// Package cmd implements the CLI command structure for gantt.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"

	"github.com/nibzard/gantt-go/internal/config"
	"github.com/nibzard/gantt-go/internal/gantt"
	"github.com/nibzard/gantt-go/internal/logging"
	"github.com/nibzard/gantt-go/internal/plan"
	"github.com/nibzard/gantt-go/internal/task"
)

// Version is set via ldflags at build time.
var Version = "dev"

// errNoPlan is returned when a command needs tasks but neither a plan file
// nor the sample project was requested.
var errNoPlan = errors.New("no plan file given (use -plan, pass a file, or -samples)")

// app carries what every subcommand needs.
type app struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	logger  *log.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// Run executes the gantt CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("gantt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(stdout)
	}

	cfg := cws.Config
	a := &app{
		cfg:     cfg,
		sources: cws,
		logger:  logging.FromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller),
		stdout:  stdout,
		stderr:  stderr,
	}

	// Determine the subcommand
	// If no args or first arg is a flag, use "show" as default
	subcommand := "show"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		if !strings.HasPrefix(remainingArgs[0], "-") {
			subcommand = remainingArgs[0]
			remainingArgs = remainingArgs[1:]
		}
	}

	switch subcommand {
	case "show":
		return a.showCommand(remainingArgs)
	case "ls":
		return a.lsCommand(remainingArgs)
	case "tui":
		return a.tuiCommand(ctx, remainingArgs)
	case "validate":
		return a.validateCommand(ctx, remainingArgs)
	case "export":
		return a.exportCommand(remainingArgs)
	case "config":
		return a.configCommand(remainingArgs)
	case "version":
		return versionCommand(stdout)
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		// An existing file is shorthand for "show <file>"
		if fi, err := os.Stat(subcommand); err == nil && !fi.IsDir() {
			return a.showCommand(append([]string{subcommand}, remainingArgs...))
		}
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// planPath resolves the plan file from an optional positional argument,
// falling back to the configured plan_file.
func (a *app) planPath(remaining []string) (string, error) {
	if len(remaining) > 1 {
		return "", fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		return remaining[0], nil
	}
	return a.cfg.PlanFile, nil
}

// loadStore builds a task store from the plan file, or from the sample
// project when no plan is given and samples are enabled. The returned plan
// file is nil for samples.
func (a *app) loadStore(path string) (*task.Store, *plan.File, error) {
	store := task.New(task.WithLogger(a.logger))

	if path == "" {
		if !a.cfg.Samples {
			return nil, nil, errNoPlan
		}
		if _, err := store.SeedSamples(); err != nil {
			return nil, nil, fmt.Errorf("seeding samples: %w", err)
		}
		a.logger.Debug("seeded sample project", "tasks", store.Len())
		return store, nil, nil
	}

	f, err := a.loadPlan(path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := f.Apply(store); err != nil {
		return nil, nil, fmt.Errorf("applying plan file: %w", err)
	}
	a.logger.Debug("loaded plan", "path", path, "tasks", store.Len())
	return store, f, nil
}

// loadPlan reads and validates a plan file, logging any warnings.
func (a *app) loadPlan(path string) (*plan.File, error) {
	f, err := plan.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading plan file: %w", err)
	}
	result := f.Validate(plan.ValidationOptions{SchemaPath: a.cfg.SchemaFile})
	for _, w := range result.Warnings {
		a.logger.Warn(w, "path", path)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// chartRange picks the display window: configured range first, then the
// plan file's range. ok is false when the chart should fit the tasks.
func (a *app) chartRange(f *plan.File) (rng gantt.Range, ok bool, err error) {
	start, end, ok, err := a.cfg.DisplayRange()
	if err != nil {
		return gantt.Range{}, false, err
	}
	if ok {
		return gantt.Range{Start: start, End: end}, true, nil
	}
	if f != nil && f.Range != nil {
		return gantt.Range{Start: f.Range.Start.Time, End: f.Range.End.Time}, true, nil
	}
	return gantt.Range{}, false, nil
}

// showCommand renders the static chart.
func (a *app) showCommand(args []string) error {
	fs := flag.NewFlagSet("gantt show", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	deps := fs.Bool("deps", true, "Show dependency names after each bar")
	nameWidth := fs.Int("name-width", gantt.DefaultNameWidth, "Width of the task name column")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := a.planPath(fs.Args())
	if err != nil {
		return err
	}
	store, f, err := a.loadStore(path)
	if err != nil {
		return err
	}

	tasks := store.Sorted()
	rng, ok, err := a.chartRange(f)
	if err != nil {
		return err
	}
	if !ok {
		rng, _ = gantt.Bounds(tasks)
	}

	if f != nil && f.Project != nil && f.Project.Name != "" {
		fmt.Fprintln(a.stdout, f.Project.Name)
		fmt.Fprintln(a.stdout, strings.Repeat("=", len(f.Project.Name)))
		fmt.Fprintln(a.stdout)
	}
	chart := gantt.Layout(tasks, rng, a.cfg.ChartWidth)
	fmt.Fprint(a.stdout, gantt.Render(chart, gantt.RenderOptions{
		NameWidth: *nameWidth,
		ShowDeps:  *deps,
	}))
	if start, end, ok := store.Span(); ok {
		fmt.Fprintf(a.stdout, "\n%d tasks, %s to %s\n", store.Len(), start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return nil
}

// lsCommand lists the sorted view.
func (a *app) lsCommand(args []string) error {
	fs := flag.NewFlagSet("gantt ls", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "Print tasks as a JSON array")
	links := fs.Bool("links", false, "Print dependency links instead of tasks")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := a.planPath(fs.Args())
	if err != nil {
		return err
	}
	store, _, err := a.loadStore(path)
	if err != nil {
		return err
	}

	if *links {
		return printLinks(a.stdout, store, *asJSON)
	}

	tasks := store.Sorted()
	if *asJSON {
		return writeJSON(a.stdout, tasks)
	}
	printTaskTable(a.stdout, tasks)
	return nil
}

// tuiCommand launches the interactive viewer.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gantt tui", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	step := fs.Float64("step", gantt.DefaultProgressStep, "Progress change per key press")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := a.planPath(fs.Args())
	if err != nil {
		return err
	}
	if !gantt.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	store, f, err := a.loadStore(path)
	if err != nil {
		return err
	}

	opts := []gantt.ViewerOption{
		gantt.WithProgressStep(*step),
		gantt.WithOnSelect(func(t task.Task) {
			a.logger.Debug("task selected", "id", t.ID, "name", t.Name)
		}),
	}
	if rng, ok, err := a.chartRange(f); err != nil {
		return err
	} else if ok {
		opts = append(opts, gantt.WithRange(rng))
	}
	if a.sources.Sources["chart_width"] != config.SourceDefault {
		opts = append(opts, gantt.WithWidth(a.cfg.ChartWidth))
	}

	stop, err := a.startMetrics(ctx, store)
	if err != nil {
		return err
	}
	defer stop()

	return gantt.Run(ctx, store, opts...)
}

// validateCommand checks plan files against the schema and the task rules.
func (a *app) validateCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gantt validate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	verbose := fs.Bool("v", false, "List the tasks in each plan")
	workers := fs.Int("j", 4, "Number of files to check at once")

	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 && a.cfg.PlanFile != "" {
		paths = []string{a.cfg.PlanFile}
	}
	if len(paths) == 0 {
		return errNoPlan
	}

	results := plan.ValidateFiles(ctx, paths, plan.ValidationOptions{SchemaPath: a.cfg.SchemaFile}, *workers)

	failed := 0
	for _, r := range results {
		a.logger.Debug("validated plan file", "path", r.Path, "duration", r.Duration, "ok", r.OK())
		a.printValidation(r, *verbose)
		if !r.OK() {
			failed++
		}
	}

	switch {
	case failed == 0:
		return nil
	case len(results) == 1:
		return fmt.Errorf("plan file %s failed validation", results[0].Path)
	default:
		return fmt.Errorf("%d of %d plan files failed validation", failed, len(results))
	}
}

func (a *app) printValidation(r plan.FileResult, verbose bool) {
	fmt.Fprintf(a.stdout, "Plan file: %s\n", r.Path)
	if r.Result == nil {
		fmt.Fprintf(a.stdout, "  ❌ %v\n", r.Err)
		return
	}
	for _, w := range r.Result.Warnings {
		fmt.Fprintf(a.stdout, "  ⚠️  %s\n", w)
	}
	if !r.Result.Valid {
		fmt.Fprintln(a.stdout, "  ❌ Validation failed:")
		for _, e := range r.Result.Errors {
			fmt.Fprintf(a.stdout, "     - %v\n", e)
		}
		return
	}
	if r.Err != nil {
		fmt.Fprintf(a.stdout, "  ❌ %v\n", r.Err)
		return
	}
	fmt.Fprintf(a.stdout, "  ✅ Valid (%d tasks)\n", r.Tasks)

	if verbose {
		for _, e := range r.File.Tasks {
			fmt.Fprintf(a.stdout, "    - [%s] %s: %s -> %s\n", e.Key, e.Name, e.Start, e.End)
		}
	}
}

// exportCommand dumps the loaded tasks as a plan file.
func (a *app) exportCommand(args []string) error {
	fs := flag.NewFlagSet("gantt export", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	output := fs.String("o", "", "Write to this file instead of stdout (.yaml/.yml selects YAML)")
	format := fs.String("format", "json", "Output format for stdout (json|yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := a.planPath(fs.Args())
	if err != nil {
		return err
	}
	store, f, err := a.loadStore(path)
	if err != nil {
		return err
	}

	out := plan.FromStore(store)
	if f != nil {
		out.Project = f.Project
		out.Range = f.Range
	}

	if *output != "" {
		if err := out.Save(*output); err != nil {
			return err
		}
		a.logger.Info("exported plan", "path", *output, "tasks", len(out.Tasks))
		return nil
	}

	var data []byte
	switch strings.ToLower(*format) {
	case "json":
		data, err = out.Marshal()
	case "yaml", "yml":
		data, err = out.MarshalYAMLDoc()
	default:
		return fmt.Errorf("unknown export format %q (expected json|yaml)", *format)
	}
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

// configCommand prints the effective configuration and where each value
// came from.
func (a *app) configCommand(args []string) error {
	fs := flag.NewFlagSet("gantt config", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	example := fs.Bool("example", false, "Print an example config file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *example {
		fmt.Fprint(a.stdout, config.ExampleConfig())
		return nil
	}

	if len(a.sources.Files) == 0 {
		fmt.Fprintln(a.stdout, "Config files: (none)")
	} else {
		fmt.Fprintln(a.stdout, "Config files:")
		for _, file := range a.sources.Files {
			fmt.Fprintf(a.stdout, "  %s\n", file)
		}
	}
	fmt.Fprintln(a.stdout)

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, v := range a.cfg.Values() {
		value := v.Value
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(tw, "%s\t%s\t(%s)\n", v.Name, value, a.sources.Sources[v.Name])
	}
	return tw.Flush()
}

// versionCommand prints version information.
func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "gantt version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Gantt - Terminal Gantt charts for task plans")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  gantt [options] [command] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  show [file]      Render the chart (default command)")
	fmt.Fprintln(w, "  ls [file]        List tasks sorted by start date")
	fmt.Fprintln(w, "  tui [file]       Launch the interactive viewer")
	fmt.Fprintln(w, "  validate [files] Check plan files")
	fmt.Fprintln(w, "  export [file]    Write the tasks as a plan file")
	fmt.Fprintln(w, "  config           Show the effective configuration")
	fmt.Fprintln(w, "  version          Show version information")
	fmt.Fprintln(w, "  help             Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show Options:")
	fmt.Fprintln(w, "  -deps          Show dependency names after each bar (default true)")
	fmt.Fprintln(w, "  -name-width int")
	fmt.Fprintf(w, "        Width of the task name column (default %d)\n", gantt.DefaultNameWidth)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -json         Print tasks as a JSON array")
	fmt.Fprintln(w, "  -links        Print dependency links instead of tasks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui Options:")
	fmt.Fprintln(w, "  -step float")
	fmt.Fprintf(w, "        Progress change per key press (default %d)\n", gantt.DefaultProgressStep)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export Options:")
	fmt.Fprintln(w, "  -o string     Write to this file (.yaml/.yml selects YAML)")
	fmt.Fprintln(w, "  -format string")
	fmt.Fprintln(w, "        Output format for stdout: json|yaml (default json)")
}

// printTaskTable prints tasks as aligned columns.
func printTaskTable(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tEND\tPROGRESS\tNAME\tDEPENDS ON")
	for _, t := range tasks {
		deps := "-"
		if len(t.Dependencies) > 0 {
			deps = strings.Join(t.Dependencies, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
			t.ID,
			plan.NewDate(t.StartDate),
			plan.NewDate(t.EndDate),
			t.Progress,
			t.Name,
			deps,
		)
	}
	_ = tw.Flush()
}

// printLinks prints the dependency links between existing tasks.
func printLinks(w io.Writer, store *task.Store, asJSON bool) error {
	links := store.Links()
	if asJSON {
		if links == nil {
			links = []task.Link{}
		}
		return writeJSON(w, links)
	}
	if len(links) == 0 {
		fmt.Fprintln(w, "No links.")
		return nil
	}
	for _, l := range links {
		fmt.Fprintf(w, "%s -> %s (%s)\n", l.From, l.To, l.Kind)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
