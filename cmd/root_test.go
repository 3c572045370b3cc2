// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nibzard/gantt-go/internal/config"
	"github.com/nibzard/gantt-go/internal/gantt"
	"github.com/nibzard/gantt-go/internal/plan"
	"github.com/nibzard/gantt-go/internal/task"
)

const testPlan = `schema_version: 1
project:
  name: Relaunch
tasks:
  - key: design
    name: Design
    start: 2024-01-01
    end: 2024-01-10
    progress: 40
  - key: build
    name: Build
    start: 2024-01-08
    end: 2024-01-25
    depends_on: [design]
`

// setupEnv isolates the test from user config and GANTT_* variables and
// returns a fresh working directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{
		"GANTT_PLAN", "GANTT_SCHEMA", "GANTT_SAMPLES", "GANTT_RANGE_START", "GANTT_RANGE_END",
		"GANTT_CHART_WIDTH", "GANTT_LOG_LEVEL", "GANTT_LOG_FORMAT", "GANTT_LOG_TIMESTAMPS",
		"GANTT_LOG_CALLER", "GANTT_METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writePlan(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

// TestRun tests the top-level dispatch.
func TestRun(t *testing.T) {
	setupEnv(t)

	t.Run("shows help with -h flag", func(t *testing.T) {
		out, _, err := runCLI(t, "-h")
		if err != nil {
			t.Fatalf("expected no error with -h, got %v", err)
		}
		if !strings.Contains(out, "Usage:") || !strings.Contains(out, "-samples") {
			t.Errorf("help output missing usage or global flags:\n%s", out)
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		out, _, err := runCLI(t, "help")
		if err != nil {
			t.Fatalf("expected no error with help command, got %v", err)
		}
		if !strings.Contains(out, "Commands:") {
			t.Errorf("help output missing commands:\n%s", out)
		}
	})

	t.Run("shows version", func(t *testing.T) {
		for _, args := range [][]string{{"-v"}, {"--version"}, {"version"}} {
			out, _, err := runCLI(t, args...)
			if err != nil {
				t.Fatalf("%v: %v", args, err)
			}
			if !strings.Contains(out, "gantt version "+Version) {
				t.Errorf("%v: got %q", args, out)
			}
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		_, stderr, err := runCLI(t, "unknown-command")
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Fatalf("expected 'unknown command' error, got %v", err)
		}
		if !strings.Contains(stderr, "Unknown command: unknown-command") {
			t.Errorf("stderr: got %q", stderr)
		}
	})

	t.Run("invalid config is reported", func(t *testing.T) {
		_, _, err := runCLI(t, "-width", "3", "show")
		if err == nil || !strings.Contains(err.Error(), "chart_width") {
			t.Fatalf("expected chart_width error, got %v", err)
		}
	})

	t.Run("no plan and no samples", func(t *testing.T) {
		_, _, err := runCLI(t, "show")
		if !errors.Is(err, errNoPlan) {
			t.Fatalf("expected errNoPlan, got %v", err)
		}
	})
}

func TestShowSamples(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "-samples", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Project planning", "Implementation", "Jan 01", "← Project planning", "100%", "5 tasks, 2024-01-01 to 2024-01-30"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	// show is the default command.
	def, _, err := runCLI(t, "-samples")
	if err != nil {
		t.Fatalf("default command: %v", err)
	}
	if def != out {
		t.Error("default command output differs from show")
	}

	out, _, err = runCLI(t, "-samples", "show", "-deps=false")
	if err != nil {
		t.Fatalf("show -deps=false: %v", err)
	}
	if strings.Contains(out, "←") {
		t.Errorf("dependencies shown with -deps=false:\n%s", out)
	}
}

func TestShowPlanFile(t *testing.T) {
	dir := setupEnv(t)
	path := writePlan(t, dir, "plan.yaml", testPlan)

	out, _, err := runCLI(t, "show", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Relaunch", "Design", "Build", "← Design", " 40%"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	// A file path alone is shorthand for show.
	short, _, err := runCLI(t, path)
	if err != nil {
		t.Fatalf("file shorthand: %v", err)
	}
	if short != out {
		t.Error("file shorthand output differs from show")
	}

	// The plan can also come from the project config file.
	writePlan(t, dir, "gantt.toml", "plan_file = \"plan.yaml\"\n")
	fromConfig, _, err := runCLI(t)
	if err != nil {
		t.Fatalf("plan from config: %v", err)
	}
	if fromConfig != out {
		t.Error("plan_file from config renders differently")
	}
}

func TestShowRange(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "-samples", "-range-start", "2024-01-10", "-range-end", "2024-01-20", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Jan 10") || !strings.Contains(out, "Jan 19") {
		t.Errorf("header does not follow the configured range:\n%s", out)
	}
	if strings.Contains(out, "Jan 01") {
		t.Errorf("header starts before the configured range:\n%s", out)
	}
}

func TestShowInvalidPlan(t *testing.T) {
	dir := setupEnv(t)
	path := writePlan(t, dir, "bad.json", `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "start": "2024-01-05", "end": "2024-01-01"}]}`)

	_, _, err := runCLI(t, "show", path)
	if err == nil || !strings.Contains(err.Error(), "invalid plan file") {
		t.Fatalf("expected invalid plan error, got %v", err)
	}
}

func TestLs(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "-samples", "ls")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("ls: got %d lines, want header + 5:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "DEPENDS ON") {
		t.Errorf("header: got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Project planning") || !strings.Contains(lines[1], "2024-01-01") {
		t.Errorf("first row: got %q", lines[1])
	}
	if !strings.Contains(lines[5], "Implementation") {
		t.Errorf("last row: got %q", lines[5])
	}
}

func TestLsJSON(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "-samples", "ls", "-json")
	if err != nil {
		t.Fatalf("ls -json: %v", err)
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(tasks) != 5 {
		t.Fatalf("tasks: got %d, want 5", len(tasks))
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].StartDate.Before(tasks[i-1].StartDate) {
			t.Errorf("tasks not sorted at %d", i)
		}
	}

	out, _, err = runCLI(t, "-samples", "ls", "-links", "-json")
	if err != nil {
		t.Fatalf("ls -links -json: %v", err)
	}
	var links []task.Link
	if err := json.Unmarshal([]byte(out), &links); err != nil {
		t.Fatalf("decode links: %v\n%s", err, out)
	}
	if len(links) != 4 {
		t.Errorf("links: got %d, want 4", len(links))
	}
	for _, l := range links {
		if l.Kind != task.FinishToStart {
			t.Errorf("link kind: got %s", l.Kind)
		}
	}
}

func TestLsLinksText(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "-samples", "ls", "-links")
	if err != nil {
		t.Fatalf("ls -links: %v", err)
	}
	if got := strings.Count(out, "(finish-to-start)"); got != 4 {
		t.Errorf("links: got %d, want 4:\n%s", got, out)
	}
}

func TestValidate(t *testing.T) {
	dir := setupEnv(t)
	good := writePlan(t, dir, "plan.yaml", testPlan)

	out, _, err := runCLI(t, "validate", "-v", good)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Valid (2 tasks)") || !strings.Contains(out, "[design] Design") {
		t.Errorf("validate output:\n%s", out)
	}

	bad := writePlan(t, dir, "bad.json", `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "start": "2024-01-01", "end": "2024-01-02", "progress": 150}]}`)
	out, _, err = runCLI(t, "validate", bad)
	if err == nil {
		t.Fatal("validate: expected error for out-of-range progress")
	}
	// The details are already on stdout; the returned error only summarizes.
	if want := "plan file " + bad + " failed validation"; err.Error() != want {
		t.Errorf("validate error: got %q, want %q", err, want)
	}
	if !strings.Contains(out, "Validation failed") || !strings.Contains(out, "tasks[0].progress") {
		t.Errorf("validate output:\n%s", out)
	}

	if _, _, err := runCLI(t, "validate"); !errors.Is(err, errNoPlan) {
		t.Errorf("validate without plan: got %v, want errNoPlan", err)
	}
}

func TestValidateWarnings(t *testing.T) {
	dir := setupEnv(t)
	path := writePlan(t, dir, "plan.json", `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "start": "2024-01-01", "end": "2024-01-02", "depends_on": ["ghost"]}]}`)

	out, _, err := runCLI(t, "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ghost") || !strings.Contains(out, "Valid (1 tasks)") {
		t.Errorf("validate output:\n%s", out)
	}
}

func TestValidateMultipleFiles(t *testing.T) {
	dir := setupEnv(t)
	good := writePlan(t, dir, "plan.yaml", testPlan)
	bad := writePlan(t, dir, "bad.json", `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "start": "2024-01-05", "end": "2024-01-01"}]}`)
	missing := filepath.Join(dir, "missing.json")

	out, _, err := runCLI(t, "validate", "-j", "2", good, bad, missing)
	if err == nil {
		t.Fatal("validate: expected error")
	}
	if !strings.Contains(err.Error(), "2 of 3 plan files failed") {
		t.Errorf("error: got %v", err)
	}

	// Output follows argument order regardless of which check finishes first.
	iGood := strings.Index(out, "Plan file: "+good)
	iBad := strings.Index(out, "Plan file: "+bad)
	iMissing := strings.Index(out, "Plan file: "+missing)
	if iGood < 0 || iBad < iGood || iMissing < iBad {
		t.Errorf("validate output order:\n%s", out)
	}
	if !strings.Contains(out, "Valid (2 tasks)") || !strings.Contains(out, "tasks[0].end") || !strings.Contains(out, "loading plan file") {
		t.Errorf("validate output:\n%s", out)
	}
}

func TestExport(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := runCLI(t, "-samples", "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var f struct {
		SchemaVersion int `json:"schema_version"`
		Tasks         []struct {
			Key       string   `json:"key"`
			DependsOn []string `json:"depends_on"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("decode export: %v\n%s", err, out)
	}
	if f.SchemaVersion != plan.SchemaVersion || len(f.Tasks) != 5 {
		t.Fatalf("export: got version %d with %d tasks", f.SchemaVersion, len(f.Tasks))
	}
	if len(f.Tasks[1].DependsOn) != 1 || f.Tasks[1].DependsOn[0] != f.Tasks[0].Key {
		t.Errorf("export lost dependencies: %+v", f.Tasks[1])
	}

	yamlOut, _, err := runCLI(t, "-samples", "export", "-format", "yaml")
	if err != nil {
		t.Fatalf("export yaml: %v", err)
	}
	if !strings.Contains(yamlOut, "schema_version: 1") {
		t.Errorf("yaml export:\n%s", yamlOut)
	}

	if _, _, err := runCLI(t, "-samples", "export", "-format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}

	// Exported plans load back and keep the project header.
	src := writePlan(t, dir, "plan.yaml", testPlan)
	dst := filepath.Join(dir, "copy.yaml")
	if _, _, err := runCLI(t, "export", "-o", dst, src); err != nil {
		t.Fatalf("export -o: %v", err)
	}
	loaded, err := plan.Load(dst)
	if err != nil {
		t.Fatalf("load exported plan: %v", err)
	}
	if loaded.Project == nil || loaded.Project.Name != "Relaunch" || len(loaded.Tasks) != 2 {
		t.Errorf("exported plan: %+v", loaded)
	}
	if result := loaded.Validate(plan.ValidationOptions{}); !result.Valid {
		t.Errorf("exported plan invalid: %v", result.Errors)
	}
}

func TestConfigCommand(t *testing.T) {
	dir := setupEnv(t)
	writePlan(t, dir, "gantt.toml", "chart_width = 80\n")

	out, _, err := runCLI(t, "-log-level", "debug", "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{
		filepath.Join(dir, "gantt.toml"),
		"chart_width", "80", "(project file)",
		"log_level", "debug", "(flag)",
		"metrics_addr", "(default)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, "config", "-example")
	if err != nil {
		t.Fatalf("config -example: %v", err)
	}
	if !strings.Contains(out, "# Gantt configuration file") {
		t.Errorf("example config:\n%s", out)
	}
}

func TestTuiRequiresTTY(t *testing.T) {
	setupEnv(t)
	if gantt.IsTTY(os.Stdout) {
		t.Skip("stdout is a terminal")
	}
	if _, _, err := runCLI(t, "-samples", "tui"); err == nil || !strings.Contains(err.Error(), "TTY") {
		t.Fatalf("expected TTY error, got %v", err)
	}
}

func TestStartMetrics(t *testing.T) {
	a := &app{cfg: &config.Config{}, logger: log.New(io.Discard)}
	stop, err := a.startMetrics(context.Background(), task.New())
	if err != nil {
		t.Fatalf("startMetrics disabled: %v", err)
	}
	stop()

	a.cfg.MetricsAddr = "127.0.0.1:0"
	store := task.New()
	stop, err = a.startMetrics(context.Background(), store)
	if err != nil {
		t.Fatalf("startMetrics: %v", err)
	}
	if _, err := store.SeedSamples(); err != nil {
		t.Fatalf("SeedSamples: %v", err)
	}
	stop()
}
