package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/gantt-go/internal/task"
)

const samplePlanJSON = `{
  "schema_version": 1,
  "project": {"name": "Relaunch"},
  "range": {"start": "2024-01-01", "end": "2024-02-01"},
  "tasks": [
    {"key": "build", "name": "Build", "start": "2024-01-08", "end": "2024-01-25", "depends_on": ["design"]},
    {"key": "design", "name": "Design", "start": "2024-01-01", "end": "2024-01-10", "progress": 40, "description": "mockups"}
  ]
}
`

const samplePlanYAML = `schema_version: 1
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
    start: 2024-01-08T09:00:00Z
    end: 2024-01-25
    depends_on: [design, external]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	f, err := Load(writeFile(t, "plan.json", samplePlanJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.SchemaVersion != 1 {
		t.Errorf("SchemaVersion: got %d, want 1", f.SchemaVersion)
	}
	if f.Project == nil || f.Project.Name != "Relaunch" {
		t.Errorf("Project: got %+v", f.Project)
	}
	if len(f.Tasks) != 2 {
		t.Fatalf("Tasks count: got %d, want 2", len(f.Tasks))
	}
	design := f.Entry("design")
	if design == nil {
		t.Fatal("Entry(design) not found")
	}
	if !design.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("design start: got %s", design.Start)
	}
	if design.Progress != 40 {
		t.Errorf("design progress: got %v, want 40", design.Progress)
	}
	if f.Range == nil || f.Range.End.String() != "2024-02-01" {
		t.Errorf("Range: got %+v", f.Range)
	}
}

func TestLoadYAML(t *testing.T) {
	f, err := Load(writeFile(t, "plan.yaml", samplePlanYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(f.Tasks) != 2 {
		t.Fatalf("Tasks count: got %d, want 2", len(f.Tasks))
	}
	build := f.Entry("build")
	if build == nil {
		t.Fatal("Entry(build) not found")
	}
	if !build.Start.Equal(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("build start: got %s", build.Start)
	}
	if !reflect.DeepEqual(build.DependsOn, []string{"design", "external"}) {
		t.Errorf("build depends_on: got %v", build.DependsOn)
	}

	result := f.Validate(ValidationOptions{})
	if !result.Valid {
		t.Fatalf("Validate: %v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], `"external"`) {
		t.Errorf("Warnings: got %v, want one unknown-key warning", result.Warnings)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load(missing): want error")
	}
	if _, err := Load(writeFile(t, "bad.json", `{"tasks": [`)); err == nil {
		t.Error("Load(truncated): want error")
	}
	if _, err := Load(writeFile(t, "bad-date.json", `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "start": "Jan 1", "end": "2024-01-02"}]}`)); err == nil {
		t.Error("Load(bad date): want error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	f, err := Load(writeFile(t, "plan.json", samplePlanJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("}\n")) {
		t.Error("saved file missing trailing newline")
	}
	if !bytes.Contains(data, []byte(`"start": "2024-01-08"`)) {
		t.Errorf("saved file lost short date form:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(loaded.Tasks) != len(f.Tasks) || loaded.Tasks[1].Description != "mockups" {
		t.Errorf("reloaded tasks differ: %+v", loaded.Tasks)
	}
}

func TestSaveYAML(t *testing.T) {
	f, err := Load(writeFile(t, "plan.json", samplePlanJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		t.Fatalf("expected YAML output, got JSON:\n%s", data)
	}
	if !bytes.Contains(data, []byte("schema_version: 1")) {
		t.Errorf("missing schema_version:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if result := loaded.Validate(ValidationOptions{}); !result.Valid {
		t.Fatalf("reloaded YAML invalid: %v", result.Errors)
	}
	build := loaded.Entry("build")
	if build == nil || build.Start.String() != "2024-01-08" {
		t.Fatalf("build entry: got %+v", build)
	}
	if !reflect.DeepEqual(build.DependsOn, []string{"design"}) {
		t.Errorf("build depends_on: got %v", build.DependsOn)
	}
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantPath string
	}{
		{
			name:     "wrong schema version",
			content:  `{"schema_version": 2, "tasks": []}`,
			wantPath: "schema_version",
		},
		{
			name:     "missing tasks",
			content:  `{"schema_version": 1}`,
			wantPath: "",
		},
		{
			name:     "missing start",
			content:  `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "end": "2024-01-02"}]}`,
			wantPath: "tasks[0]",
		},
		{
			name:     "blank name",
			content:  `{"schema_version": 1, "tasks": [{"key": "a", "name": "  ", "start": "2024-01-01", "end": "2024-01-02"}]}`,
			wantPath: "tasks[0].name",
		},
		{
			name:     "progress out of range",
			content:  `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "start": "2024-01-01", "end": "2024-01-02", "progress": 120}]}`,
			wantPath: "tasks[0].progress",
		},
		{
			name:     "unknown field",
			content:  `{"schema_version": 1, "tasks": [{"key": "a", "name": "A", "start": "2024-01-01", "end": "2024-01-02", "owner": "x"}]}`,
			wantPath: "tasks[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(writeFile(t, "plan.json", tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			result := f.Validate(ValidationOptions{})
			if !result.UsedSchema {
				t.Fatal("UsedSchema: want true")
			}
			if result.Valid {
				t.Fatal("Valid: want false")
			}
			var found bool
			for _, err := range result.Errors {
				var ve *ValidationError
				if errors.As(err, &ve) && ve.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("no error at path %q in %v", tt.wantPath, result.Errors)
			}
			if result.Err() == nil {
				t.Error("Err(): want non-nil")
			}
		})
	}
}

func TestValidateSemantics(t *testing.T) {
	f := &File{
		SchemaVersion: 1,
		Range:         &Range{Start: mustDate(t, "2024-02-01"), End: mustDate(t, "2024-01-01")},
		Tasks: []Entry{
			{Key: "a", Name: "A", Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02")},
			{Key: "a", Name: "A again", Start: mustDate(t, "2024-01-05"), End: mustDate(t, "2024-01-05")},
		},
	}

	result := f.Validate(ValidationOptions{})
	if result.Valid {
		t.Fatal("Valid: want false")
	}
	var paths []string
	for _, err := range result.Errors {
		var ve *ValidationError
		if errors.As(err, &ve) {
			paths = append(paths, ve.Path)
		}
	}
	want := []string{"tasks[1].key", "tasks[1].end", "range.end"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("error paths: got %v, want %v", paths, want)
	}
}

func TestValidateFallback(t *testing.T) {
	f := &File{
		SchemaVersion: 1,
		Tasks: []Entry{
			{Key: "a", Name: "A", Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02"), Progress: 101},
		},
	}

	result := f.Validate(ValidationOptions{SchemaPath: filepath.Join(t.TempDir(), "nope.json")})
	if result.UsedSchema {
		t.Error("UsedSchema: want false for missing schema file")
	}
	if result.Valid {
		t.Error("Valid: want false")
	}
	if len(result.Warnings) < 2 {
		t.Errorf("Warnings: got %v, want schema and fallback warnings", result.Warnings)
	}
}

func TestValidateCustomSchema(t *testing.T) {
	schema := writeFile(t, "strict.json", `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["project"]
}`)
	f, err := Load(writeFile(t, "plan.json", `{"schema_version": 1, "tasks": []}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	result := f.Validate(ValidationOptions{SchemaPath: schema})
	if !result.UsedSchema || result.Valid {
		t.Errorf("custom schema: UsedSchema=%v Valid=%v, want true/false", result.UsedSchema, result.Valid)
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"/":                     "",
		"/tasks/0/name":         "tasks[0].name",
		"#/range/start":         "range.start",
		"/tasks/3/depends_on/1": "tasks[3].depends_on[1]",
		"/a~1b/c~0d":            "a/b.c~d",
	}
	for ptr, want := range tests {
		if got := jsonPointerToPath(ptr); got != want {
			t.Errorf("jsonPointerToPath(%q): got %q, want %q", ptr, got, want)
		}
	}
}

func TestApply(t *testing.T) {
	f, err := Load(writeFile(t, "plan.json", samplePlanJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	store := task.New()
	ids, err := f.Apply(store)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("store Len: got %d, want 2", store.Len())
	}

	build, ok := store.Get(ids["build"])
	if !ok {
		t.Fatal("build task missing")
	}
	if !reflect.DeepEqual(build.Dependencies, []string{ids["design"]}) {
		t.Errorf("build dependencies: got %v, want [%s]", build.Dependencies, ids["design"])
	}
	design, _ := store.Get(ids["design"])
	if design.Progress != 40 || design.Description != "mockups" {
		t.Errorf("design: got %+v", design)
	}

	// Creation order follows the file; the sorted view follows start dates.
	all := store.All()
	if all[0].ID != ids["build"] {
		t.Errorf("All()[0]: got %s, want build", all[0].Name)
	}
	if sorted := store.Sorted(); sorted[0].ID != ids["design"] {
		t.Errorf("Sorted()[0]: got %s, want design", sorted[0].Name)
	}
}

func TestApplyKeepsUnknownDependencies(t *testing.T) {
	f, err := Load(writeFile(t, "plan.yaml", samplePlanYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	store := task.New()
	ids, err := f.Apply(store)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	build, _ := store.Get(ids["build"])
	if want := []string{ids["design"], "external"}; !reflect.DeepEqual(build.Dependencies, want) {
		t.Errorf("build dependencies: got %v, want %v", build.Dependencies, want)
	}
}

func TestApplyRollsBack(t *testing.T) {
	tests := []struct {
		name    string
		file    *File
		wantErr error
	}{
		{
			name: "invalid dates",
			file: &File{SchemaVersion: 1, Tasks: []Entry{
				{Key: "a", Name: "A", Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02")},
				{Key: "b", Name: "B", Start: mustDate(t, "2024-01-05"), End: mustDate(t, "2024-01-01")},
			}},
			wantErr: task.ErrEndBeforeStart,
		},
		{
			name: "invalid progress",
			file: &File{SchemaVersion: 1, Tasks: []Entry{
				{Key: "a", Name: "A", Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02")},
				{Key: "b", Name: "B", Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02"), Progress: 300},
			}},
			wantErr: task.ErrProgressRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := task.New()
			existing, err := store.Create(task.CreateInput{
				Name: "existing", StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
			})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			_, err = tt.file.Apply(store)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply error: got %v, want %v", err, tt.wantErr)
			}
			all := store.All()
			if len(all) != 1 || all[0].ID != existing.ID {
				t.Errorf("store after rollback: got %+v", all)
			}
		})
	}

	dup := &File{SchemaVersion: 1, Tasks: []Entry{
		{Key: "a", Name: "A", Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02")},
		{Key: "a", Name: "A2", Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-02")},
	}}
	store := task.New()
	if _, err := dup.Apply(store); err == nil {
		t.Error("Apply with duplicate keys: want error")
	}
	if store.Len() != 0 {
		t.Errorf("store after duplicate-key rollback: Len %d", store.Len())
	}
}

func TestExport(t *testing.T) {
	store := task.New()
	created, err := store.SeedSamples()
	if err != nil {
		t.Fatalf("SeedSamples failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(store, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var f File
	if err := json.Unmarshal(buf.Bytes(), &f); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if len(f.Tasks) != len(created) {
		t.Fatalf("exported tasks: got %d, want %d", len(f.Tasks), len(created))
	}
	if f.Tasks[1].Key != created[1].ID || !reflect.DeepEqual(f.Tasks[1].DependsOn, []string{created[0].ID}) {
		t.Errorf("exported entry: got %+v", f.Tasks[1])
	}
	if result := f.Validate(ValidationOptions{}); !result.Valid {
		t.Errorf("exported plan does not validate: %v", result.Errors)
	}

	// Exported plans seed an equivalent store.
	again := task.New()
	if _, err := f.Apply(again); err != nil {
		t.Fatalf("Apply of exported plan failed: %v", err)
	}
	if again.Len() != store.Len() {
		t.Errorf("re-applied Len: got %d, want %d", again.Len(), store.Len())
	}
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}
