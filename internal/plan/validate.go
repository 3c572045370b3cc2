package plan

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed plan.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "plan.schema.json"

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath is the path to a JSON Schema file that replaces the
	// embedded schema. If empty, the embedded schema is used.
	SchemaPath string
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

// Err joins all validation errors, or returns nil if the file is valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("invalid plan file: %s", strings.Join(msgs, "; "))
}

// Validate validates the plan file.
//
// Structural rules come from the JSON Schema. If the schema cannot be
// loaded, minimal structural checks run instead. Cross-field rules (unique
// keys, end after start) always run, since the schema cannot express them.
func (f *File) Validate(opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	schemaResult := validateWithSchema(f, opts.SchemaPath)
	result.UsedSchema = schemaResult.UsedSchema
	result.Warnings = append(result.Warnings, schemaResult.Warnings...)
	if schemaResult.UsedSchema {
		if !schemaResult.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, schemaResult.Errors...)
			return result
		}
	} else {
		result.Warnings = append(result.Warnings, "JSON Schema validation not available, using minimal checks")
		f.validateMinimal(result)
		if !result.Valid {
			return result
		}
	}

	f.validateSemantics(result)
	return result
}

// validateMinimal performs minimal structural validation without JSON Schema.
func (f *File) validateMinimal(result *ValidationResult) {
	if f.SchemaVersion != SchemaVersion {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "schema_version",
			Err:  fmt.Errorf("expected %d, got %d", SchemaVersion, f.SchemaVersion),
		})
	}

	if f.Tasks == nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "tasks",
			Err:  fmt.Errorf("missing required field"),
		})
		return
	}

	for i, entry := range f.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		if err := validateEntryMinimal(&entry, path); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err)
		}
	}
}

func validateEntryMinimal(entry *Entry, path string) *ValidationError {
	if entry.Key == "" {
		return &ValidationError{Path: path + ".key", Err: fmt.Errorf("missing required field")}
	}
	if strings.TrimSpace(entry.Name) == "" {
		return &ValidationError{Path: path + ".name", Err: fmt.Errorf("missing required field")}
	}
	if entry.Start.IsZero() {
		return &ValidationError{Path: path + ".start", Err: fmt.Errorf("missing required field")}
	}
	if entry.End.IsZero() {
		return &ValidationError{Path: path + ".end", Err: fmt.Errorf("missing required field")}
	}
	if entry.Progress < 0 || entry.Progress > 100 {
		return &ValidationError{
			Path: path + ".progress",
			Err:  fmt.Errorf("must be between 0 and 100, got %v", entry.Progress),
		}
	}
	return nil
}

// validateSemantics checks rules that span fields or entries.
func (f *File) validateSemantics(result *ValidationResult) {
	seen := make(map[string]int, len(f.Tasks))
	for i, entry := range f.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		if first, dup := seen[entry.Key]; dup {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".key",
				Err:  fmt.Errorf("duplicate key %q (first used by tasks[%d])", entry.Key, first),
			})
		} else {
			seen[entry.Key] = i
		}
		if !entry.End.After(entry.Start.Time) {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".end",
				Err:  fmt.Errorf("end date must be after start date"),
			})
		}
	}

	for i, entry := range f.Tasks {
		for j, dep := range entry.DependsOn {
			if _, ok := seen[dep]; !ok {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("tasks[%d].depends_on[%d]: unknown key %q", i, j, dep))
			}
		}
	}

	if f.Range != nil && !f.Range.End.After(f.Range.Start.Time) {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "range.end",
			Err:  fmt.Errorf("end date must be after start date"),
		})
	}
}

// compileSchema compiles the schema at path, or the embedded schema when
// path is empty.
func compileSchema(path string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if path == "" {
		if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
			return nil, err
		}
		return compiler.Compile(embeddedSchemaURL)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("schema file not found: %s", absPath)
	}
	return compiler.Compile(absPath)
}

// validateWithSchema attempts JSON Schema validation.
func validateWithSchema(f *File, schemaPath string) *ValidationResult {
	result := &ValidationResult{
		Valid:      true,
		Errors:     make([]error, 0),
		Warnings:   make([]string, 0),
		UsedSchema: false,
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema file: %v", err))
		return result
	}

	result.UsedSchema = true

	fileObj := f.raw
	if fileObj == nil {
		var err error
		if fileObj, err = f.document(); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{Err: err})
			return result
		}
	}

	if err := schema.Validate(fileObj); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}

	return result
}

// document round-trips f through JSON into the generic form the schema
// validator expects.
func (f *File) document() (interface{}, error) {
	fileData, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal file for validation: %w", err)
	}

	var fileObj interface{}
	if err := json.Unmarshal(fileData, &fileObj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file for validation: %w", err)
	}
	return fileObj, nil
}

func appendSchemaErrors(result *ValidationResult, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// jsonPointerToPath turns "/tasks/0/name" into "tasks[0].name".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
