package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the only plan format version understood by this package.
const SchemaVersion = 1

// Date is a calendar date or timestamp. It accepts "2006-01-02" as well as
// RFC 3339 and marshals midnight UTC values back to the short form.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate parses a date in either accepted layout.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	t := d.Time
	if t.Location() == time.UTC && t.Equal(t.Truncate(24*time.Hour)) {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// File is a plan file: a project header and the tasks to seed.
type File struct {
	SchemaVersion int      `json:"schema_version"`
	Project       *Project `json:"project,omitempty"`
	Range         *Range   `json:"range,omitempty"`
	Tasks         []Entry  `json:"tasks"`

	// raw is the decoded document as read by Load, used for schema
	// validation so that omitted fields are seen as omitted.
	raw interface{}
}

// Project holds descriptive metadata.
type Project struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Range is the display window for a chart of the plan.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Entry is one task in a plan file. Key is local to the file; DependsOn
// lists the keys of other entries.
type Entry struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Start       Date     `json:"start"`
	End         Date     `json:"end"`
	Progress    float64  `json:"progress,omitempty"`
	Description string   `json:"description,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// Load reads and parses a plan file. Files ending in .yaml or .yml are
// decoded as YAML; everything else as JSON.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	if isYAML(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse plan file: %w", err)
		}
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}
	if err := json.Unmarshal(data, &f.raw); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}

	return &f, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON re-encodes a YAML document as JSON. yaml.v3 keeps unquoted
// timestamps as strings when decoding into interface{}, so dates survive.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Save writes the plan file to path with 2-space indentation, as YAML when
// path ends in .yaml or .yml and as JSON otherwise.
func (f *File) Save(path string) error {
	marshal := f.Marshal
	if isYAML(path) {
		marshal = f.MarshalYAMLDoc
	}
	data, err := marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}

	return nil
}

// Marshal encodes the plan file as indented JSON with a trailing newline.
func (f *File) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plan file: %w", err)
	}
	return append(data, '\n'), nil
}

// MarshalYAMLDoc encodes the plan file as a YAML document. Keys are
// written in sorted order.
func (f *File) MarshalYAMLDoc() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal plan file: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("marshal plan file: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal plan file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal plan file: %w", err)
	}
	return buf.Bytes(), nil
}

// Entry returns the entry with key, or nil if none matches.
func (f *File) Entry(key string) *Entry {
	for i := range f.Tasks {
		if f.Tasks[i].Key == key {
			return &f.Tasks[i]
		}
	}
	return nil
}
