package task

import (
	"fmt"
	"time"
)

type sample struct {
	name     string
	start    string
	end      string
	progress float64
}

// samples is a five-phase project where each phase depends on the previous.
var samples = []sample{
	{name: "Project planning", start: "2024-01-01", end: "2024-01-05", progress: 100},
	{name: "Requirements", start: "2024-01-04", end: "2024-01-10", progress: 75},
	{name: "Basic design", start: "2024-01-08", end: "2024-01-15", progress: 50},
	{name: "Detailed design", start: "2024-01-12", end: "2024-01-20", progress: 25},
	{name: "Implementation", start: "2024-01-18", end: "2024-01-30", progress: 10},
}

// SeedSamples adds the sample project to the store and returns the created
// tasks in order.
func (s *Store) SeedSamples() ([]Task, error) {
	created := make([]Task, 0, len(samples))
	for i, smp := range samples {
		start, err := time.Parse(time.DateOnly, smp.start)
		if err != nil {
			return nil, fmt.Errorf("sample %d start: %w", i, err)
		}
		end, err := time.Parse(time.DateOnly, smp.end)
		if err != nil {
			return nil, fmt.Errorf("sample %d end: %w", i, err)
		}

		in := CreateInput{Name: smp.name, StartDate: start, EndDate: end}
		if i > 0 {
			in.Dependencies = []string{created[i-1].ID}
		}
		t, err := s.Create(in)
		if err != nil {
			return nil, fmt.Errorf("create sample %q: %w", smp.name, err)
		}

		t, _, err = s.Update(UpdateInput{ID: t.ID, Progress: Ptr(smp.progress)})
		if err != nil {
			return nil, fmt.Errorf("set sample %q progress: %w", smp.name, err)
		}
		created = append(created, t)
	}
	return created, nil
}
