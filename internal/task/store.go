package task

import (
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Store owns an ordered, in-memory collection of tasks.
// All methods are safe for concurrent use; one lock guards the collection.
type Store struct {
	mu    sync.RWMutex
	tasks []Task // creation order
	seq   uint64 // last committed write

	newID  IDGenerator
	logger *log.Logger

	subMu     sync.RWMutex
	subs      []subscription
	nextSubID int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		newID:  NewIDGenerator(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in and appends a new task with zero progress.
// It returns a *ValidationError if the name is blank or the end date is
// not strictly after the start date.
func (s *Store) Create(in CreateInput) (Task, error) {
	if err := validateCreate(in); err != nil {
		s.logger.Debug("create rejected", "name", in.Name, "err", err)
		return Task{}, err
	}

	deps := make([]string, len(in.Dependencies))
	copy(deps, in.Dependencies)

	s.mu.Lock()
	t := Task{
		ID:           s.uniqueID(),
		Name:         strings.TrimSpace(in.Name),
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Progress:     0,
		Description:  in.Description,
		Dependencies: deps,
	}
	s.tasks = append(s.tasks, t)
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.logger.Debug("task created", "id", t.ID, "name", t.Name)
	s.publish(Event{Seq: seq, Kind: EventCreated, Task: t})
	return t.clone(), nil
}

// uniqueID draws ids until one is unused. Callers must hold s.mu.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}

// indexOf returns the position of id, or -1. Callers must hold s.mu.
func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a task by ID. The boolean is false if no task has that ID.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i].clone(), true
}

// All returns every task in creation order.
func (s *Store) All() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// snapshot deep-copies the collection. Callers must hold s.mu.
func (s *Store) snapshot() []Task {
	out := make([]Task, len(s.tasks))
	for i := range s.tasks {
		out[i] = s.tasks[i].clone()
	}
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Update overwrites the present fields of in on the task with in.ID.
//
// If no such task exists it returns ok == false and a nil error. Otherwise
// the merged record is validated as a whole (dates, then name, then
// progress); on failure the stored task is left untouched and a
// *ValidationError is returned.
func (s *Store) Update(in UpdateInput) (t Task, ok bool, err error) {
	s.mu.Lock()
	i := s.indexOf(in.ID)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, false, nil
	}

	candidate := in.apply(s.tasks[i])
	if err := validateTask(&candidate); err != nil {
		s.mu.Unlock()
		s.logger.Debug("update rejected", "id", in.ID, "err", err)
		return Task{}, true, err
	}
	s.tasks[i] = candidate
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.logger.Debug("task updated", "id", candidate.ID)
	s.publish(Event{Seq: seq, Kind: EventUpdated, Task: candidate})
	return candidate.clone(), true, nil
}

// Delete removes the task with id and purges id from the dependency list
// of every remaining task. It returns false if no task has that ID.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	removed := s.tasks[i]
	var affected []string
	for j := range s.tasks {
		if j == i || !s.tasks[j].DependsOn(id) {
			continue
		}
		s.tasks[j].Dependencies = without(s.tasks[j].Dependencies, id)
		affected = append(affected, s.tasks[j].ID)
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.logger.Debug("task deleted", "id", id, "purged_from", len(affected))
	s.publish(Event{Seq: seq, Kind: EventDeleted, Task: removed, Affected: affected})
	return true
}

// without returns a fresh slice of deps with every occurrence of id removed,
// preserving the order of the rest.
func without(deps []string, id string) []string {
	out := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep != id {
			out = append(out, dep)
		}
	}
	return out
}

// Sorted returns every task ordered by ascending start date. Tasks with
// equal start dates keep their creation order.
func (s *Store) Sorted() []Task {
	s.mu.RLock()
	out := s.snapshot()
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

// Links derives finish-to-start links from every task's dependency list,
// in creation order. Links to ids not present in the store are skipped.
func (s *Store) Links() []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []Link
	for _, t := range s.tasks {
		for _, dep := range t.Dependencies {
			if s.indexOf(dep) < 0 {
				continue
			}
			links = append(links, Link{From: dep, To: t.ID, Kind: FinishToStart})
		}
	}
	return links
}

// Span returns the earliest start and latest end across all tasks.
// The boolean is false when the store is empty.
func (s *Store) Span() (start, end time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, t := range s.tasks {
		if i == 0 || t.StartDate.Before(start) {
			start = t.StartDate
		}
		if i == 0 || t.EndDate.After(end) {
			end = t.EndDate
		}
	}
	return start, end, len(s.tasks) > 0
}
