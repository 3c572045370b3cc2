package task

// EventKind identifies the write that produced an Event.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes a committed write to the store.
type Event struct {
	// Seq numbers committed writes from 1 in commit order.
	Seq  uint64
	Kind EventKind
	// Task is a snapshot of the written task. For deletes it is the task as
	// it was just before removal.
	Task Task
	// Affected lists the ids of other tasks whose dependency lists were
	// rewritten by a delete.
	Affected []string
}

// Observer receives store events. It runs on the goroutine that performed
// the write, after the store lock has been released. Writes from different
// goroutines may therefore be delivered out of commit order; use Seq to
// order them.
type Observer func(Event)

type subscription struct {
	id int
	fn Observer
}

// Subscribe registers fn for every committed write and returns a function
// that removes the registration.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.RLock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, sub := range subs {
		sub.fn(ev.clone())
	}
}

func (ev Event) clone() Event {
	ev.Task = ev.Task.clone()
	if ev.Affected != nil {
		affected := make([]string, len(ev.Affected))
		copy(affected, ev.Affected)
		ev.Affected = affected
	}
	return ev
}
