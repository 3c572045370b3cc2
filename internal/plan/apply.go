package plan

import (
	"fmt"
	"io"

	"github.com/nibzard/gantt-go/internal/task"
)

// Apply seeds store with the plan's tasks and returns a map from entry key
// to the id the store assigned.
//
// Entries are created first, then progress and dependencies are set in a
// second pass so that entries may depend on later ones. Dependency keys
// that name no entry are passed through unchanged. If any step fails, the
// tasks created so far are deleted again and the error is returned.
func (f *File) Apply(store *task.Store) (map[string]string, error) {
	ids := make(map[string]string, len(f.Tasks))
	created := make([]string, 0, len(f.Tasks))

	rollback := func(err error) (map[string]string, error) {
		for i := len(created) - 1; i >= 0; i-- {
			store.Delete(created[i])
		}
		return nil, err
	}

	for i, entry := range f.Tasks {
		if _, dup := ids[entry.Key]; dup {
			return rollback(&ValidationError{
				Path: fmt.Sprintf("tasks[%d].key", i),
				Err:  fmt.Errorf("duplicate key %q", entry.Key),
			})
		}
		t, err := store.Create(task.CreateInput{
			Name:        entry.Name,
			StartDate:   entry.Start.Time,
			EndDate:     entry.End.Time,
			Description: entry.Description,
		})
		if err != nil {
			return rollback(fmt.Errorf("tasks[%d] (%s): %w", i, entry.Key, err))
		}
		ids[entry.Key] = t.ID
		created = append(created, t.ID)
	}

	for i, entry := range f.Tasks {
		in := task.UpdateInput{ID: ids[entry.Key]}
		if entry.Progress != 0 {
			in.Progress = task.Ptr(entry.Progress)
		}
		if len(entry.DependsOn) > 0 {
			deps := make([]string, len(entry.DependsOn))
			for j, key := range entry.DependsOn {
				if id, ok := ids[key]; ok {
					deps[j] = id
				} else {
					deps[j] = key
				}
			}
			in.Dependencies = &deps
		}
		if in.IsEmpty() {
			continue
		}
		if _, _, err := store.Update(in); err != nil {
			return rollback(fmt.Errorf("tasks[%d] (%s): %w", i, entry.Key, err))
		}
	}

	return ids, nil
}

// FromStore builds a plan file from the store's tasks in creation order,
// using task ids as entry keys.
func FromStore(store *task.Store) *File {
	tasks := store.All()
	f := &File{
		SchemaVersion: SchemaVersion,
		Tasks:         make([]Entry, 0, len(tasks)),
	}
	for _, t := range tasks {
		entry := Entry{
			Key:         t.ID,
			Name:        t.Name,
			Start:       NewDate(t.StartDate),
			End:         NewDate(t.EndDate),
			Progress:    t.Progress,
			Description: t.Description,
		}
		if len(t.Dependencies) > 0 {
			entry.DependsOn = append([]string(nil), t.Dependencies...)
		}
		f.Tasks = append(f.Tasks, entry)
	}
	return f
}

// Export writes the store's tasks to w as an indented JSON plan file.
func Export(store *task.Store, w io.Writer) error {
	data, err := FromStore(store).Marshal()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
