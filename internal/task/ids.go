package task

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator returns a new task identifier on each call.
type IDGenerator func() string

// NewIDGenerator returns a generator producing ids like "task-3-1a2b3c4d".
// The counter keeps ids unique within the generator's lifetime; the uuid
// suffix keeps them distinct across generators.
func NewIDGenerator() IDGenerator {
	var seq uint64
	return func() string {
		n := atomic.AddUint64(&seq, 1)
		u := uuid.New().String()
		return fmt.Sprintf("task-%d-%s", n, strings.ReplaceAll(u[:8], "-", ""))
	}
}
