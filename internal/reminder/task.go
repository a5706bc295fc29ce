// Package reminder implements the reminder core: natural-language time
// parsing, the task store, per-task delivery scheduling and the
// orchestrating service.
package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Task is a single reminder owned by one chat.
//
// Invariants:
//   - ID never changes after creation and is unique per process.
//   - Completed is monotonic: false -> true, never reversed.
//   - DueAt only moves forward (snooze), never backward.
type Task struct {
	ID          string
	OwnerID     int64
	Description string
	DueAt       time.Time
	CreatedAt   time.Time
	Completed   bool
}

// NewTask builds a task with a fresh unique id. An empty description falls
// back to the placeholder so delivery never renders an empty message.
func NewTask(ownerID int64, description string, dueAt, now time.Time) *Task {
	if description == "" {
		description = PlaceholderDescription
	}
	return &Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: description,
		DueAt:       dueAt,
		CreatedAt:   now,
	}
}

// Remaining reports time left until the due time, clamped at zero for display.
func (t *Task) Remaining(now time.Time) time.Duration {
	d := t.DueAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
