package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store owns the canonical task records. All mutations on one owner's
// collection are serialized; reads may run concurrently with reads.
//
// Contract notes (any durable implementation must preserve these):
//   - MarkCompleted is idempotent: completing an already-completed task is a
//     no-op success.
//   - Reschedule rejects completed tasks with ErrNotFound semantics.
//   - ListByOwner returns tasks in insertion order; an owner with none gets
//     an empty slice, not an error.
type Store interface {
	Add(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, ownerID int64, taskID string) (*Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Task, error)
	MarkCompleted(ctx context.Context, ownerID int64, taskID string) error
	Reschedule(ctx context.Context, ownerID int64, taskID string, dueAt time.Time) error

	// ListPending returns every not-yet-completed task across all owners,
	// used to re-arm deliveries after a restart.
	ListPending(ctx context.Context) ([]*Task, error)

	// PruneCompleted removes completed tasks whose due time is before the
	// cutoff. Retention is a housekeeping concern; active tasks are never
	// touched.
	PruneCompleted(ctx context.Context, before time.Time) (int, error)

	Close() error
}

// MemoryStore keeps tasks per owner in insertion order, guarded by a
// read-write lock.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[int64][]*Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: map[int64][]*Task{}}
}

func (s *MemoryStore) Add(ctx context.Context, t *Task) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.tasks[t.OwnerID] {
		if have.ID == t.ID {
			return fmt.Errorf("duplicate task id %s", t.ID)
		}
	}
	cp := *t
	s.tasks[t.OwnerID] = append(s.tasks[t.OwnerID], &cp)
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, ownerID int64, taskID string) (*Task, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.findLocked(ownerID, taskID)
	if t == nil {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID int64) ([]*Task, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	have := s.tasks[ownerID]
	out := make([]*Task, 0, len(have))
	for _, t := range have {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]*Task, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Task
	for _, have := range s.tasks {
		for _, t := range have {
			if t.Completed {
				continue
			}
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, ownerID int64, taskID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findLocked(ownerID, taskID)
	if t == nil {
		return ErrNotFound
	}
	t.Completed = true
	return nil
}

func (s *MemoryStore) Reschedule(ctx context.Context, ownerID int64, taskID string, dueAt time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findLocked(ownerID, taskID)
	if t == nil || t.Completed {
		return ErrNotFound
	}
	t.DueAt = dueAt
	return nil
}

func (s *MemoryStore) PruneCompleted(ctx context.Context, before time.Time) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for owner, have := range s.tasks {
		kept := have[:0]
		for _, t := range have {
			if t.Completed && t.DueAt.Before(before) {
				pruned++
				continue
			}
			kept = append(kept, t)
		}
		if len(kept) == 0 {
			delete(s.tasks, owner)
			continue
		}
		s.tasks[owner] = kept
	}
	return pruned, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) findLocked(ownerID int64, taskID string) *Task {
	for _, t := range s.tasks[ownerID] {
		if t.ID == taskID {
			return t
		}
	}
	return nil
}
