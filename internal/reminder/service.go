package reminder

import (
	"context"
	"fmt"
	"time"

	logx "remindbot/pkg/logx"
)

// SnoozeStep is how far a snooze pushes the due time. The new due time is
// computed from the task's current due time, not from "now", so repeated
// snoozes before a firing compound.
const SnoozeStep = time.Hour

// TaskView is a task annotated for display.
type TaskView struct {
	Task      *Task
	Remaining time.Duration
}

// Service orchestrates parsing, persistence and scheduling. Delivery itself
// is the transport's job; the service hands a due task to the fire callback.
type Service struct {
	store Store
	sched *Scheduler
	clock Clock
	log   logx.Logger
}

func NewService(store Store, clock Clock, log logx.Logger, fire FireFunc) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		store: store,
		sched: NewScheduler(store, clock, log.With(logx.String("comp", "reminder.scheduler")), fire),
		clock: clock,
		log:   log,
	}
}

// Submit parses raw text into a task, persists it and arms delivery.
// ErrNoTimeExpression means the text matched nothing; no state is mutated.
func (s *Service) Submit(ctx context.Context, ownerID int64, text string) (*Task, error) {
	now := s.clock.Now()
	dueAt, ok := Parse(text, now)
	if !ok {
		return nil, ErrNoTimeExpression
	}

	task := NewTask(ownerID, Extract(text), dueAt, now)
	if err := s.store.Add(ctx, task); err != nil {
		// Leave scheduling unarmed rather than guessing about store state.
		return nil, fmt.Errorf("persist task: %w", err)
	}
	s.sched.Arm(task)

	s.log.Info("task created",
		logx.String("task_id", task.ID),
		logx.Int64("owner_id", ownerID),
		logx.Time("due_at", task.DueAt),
	)
	return task, nil
}

// Complete marks a task done. Idempotent; a completed task never fires again.
func (s *Service) Complete(ctx context.Context, ownerID int64, taskID string) (*Task, error) {
	if err := s.store.MarkCompleted(ctx, ownerID, taskID); err != nil {
		return nil, err
	}
	s.log.Info("task completed", logx.String("task_id", taskID), logx.Int64("owner_id", ownerID))
	return s.store.FindByID(ctx, ownerID, taskID)
}

// Snooze pushes the task's due time forward by SnoozeStep and re-arms it.
// Completed or unknown tasks are rejected with ErrNotFound.
func (s *Service) Snooze(ctx context.Context, ownerID int64, taskID string) (*Task, error) {
	task, err := s.store.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, ErrNotFound
	}

	newDue := task.DueAt.Add(SnoozeStep)
	if err := s.store.Reschedule(ctx, ownerID, taskID, newDue); err != nil {
		return nil, err
	}
	task.DueAt = newDue
	s.sched.Arm(task)

	s.log.Info("task snoozed",
		logx.String("task_id", taskID),
		logx.Int64("owner_id", ownerID),
		logx.Time("due_at", newDue),
	)
	return task, nil
}

// ListActive returns the owner's tasks in insertion order with the remaining
// time clamped at zero. Owners with no tasks get an empty slice.
func (s *Service) ListActive(ctx context.Context, ownerID int64) ([]TaskView, error) {
	tasks, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskView{Task: t, Remaining: t.Remaining(now)})
	}
	return out, nil
}

// Restore re-arms every pending task, used at startup with a durable store.
func (s *Service) Restore(ctx context.Context) error {
	tasks, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		s.sched.Arm(t)
	}
	if len(tasks) > 0 {
		s.log.Info("pending tasks re-armed", logx.Int("count", len(tasks)))
	}
	return nil
}

// Stop cancels all pending delivery timers.
func (s *Service) Stop() { s.sched.Stop() }
