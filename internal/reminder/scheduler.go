package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	logx "remindbot/pkg/logx"
)

// FireFunc delivers a due task. It runs on the timer goroutine and must not
// block for long.
type FireFunc func(t *Task)

// Scheduler owns one pending timer per armed task, keyed by task id.
//
// Arm is the single entry point for both task creation and snooze. Arming a
// task supersedes any earlier timer for the same id, and the fire path
// re-validates against the store before delivering, so a stale pre-snooze
// timer that slips through never produces a delivery.
type Scheduler struct {
	store Store
	clock Clock
	log   logx.Logger
	fire  FireFunc

	tmu     sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func NewScheduler(store Store, clock Clock, log logx.Logger, fire FireFunc) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		store:  store,
		clock:  clock,
		log:    log,
		fire:   fire,
		timers: map[string]*time.Timer{},
	}
}

// Arm schedules delivery no earlier than t.DueAt. A due time in the past
// fires immediately.
func (s *Scheduler) Arm(t *Task) {
	delay := t.DueAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	ownerID, taskID := t.OwnerID, t.ID

	s.tmu.Lock()
	defer s.tmu.Unlock()
	if s.stopped {
		return
	}
	if old, ok := s.timers[taskID]; ok {
		old.Stop()
	}
	s.timers[taskID] = time.AfterFunc(delay, func() {
		s.onReady(ownerID, taskID)
	})
	s.log.Debug("task armed",
		logx.String("task_id", taskID),
		logx.Int64("owner_id", ownerID),
		logx.Duration("delay", delay),
	)
}

// Stop cancels all pending timers. Already-running fire bodies finish on
// their own.
func (s *Scheduler) Stop() {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	s.stopped = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = map[string]*time.Timer{}
}

// onReady re-validates the task against the store and delivers it only if it
// still exists, is not completed, and its current due time has passed.
func (s *Scheduler) onReady(ownerID int64, taskID string) {
	s.tmu.Lock()
	delete(s.timers, taskID)
	stopped := s.stopped
	s.tmu.Unlock()
	if stopped {
		return
	}

	task, err := s.store.FindByID(context.Background(), ownerID, taskID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("fire-time lookup failed", logx.String("task_id", taskID), logx.Err(err))
		}
		return
	}
	if task.Completed {
		s.log.Debug("dropping fire for completed task", logx.String("task_id", taskID))
		return
	}
	if s.clock.Now().Before(task.DueAt) {
		// Stale timer from before a snooze; the re-armed timer owns delivery.
		s.log.Debug("dropping stale fire", logx.String("task_id", taskID), logx.Time("due_at", task.DueAt))
		return
	}

	if s.fire != nil {
		s.fire(task)
	}
}
