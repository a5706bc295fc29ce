package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"remindbot/internal/reminder"
	logx "remindbot/pkg/logx"
)

func openTestStore(t *testing.T) reminder.Store {
	t.Helper()
	st, err := Open(Config{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "tasks.db"),
		BusyTimeout: time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testTask(owner int64, desc string, due time.Time) *reminder.Task {
	return reminder.NewTask(owner, desc, due, due.Add(-time.Hour))
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenDefaultsToMemory(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := st.(*reminder.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", st)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := openTestStore(t)

	due := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	task := testTask(1, "call mom", due)
	if err := st.Add(ctx, task); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := st.Add(ctx, task); err == nil {
		t.Fatal("expected duplicate id to fail")
	}

	got, err := st.FindByID(ctx, 1, task.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Description != "call mom" || !got.DueAt.Equal(due) || got.Completed {
		t.Fatalf("unexpected task: %+v", got)
	}

	if _, err := st.FindByID(ctx, 2, task.ID); !errors.Is(err, reminder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner, got %v", err)
	}
}

func TestSQLiteListOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := openTestStore(t)

	first := testTask(1, "first", time.Now().Add(2*time.Hour))
	second := testTask(1, "second", time.Now().Add(time.Hour))
	other := testTask(2, "other", time.Now().Add(time.Hour))
	for _, task := range []*reminder.Task{first, second, other} {
		if err := st.Add(ctx, task); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := st.ListByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("expected insertion order for owner 1, got %+v", got)
	}

	empty, err := st.ListByOwner(ctx, 404)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %d", len(empty))
	}
}

func TestSQLiteCompleteAndReschedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := openTestStore(t)

	task := testTask(1, "x", time.Now().Add(time.Hour).Truncate(time.Millisecond))
	if err := st.Add(ctx, task); err != nil {
		t.Fatalf("Add: %v", err)
	}

	newDue := task.DueAt.Add(time.Hour)
	if err := st.Reschedule(ctx, 1, task.ID, newDue); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	got, _ := st.FindByID(ctx, 1, task.ID)
	if !got.DueAt.Equal(newDue) {
		t.Fatalf("DueAt = %v, want %v", got.DueAt, newDue)
	}

	for i := 0; i < 2; i++ {
		if err := st.MarkCompleted(ctx, 1, task.ID); err != nil {
			t.Fatalf("MarkCompleted #%d: %v", i+1, err)
		}
	}
	if err := st.MarkCompleted(ctx, 1, "missing"); !errors.Is(err, reminder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.Reschedule(ctx, 1, task.ID, newDue.Add(time.Hour)); !errors.Is(err, reminder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for completed task, got %v", err)
	}
}

func TestSQLitePendingAndPrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := openTestStore(t)
	now := time.Now()

	pending := testTask(1, "pending", now.Add(time.Hour))
	doneOld := testTask(1, "done old", now.Add(-48*time.Hour))
	doneFresh := testTask(2, "done fresh", now.Add(-time.Minute))
	for _, task := range []*reminder.Task{pending, doneOld, doneFresh} {
		if err := st.Add(ctx, task); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := st.MarkCompleted(ctx, 1, doneOld.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := st.MarkCompleted(ctx, 2, doneFresh.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	got, err := st.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 1 || got[0].ID != pending.ID {
		t.Fatalf("unexpected pending set: %+v", got)
	}

	n, err := st.PruneCompleted(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneCompleted: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned = %d, want 1", n)
	}
	if _, err := st.FindByID(ctx, 1, doneOld.ID); !errors.Is(err, reminder.ErrNotFound) {
		t.Fatalf("old completed task should be gone, got %v", err)
	}
}
