package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"remindbot/internal/reminder"
	logx "remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// sqliteStore is the durable reminder.Store. It preserves the in-memory
// store's contract: idempotent MarkCompleted, Reschedule rejecting completed
// tasks, insertion-order listing.
type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (reminder.Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	st.log.Debug("sqlite store opened", logx.String("path", cfg.Path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Add(ctx context.Context, t *reminder.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, owner_id, description, due_at, created_at, completed)
		 VALUES(?,?,?,?,?,?)`,
		t.ID, t.OwnerID, t.Description, t.DueAt.UnixMilli(), t.CreatedAt.UnixMilli(), boolInt(t.Completed),
	)
	return err
}

func (s *sqliteStore) FindByID(ctx context.Context, ownerID int64, taskID string) (*reminder.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, description, due_at, created_at, completed
		 FROM tasks WHERE owner_id = ? AND id = ?`,
		ownerID, taskID,
	)
	return scanTask(row)
}

func (s *sqliteStore) ListByOwner(ctx context.Context, ownerID int64) ([]*reminder.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, description, due_at, created_at, completed
		 FROM tasks WHERE owner_id = ? ORDER BY seq`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *sqliteStore) ListPending(ctx context.Context) ([]*reminder.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, description, due_at, created_at, completed
		 FROM tasks WHERE completed = 0 ORDER BY seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *sqliteStore) MarkCompleted(ctx context.Context, ownerID int64, taskID string) error {
	// Matches already-completed rows too, which keeps the call idempotent.
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 1 WHERE owner_id = ? AND id = ?`,
		ownerID, taskID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *sqliteStore) Reschedule(ctx context.Context, ownerID int64, taskID string, dueAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET due_at = ? WHERE owner_id = ? AND id = ? AND completed = 0`,
		dueAt.UnixMilli(), ownerID, taskID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *sqliteStore) PruneCompleted(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE completed = 1 AND due_at < ?`,
		before.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return reminder.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*reminder.Task, error) {
	var (
		t         reminder.Task
		dueMS     int64
		createdMS int64
		completed int
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &dueMS, &createdMS, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reminder.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.DueAt = time.UnixMilli(dueMS)
	t.CreatedAt = time.UnixMilli(createdMS)
	t.Completed = completed != 0
	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]*reminder.Task, error) {
	out := make([]*reminder.Task, 0, 8)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
