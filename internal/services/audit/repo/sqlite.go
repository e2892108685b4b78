// Package repo implements the audit trail on a local sqlite database
package repo

import (
	"context"
	"database/sql"
	"time"

	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/services/audit/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	patient_id       TEXT NOT NULL,
	month_label      TEXT NOT NULL,
	outcome          TEXT NOT NULL,
	existing_minutes INTEGER NOT NULL,
	accepted_minutes INTEGER NOT NULL,
	commit_mode      INTEGER NOT NULL,
	started_at       TEXT NOT NULL,
	finished_at      TEXT
);
CREATE TABLE IF NOT EXISTS decisions (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  TEXT NOT NULL,
	title   TEXT NOT NULL,
	fate    TEXT NOT NULL,
	reason  TEXT,
	at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_run ON decisions(run_id);
`

// SQLite is a RecorderPort backed by a local database file
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at path and ensures the
// schema exists
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open audit db %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "apply audit schema")
	}
	return &SQLite{db: db}, nil
}

// RecordRun upserts the run summary; the workflow writes it once at the end
// but an upsert keeps a crashed-then-retried run id from erroring
func (s *SQLite) RecordRun(ctx context.Context, r domain.Run) error {
	finished := ""
	if !r.FinishedAt.IsZero() {
		finished = r.FinishedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
			(run_id, patient_id, month_label, outcome, existing_minutes, accepted_minutes, commit_mode, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			outcome          = excluded.outcome,
			existing_minutes = excluded.existing_minutes,
			accepted_minutes = excluded.accepted_minutes,
			finished_at      = excluded.finished_at`,
		r.RunID, r.PatientID, r.MonthLabel, r.Outcome,
		r.ExistingMinutes, r.AcceptedMinutes, boolToInt(r.CommitMode),
		r.StartedAt.UTC().Format(time.RFC3339), finished,
	)
	return perr.WrapIf(err, perr.ErrorCodeDB, "record run")
}

// RecordDecision appends one candidate fate
func (s *SQLite) RecordDecision(ctx context.Context, d domain.Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (run_id, title, fate, reason, at)
		VALUES (?, ?, ?, ?, ?)`,
		d.RunID, d.Title, string(d.Fate), d.Reason, d.At.UTC().Format(time.RFC3339),
	)
	return perr.WrapIf(err, perr.ErrorCodeDB, "record decision")
}

// Close releases the database handle
func (s *SQLite) Close() error {
	return perr.WrapIf(s.db.Close(), perr.ErrorCodeDB, "close audit db")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Noop is a RecorderPort that records nothing, for AUDIT_DISABLED runs
type Noop struct{}

// RecordRun does nothing
func (Noop) RecordRun(context.Context, domain.Run) error { return nil }

// RecordDecision does nothing
func (Noop) RecordDecision(context.Context, domain.Decision) error { return nil }

// Close does nothing
func (Noop) Close() error { return nil }
