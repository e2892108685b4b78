package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cpoflow/internal/services/audit/domain"
)

func openTemp(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordRun_InsertAndUpsert(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	run := domain.Run{
		RunID:           "r1",
		PatientID:       "p1",
		MonthLabel:      "June 2025",
		Outcome:         "EXHAUSTED",
		ExistingMinutes: 12,
		StartedAt:       time.Now(),
	}
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("insert: %v", err)
	}

	run.Outcome = "DONE"
	run.AcceptedMinutes = 18
	run.FinishedAt = time.Now()
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var outcome string
	var accepted int
	err := s.db.QueryRow(`SELECT outcome, accepted_minutes FROM runs WHERE run_id = ?`, "r1").
		Scan(&outcome, &accepted)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if outcome != "DONE" || accepted != 18 {
		t.Fatalf("upsert result = %s/%d", outcome, accepted)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert should not duplicate rows, have %d", count)
	}
}

func TestRecordDecision(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	decisions := []domain.Decision{
		{RunID: "r1", Title: "A", Fate: domain.FateDuplicate, At: time.Now()},
		{RunID: "r1", Title: "B", Fate: domain.FateInvalid, Reason: "not medically sound", At: time.Now()},
		{RunID: "r1", Title: "C", Fate: domain.FateAccepted, At: time.Now()},
	}
	for _, d := range decisions {
		if err := s.RecordDecision(ctx, d); err != nil {
			t.Fatalf("record %q: %v", d.Title, err)
		}
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM decisions WHERE run_id = ?`, "r1").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("decision count = %d, want 3", count)
	}

	var reason string
	err := s.db.QueryRow(`SELECT reason FROM decisions WHERE title = ?`, "B").Scan(&reason)
	if err != nil {
		t.Fatalf("query reason: %v", err)
	}
	if reason != "not medically sound" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestNoop(t *testing.T) {
	var n Noop
	if err := n.RecordRun(context.Background(), domain.Run{}); err != nil {
		t.Fatalf("noop run: %v", err)
	}
	if err := n.RecordDecision(context.Background(), domain.Decision{}); err != nil {
		t.Fatalf("noop decision: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("noop close: %v", err)
	}
}
