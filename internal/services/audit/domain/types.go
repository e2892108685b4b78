// Package domain defines the audit trail's types and interfaces
package domain

import (
	"context"
	"time"
)

// Run is one workflow invocation's durable summary
type Run struct {
	RunID           string
	PatientID       string
	MonthLabel      string
	Outcome         string
	ExistingMinutes int
	AcceptedMinutes int
	CommitMode      bool
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Decision is the fate of a single generated candidate
type Decision struct {
	RunID  string
	Title  string
	Fate   Fate
	Reason string
	At     time.Time
}

// Fate enumerates what happened to a candidate
type Fate string

const (
	FateDuplicate  Fate = "duplicate"
	FateInvalid    Fate = "invalid"
	FateAccepted   Fate = "accepted"
	FatePostFailed Fate = "post_failed"
)

// RecorderPort persists run summaries and candidate decisions.
// Implementations must tolerate being handed a zero FinishedAt
type RecorderPort interface {
	RecordRun(ctx context.Context, r Run) error
	RecordDecision(ctx context.Context, d Decision) error
	Close() error
}
