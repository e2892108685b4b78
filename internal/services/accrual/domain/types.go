// Package domain defines the core types and interfaces for the accrual service
package domain

import (
	"strings"
	"time"
)

// Outcome is the terminal state of one accrual run
type Outcome string

const (
	// OutcomeDone means the minute threshold is satisfied
	OutcomeDone Outcome = "DONE"

	// OutcomeNoCertification means no 485/recert order authorizes billing
	OutcomeNoCertification Outcome = "NO_CERTIFICATION"

	// OutcomeExhausted means the loop stopped making progress before the threshold
	OutcomeExhausted Outcome = "EXHAUSTED"
)

// CareNote is a documentation record snapshot from the record system
type CareNote struct {
	NoteType  string
	NoteTitle string
	NoteText  string
	Minutes   int
	UpdatedOn string
	CreatedAt string
}

// CertSummary carries the clinical context generation prompts are built from
type CertSummary struct {
	Diagnoses              []string
	CertificationStatement string
}

// Candidate is a transient generated entry, worth a fixed number of minutes
// once accepted. Never persisted unless commit mode is on
type Candidate struct {
	Title string
	Text  string
}

// Accepted is a candidate that survived dedup and validation, stamped with
// its audit instant inside the billing window
type Accepted struct {
	Candidate
	Minutes int
	SentAt  time.Time
}

// NotePayload is the commit-mode POST body for one accepted entry.
// Field names mirror the record system's wire format
type NotePayload struct {
	PatientID             string `json:"patientId"             validate:"required"`
	StartOfCare           string `json:"startOfCare"`
	StartOfEpisode        string `json:"startOfEpisode"`
	EndOfEpisode          string `json:"endOfEpisode"`
	NoteType              string `json:"noteType"              validate:"required"`
	NoteTitle             string `json:"noteTitle"             validate:"required"`
	NoteText              string `json:"noteText"              validate:"required"`
	CPOMin                int    `json:"cpOmin"                validate:"min=1"`
	SentToPhysicianDate   string `json:"sentToPhysicianDate"`
	SentToPhysicianStatus bool   `json:"sentToPhysicianStatus"`
}

// GenerateInput is one batch request to the note generator
type GenerateInput struct {
	Diagnoses              []string
	CertificationStatement string
	Count                  int
}

// ValidateInput is one candidate judgment request
type ValidateInput struct {
	Category               string
	Title                  string
	Text                   string
	Diagnoses              []string
	CertificationStatement string
}

// Verdict is the validator's raw leading-token-delimited reply.
// Anything that does not begin with "VALID" rejects the candidate
type Verdict string

// Accepted reports whether the verdict approves the candidate
func (v Verdict) Accepted() bool { return strings.HasPrefix(string(v), "VALID") }

// Reason returns the free-text remainder after the leading token, if any
func (v Verdict) Reason() string {
	_, rest, ok := strings.Cut(string(v), ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}

// RunInput identifies one accrual invocation. RunID ties audit rows and log
// lines from the same invocation together
type RunInput struct {
	RunID      string
	PatientID  string
	MonthLabel string
}

// RunResult summarizes how a run terminated
type RunResult struct {
	Outcome         Outcome
	ExistingMinutes int
	AcceptedMinutes int
	Accepted        []Accepted
}

// TotalMinutes is the run's final credited total
func (r RunResult) TotalMinutes() int { return r.ExistingMinutes + r.AcceptedMinutes }
