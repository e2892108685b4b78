package domain

import (
	"context"

	"cpoflow/internal/core/certification"
	auditdom "cpoflow/internal/services/audit/domain"
)

// RecordsPort is patient record access: everything the workflow reads from or
// writes to the external record system
type RecordsPort interface {
	// Orders fetches the patient's order documents, server order preserved
	Orders(ctx context.Context, patientID string) ([]certification.Order, error)

	// CareNotes fetches the patient's existing documentation records
	CareNotes(ctx context.Context, patientID string) ([]CareNote, error)

	// CertificationSummary fetches diagnoses and the physician certification text
	CertificationSummary(ctx context.Context, patientID string) (CertSummary, error)

	// CreateCareNote posts one accepted entry; commit mode only
	CreateCareNote(ctx context.Context, patientID string, p NotePayload) error
}

// CompleterPort is the single text-completion operation the generative
// backend exposes. Per-call timeout lives inside the implementation
type CompleterPort interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// GeneratorPort produces candidate entries in bounded batches.
// An empty result is a soft failure: no progress, not fatal
type GeneratorPort interface {
	Generate(ctx context.Context, in GenerateInput) []Candidate
}

// ValidatorPort judges one candidate. Backend failures surface as a
// non-accepting verdict, never as an error (fail closed, no retry)
type ValidatorPort interface {
	Validate(ctx context.Context, in ValidateInput) Verdict
}

// RunnerPort is the external port for the accrual workflow
type RunnerPort interface {
	Run(ctx context.Context, in RunInput) (RunResult, error)
}

// Ports are dependencies injected into the accrual module
type Ports struct {
	Records RecordsPort           // required
	Backend CompleterPort         // required
	Audit   auditdom.RecorderPort // optional; nil disables the trail
}
