package service

import (
	"context"
	"fmt"
	"strings"

	"cpoflow/internal/platform/logger"
	"cpoflow/internal/services/accrual/domain"
)

const (
	validateTemperature = 0.0
	validateMaxTokens   = 300
)

const validateSystem = "You are a clinical documentation auditor. " +
	"Judge whether a care coordination entry is plausible, clinically consistent with the patient's context, " +
	"and appropriate for the stated documentation category. " +
	"Reply with exactly one line starting with VALID or INVALID, optionally followed by a colon and a short reason."

// Validator judges candidate entries with the generative backend
type Validator struct {
	Backend domain.CompleterPort
	log     logger.Logger
}

// NewValidator constructs a Validator
func NewValidator(backend domain.CompleterPort) *Validator {
	return &Validator{Backend: backend, log: *logger.Named("validator")}
}

// Validate judges one candidate. No retry: a backend failure rejects the
// candidate so nothing unverified is ever credited
func (v *Validator) Validate(ctx context.Context, in domain.ValidateInput) domain.Verdict {
	raw, err := v.Backend.Complete(ctx, validateSystem, validatePrompt(in), validateTemperature, validateMaxTokens)
	if err != nil {
		v.log.Warn().Err(err).Str("title", in.Title).Msg("validation call failed, rejecting candidate")
		return domain.Verdict("INVALID: validation backend error")
	}
	return domain.Verdict(strings.TrimSpace(raw))
}

func validatePrompt(in domain.ValidateInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Documentation category: %s\n", in.Category)
	fmt.Fprintf(&b, "Entry title: %s\n", in.Title)
	fmt.Fprintf(&b, "Entry text: %s\n\n", in.Text)

	if len(in.Diagnoses) > 0 {
		b.WriteString("Patient diagnoses:\n")
		for _, d := range in.Diagnoses {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}
	if in.CertificationStatement != "" {
		fmt.Fprintf(&b, "Physician certification: %s\n\n", in.CertificationStatement)
	}

	b.WriteString("Is this entry valid for the category and consistent with the patient context? " +
		"Answer VALID or INVALID with an optional reason after a colon.")

	return b.String()
}
