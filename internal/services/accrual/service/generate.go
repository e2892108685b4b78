// Package service implements the accrual workflow
package service

import (
	"context"
	"fmt"
	"strings"

	"cpoflow/internal/core/noteparse"
	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/platform/logger"
	"cpoflow/internal/services/accrual/domain"
)

const (
	generateTemperature = 0.7
	generateMaxTokens   = 600
	maxPromptDiagnoses  = 5
)

const generateSystem = "You are a clinical documentation assistant for a home health agency. " +
	"You write short, factual care coordination entries on behalf of the overseeing physician's office. " +
	"Each entry documents one discrete oversight activity."

// Generator produces candidate entries from the generative backend
type Generator struct {
	Backend domain.CompleterPort
	log     logger.Logger
}

// NewGenerator constructs a Generator
func NewGenerator(backend domain.CompleterPort) *Generator {
	return &Generator{Backend: backend, log: *logger.Named("generator")}
}

// Generate requests one batch of candidates. A backend failure after the
// single timeout retry yields an empty batch rather than an error: the loop
// treats no candidates as no progress
func (g *Generator) Generate(ctx context.Context, in domain.GenerateInput) []domain.Candidate {
	if in.Count <= 0 {
		return nil
	}
	user := generatePrompt(in)

	raw, err := g.Backend.Complete(ctx, generateSystem, user, generateTemperature, generateMaxTokens)
	if err != nil && perr.IsTimeout(err) {
		g.log.Warn().Err(err).Msg("generation timed out, retrying once")
		raw, err = g.Backend.Complete(ctx, generateSystem, user, generateTemperature, generateMaxTokens)
	}
	if err != nil {
		g.log.Warn().Err(err).Msg("generation failed, returning empty batch")
		return nil
	}

	entries := noteparse.Parse(raw, in.Count)
	out := make([]domain.Candidate, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Candidate{Title: e.Title, Text: e.Text})
	}
	g.log.Debug().Int("requested", in.Count).Int("parsed", len(out)).Msg("generation batch parsed")
	return out
}

// generatePrompt embeds the prompt-relevant clinical context: at most five
// diagnosis codes plus the physician certification statement
func generatePrompt(in domain.GenerateInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write %d distinct care plan oversight entries for a home health patient.\n\n", in.Count)

	diags := in.Diagnoses
	if len(diags) > maxPromptDiagnoses {
		diags = diags[:maxPromptDiagnoses]
	}
	if len(diags) > 0 {
		b.WriteString("Active diagnoses:\n")
		for _, d := range diags {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}
	if in.CertificationStatement != "" {
		fmt.Fprintf(&b, "Physician certification: %s\n\n", in.CertificationStatement)
	}

	b.WriteString("Format each entry as:\n")
	b.WriteString("NoteTitle: <short activity title>\n")
	b.WriteString("NoteText: <one or two factual sentences>\n\n")
	b.WriteString("Separate entries with a blank line. Each entry must describe a different activity. " +
		"Do not number the entries and do not add commentary.")

	return b.String()
}
