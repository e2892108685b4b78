// Package module implements the accrual module
package module

import (
	"cpoflow/internal/modkit"
	"cpoflow/internal/services/accrual/domain"
	"cpoflow/internal/services/accrual/service"
)

// Ports exposed by the accrual module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new accrual module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("accrual"),
	}, opts...)...)

	// Basic guardrails against incorrect wiring
	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("accrual module: expected WithPorts(accrual/domain.Ports)")
	}
	if ports.Records == nil || ports.Backend == nil {
		panic("accrual module: Ports missing Records or Backend")
	}

	// Merge config + overrides
	cfg := FromConfig(deps.Cfg)
	if overrides.ThresholdMinutes != 0 {
		cfg.ThresholdMinutes = overrides.ThresholdMinutes
	}
	if overrides.MinutesPerNote != 0 {
		cfg.MinutesPerNote = overrides.MinutesPerNote
	}
	if overrides.BatchSize != 0 {
		cfg.BatchSize = overrides.BatchSize
	}
	if overrides.SnippetTokens != 0 {
		cfg.SnippetTokens = overrides.SnippetTokens
	}
	if overrides.NoteType != "" {
		cfg.NoteType = overrides.NoteType
	}
	// bool override wins (defaults false if caller didn't set)
	cfg.Commit = cfg.Commit || overrides.Commit

	runner := service.New(
		ports.Records,
		ports.Backend,
		ports.Audit,
		service.Config{
			ThresholdMinutes: cfg.ThresholdMinutes,
			MinutesPerNote:   cfg.MinutesPerNote,
			BatchSize:        cfg.BatchSize,
			SnippetTokens:    cfg.SnippetTokens,
			NoteType:         cfg.NoteType,
			Commit:           cfg.Commit,
		},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: runner}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "accrual" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
