// Package module implements the audit module
package module

import (
	"cpoflow/internal/modkit"
	"cpoflow/internal/services/audit/domain"
	"cpoflow/internal/services/audit/repo"
)

// Ports exposed by the audit module
type Ports struct {
	Recorder domain.RecorderPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the audit module from config. A disabled trail still yields
// a working (noop) recorder so callers never nil-check
func New(deps modkit.Deps) *Module {
	cfg := FromConfig(deps.Cfg)

	m := &Module{deps: deps}
	if cfg.Disabled {
		m.ports = Ports{Recorder: repo.Noop{}}
		return m
	}

	rec, err := repo.Open(cfg.DBPath)
	if err != nil {
		deps.Log.Warn().Err(err).Str("path", cfg.DBPath).Msg("audit db unavailable; trail disabled")
		m.ports = Ports{Recorder: repo.Noop{}}
		return m
	}
	m.ports = Ports{Recorder: rec}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "audit" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
