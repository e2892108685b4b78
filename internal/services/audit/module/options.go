package module

import "cpoflow/internal/platform/config"

// Options holds configuration settings for the audit module
type Options struct {
	DBPath   string
	Disabled bool
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	af := cfg.Prefix("AUDIT_")
	return Options{
		DBPath:   af.MayString("DB_PATH", "cpoflow-audit.db"),
		Disabled: af.MayBool("DISABLED", false),
	}
}
