package module

import "cpoflow/internal/platform/config"

// Options holds configuration settings for the accrual module
type Options struct {
	ThresholdMinutes int
	MinutesPerNote   int
	BatchSize        int
	SnippetTokens    int
	NoteType         string
	Commit           bool
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CPO_")
	return Options{
		ThresholdMinutes: cf.MayInt("THRESHOLD_MIN", 30),
		MinutesPerNote:   cf.MayInt("MINUTES_PER_NOTE", 3),
		BatchSize:        cf.MayInt("BATCH_SIZE", 3),
		SnippetTokens:    cf.MayInt("SNIPPET_TOKENS", 10),
		NoteType:         cf.MayString("NOTE_TYPE", "CPO"),
		Commit:           cf.MayBool("COMMIT", false),
	}
}
