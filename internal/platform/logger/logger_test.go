package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "cpoflow/internal/platform/testkit"
)

func TestParseLevel_AllBranches(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"panic", "panic"},
		{"", "info"},
		{"   nonsense   ", "info"},
	}
	for _, c := range cases {
		lvl := parseLevel(c.in)
		if strings.ToLower(lvl.String()) != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, lvl, c.want)
		}
	}
}

func TestInit_Get_Named_C_WithRun(t *testing.T) {
	var buf bytes.Buffer

	Init(Options{
		Level:     "info",
		Format:    "json",
		Service:   "cpoflow-test",
		Component: "root",
		Writer:    &buf,
		StaticFields: map[string]string{
			"build": "test",
		},
	})

	Get().Info().Str("k", "v").Msg("root-msg")
	Named("ledger").Info().Msg("named-msg")

	ctx := WithRun(context.Background(), "run-123", "patient-abc")
	C(ctx).Info().Msg("ctx-msg")

	out := buf.String()
	kit.MustContain(t, out, "root-msg")
	kit.MustContain(t, out, "cpoflow-test")
	kit.MustContain(t, out, `"build":"test"`)
	kit.MustContain(t, out, `"component":"ledger"`)
	kit.MustContain(t, out, `"run_id":"run-123"`)
	kit.MustContain(t, out, `"patient_id":"patient-abc"`)
}

func TestC_EmptyContextFallsBackToRoot(t *testing.T) {
	// no run fields stashed; C must still return a usable logger
	l := C(context.Background())
	if l == nil {
		t.Fatalf("C(background) returned nil")
	}
	// empty values are ignored by WithRun
	ctx := WithRun(context.Background(), "", "")
	if ctx != context.Background() {
		t.Fatalf("WithRun with empty fields should not annotate ctx")
	}
}
