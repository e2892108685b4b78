package service

import (
	"context"
	"strings"
	"testing"

	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/services/accrual/domain"
)

// scriptedCompleter replays (reply, err) pairs in order
type scriptedCompleter struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *scriptedCompleter) Complete(_ context.Context, _, user string, _ float64, _ int) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, user)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return reply, err
}

const twoNotes = "NoteTitle: Medication review\n" +
	"NoteText: Reviewed the current medication list with the agency nurse.\n\n" +
	"NoteTitle: Lab follow up\n" +
	"NoteText: Reviewed pending lab results and adjusted the care plan."

func TestGenerate_ParsesBatch(t *testing.T) {
	t.Parallel()

	fc := &scriptedCompleter{replies: []string{twoNotes}}
	g := NewGenerator(fc)

	got := g.Generate(context.Background(), domain.GenerateInput{
		Diagnoses:              []string{"I10", "E11.9"},
		CertificationStatement: "I certify this patient is under my care.",
		Count:                  2,
	})

	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	if got[0].Title != "Medication review" {
		t.Fatalf("title = %q", got[0].Title)
	}
	if fc.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", fc.calls)
	}
}

func TestGenerate_PromptEmbedsContext(t *testing.T) {
	t.Parallel()

	fc := &scriptedCompleter{replies: []string{twoNotes}}
	g := NewGenerator(fc)

	g.Generate(context.Background(), domain.GenerateInput{
		Diagnoses:              []string{"I10", "E11.9", "N18.3", "I48.0", "J44.1", "M81.0"},
		CertificationStatement: "I certify this patient is under my care.",
		Count:                  2,
	})

	p := fc.prompts[0]
	for _, code := range []string{"I10", "E11.9", "N18.3", "I48.0", "J44.1"} {
		if !strings.Contains(p, code) {
			t.Fatalf("prompt missing diagnosis %s", code)
		}
	}
	if strings.Contains(p, "M81.0") {
		t.Fatal("prompt includes sixth diagnosis, want at most five")
	}
	if !strings.Contains(p, "I certify this patient is under my care.") {
		t.Fatal("prompt missing certification statement")
	}
}

func TestGenerate_RetriesOnceOnTimeout(t *testing.T) {
	t.Parallel()

	fc := &scriptedCompleter{
		errs:    []error{perr.BackendTimeoutf("deadline"), nil},
		replies: []string{"", twoNotes},
	}
	g := NewGenerator(fc)

	got := g.Generate(context.Background(), domain.GenerateInput{Count: 2})

	if fc.calls != 2 {
		t.Fatalf("backend calls = %d, want 2 (one retry)", fc.calls)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
}

func TestGenerate_SecondTimeoutSoftFails(t *testing.T) {
	t.Parallel()

	fc := &scriptedCompleter{
		errs: []error{perr.BackendTimeoutf("deadline"), perr.BackendTimeoutf("deadline")},
	}
	g := NewGenerator(fc)

	got := g.Generate(context.Background(), domain.GenerateInput{Count: 3})

	if fc.calls != 2 {
		t.Fatalf("backend calls = %d, want 2", fc.calls)
	}
	if got != nil {
		t.Fatalf("candidates = %v, want nil", got)
	}
}

func TestGenerate_NonTimeoutFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	fc := &scriptedCompleter{errs: []error{perr.Backendf("503")}}
	g := NewGenerator(fc)

	got := g.Generate(context.Background(), domain.GenerateInput{Count: 3})

	if fc.calls != 1 {
		t.Fatalf("backend calls = %d, want 1 (no retry for non-timeout)", fc.calls)
	}
	if got != nil {
		t.Fatalf("candidates = %v, want nil", got)
	}
}

func TestValidate_AcceptsValidPrefix(t *testing.T) {
	t.Parallel()

	fc := &scriptedCompleter{replies: []string{"VALID: title matches text"}}
	v := NewValidator(fc)

	verdict := v.Validate(context.Background(), domain.ValidateInput{Category: "CPO", Title: "t", Text: "x"})

	if !verdict.Accepted() {
		t.Fatalf("verdict %q not accepted", verdict)
	}
	if verdict.Reason() != "title matches text" {
		t.Fatalf("reason = %q", verdict.Reason())
	}
}

func TestValidate_BackendFailureRejects(t *testing.T) {
	t.Parallel()

	fc := &scriptedCompleter{errs: []error{perr.Backendf("boom")}}
	v := NewValidator(fc)

	verdict := v.Validate(context.Background(), domain.ValidateInput{Category: "CPO"})

	if verdict.Accepted() {
		t.Fatalf("verdict %q accepted despite backend failure", verdict)
	}
	if fc.calls != 1 {
		t.Fatalf("backend calls = %d, want 1 (no retry)", fc.calls)
	}
}
