package coverage

import (
	"reflect"
	"testing"
)

func TestParseAnnotatedMarkers(t *testing.T) {
	t.Parallel()

	report := ParseAnnotated("> def f():\n!     return 1\n- # dead\n\n")
	if report.IsSentinel() {
		t.Fatal("expected line report, got sentinel")
	}

	want := []LineMark{MarkCovered, MarkNotCovered, MarkExcluded, MarkNotExecutable}
	if got := report.Marks(); !reflect.DeepEqual(got, want) {
		t.Fatalf("marks = %v, want %v", got, want)
	}

	lines := report.Lines()
	if lines[0].Text != "def f():" {
		t.Fatalf("first line text = %q", lines[0].Text)
	}
	if lines[3].Text != "" {
		t.Fatalf("blank line text = %q", lines[3].Text)
	}
}

func TestParseAnnotatedSentinel(t *testing.T) {
	t.Parallel()

	report := ParseAnnotated("WHOLE_FILE_NOT_COVERED")
	if !report.IsSentinel() {
		t.Fatal("expected sentinel report")
	}
	if len(report.Lines()) != 0 {
		t.Fatal("sentinel must not carry lines")
	}
	if report.Render() != SentinelNotCovered {
		t.Fatalf("render = %q", report.Render())
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	t.Parallel()

	reports := []Report{
		NewLineReport([]Line{
			{Mark: MarkNotExecutable, Text: "# helper module"},
			{Mark: MarkCovered, Text: "def h(x):"},
			{Mark: MarkExcluded, Text: "    if 0:  # pragma: no cover"},
			{Mark: MarkCovered, Text: "    if x == 1:"},
			{Mark: MarkNotCovered, Text: "        a = 1"},
			{Mark: MarkNotExecutable, Text: ""},
		}),
		NewLineReport(nil),
		NewLineReport([]Line{{Mark: MarkNotExecutable, Text: "# comment only"}}),
	}

	for _, report := range reports {
		parsed := ParseAnnotated(report.Render())
		if !reflect.DeepEqual(parsed.Marks(), report.Marks()) {
			t.Fatalf("round trip marks = %v, want %v", parsed.Marks(), report.Marks())
		}
	}
}

func TestRenderEmitsLineTerminatedArtifact(t *testing.T) {
	t.Parallel()

	report := NewLineReport([]Line{
		{Mark: MarkCovered, Text: "def f():"},
		{Mark: MarkNotExecutable, Text: ""},
	})
	if got := report.Render(); got != "> def f():\n\n" {
		t.Fatalf("render = %q, want every line newline-terminated", got)
	}

	if got := NewLineReport(nil).Render(); got != "" {
		t.Fatalf("empty report render = %q, want empty", got)
	}
	if lines := ParseAnnotated("").Lines(); len(lines) != 0 {
		t.Fatalf("empty artifact parsed to %d lines, want 0", len(lines))
	}
}

func TestFullyCovered(t *testing.T) {
	t.Parallel()

	covered := NewLineReport([]Line{
		{Mark: MarkCovered, Text: "def f():"},
		{Mark: MarkExcluded, Text: "    pass  # pragma: no cover"},
		{Mark: MarkNotExecutable, Text: ""},
	})
	if !covered.FullyCovered() {
		t.Fatal("report without missing lines must be fully covered")
	}

	missing := NewLineReport([]Line{{Mark: MarkNotCovered, Text: "    a = 1"}})
	if missing.FullyCovered() {
		t.Fatal("report with missing lines must not be fully covered")
	}
	if NotCovered().FullyCovered() {
		t.Fatal("sentinel must not report full coverage")
	}
}

func TestParseAnnotatedPreservesUnmarkedPrefixLines(t *testing.T) {
	t.Parallel()

	// Lines whose first two characters do not form a marker prefix are
	// reproduced verbatim as non-executable lines.
	report := ParseAnnotated(">x not a marker\n-also not\n")
	lines := report.Lines()
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	for i, want := range []string{">x not a marker", "-also not"} {
		if lines[i].Mark != MarkNotExecutable || lines[i].Text != want {
			t.Fatalf("line %d = %+v, want non-executable %q", i, lines[i], want)
		}
	}
}
