// Package coverage renders and parses per-line test coverage reports and
// drives the external coverage tool that produces them.
package coverage

import (
	"fmt"
	"strings"
)

// SentinelNotCovered is the rendered form of a report for a file that no
// executed test exercises at all.
const SentinelNotCovered = "WHOLE_FILE_NOT_COVERED"

// LineMark classifies one source line in an annotated coverage report.
type LineMark string

const (
	// MarkCovered marks a line executed by at least one test.
	MarkCovered LineMark = "covered"
	// MarkNotCovered marks an executable line no test reached.
	MarkNotCovered LineMark = "not_covered"
	// MarkExcluded marks a line explicitly excluded from measurement.
	MarkExcluded LineMark = "excluded"
	// MarkNotExecutable marks a line with no executable code, such as a
	// blank line or a comment.
	MarkNotExecutable LineMark = "not_executable"
)

// Line pairs one source line with its coverage classification.
type Line struct {
	Mark LineMark
	Text string
}

// Report is either the whole-file-not-covered sentinel or an ordered
// per-line annotation of the target file. The two forms are mutually
// exclusive; construct reports through NotCovered and NewLineReport.
type Report struct {
	sentinel bool
	lines    []Line
}

// NotCovered returns the sentinel report.
func NotCovered() Report {
	return Report{sentinel: true}
}

// NewLineReport returns a report over the given annotated lines.
func NewLineReport(lines []Line) Report {
	copied := make([]Line, len(lines))
	copy(copied, lines)
	return Report{lines: copied}
}

// IsSentinel reports whether the report is the whole-file-not-covered form.
func (r Report) IsSentinel() bool {
	return r.sentinel
}

// Lines returns the annotated lines in file order. Empty for the sentinel.
func (r Report) Lines() []Line {
	copied := make([]Line, len(r.lines))
	copy(copied, r.lines)
	return copied
}

// Marks returns the ordered line classifications. Empty for the sentinel.
func (r Report) Marks() []LineMark {
	marks := make([]LineMark, 0, len(r.lines))
	for _, line := range r.lines {
		marks = append(marks, line.Mark)
	}
	return marks
}

// FullyCovered reports whether no executable line is missing coverage.
func (r Report) FullyCovered() bool {
	if r.sentinel {
		return false
	}
	for _, line := range r.lines {
		if line.Mark == MarkNotCovered {
			return false
		}
	}
	return true
}

// Render emits the textual annotated form: one newline-terminated line per
// source line with a marker prefix, or the sentinel token. Non-executable
// lines are reproduced in their original form with no marker. The
// line-terminated shape matches the artifact the coverage tool writes, so
// ParseAnnotated inverts Render exactly; a zero-line report renders empty.
func (r Report) Render() string {
	if r.sentinel {
		return SentinelNotCovered
	}
	var sb strings.Builder
	for _, line := range r.lines {
		sb.WriteString(renderLine(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderLine(line Line) string {
	switch line.Mark {
	case MarkCovered:
		return "> " + line.Text
	case MarkNotCovered:
		return "! " + line.Text
	case MarkExcluded:
		return "- " + line.Text
	default:
		return line.Text
	}
}

// ParseAnnotated decodes the annotated artifact produced by the coverage
// tool (or a previously rendered report) into a line report. Line order and
// text are preserved; the terminating newline of each artifact line does not
// introduce an extra empty line, so an empty artifact decodes to a zero-line
// report.
func ParseAnnotated(text string) Report {
	if strings.TrimSpace(text) == SentinelNotCovered {
		return NotCovered()
	}
	if text == "" {
		return NewLineReport(nil)
	}

	raw := strings.Split(text, "\n")
	if len(raw) > 0 && strings.HasSuffix(text, "\n") {
		raw = raw[:len(raw)-1]
	}

	lines := make([]Line, 0, len(raw))
	for _, entry := range raw {
		lines = append(lines, parseLine(entry))
	}
	return NewLineReport(lines)
}

func parseLine(entry string) Line {
	if len(entry) >= 2 && entry[1] == ' ' {
		switch entry[0] {
		case '>':
			return Line{Mark: MarkCovered, Text: entry[2:]}
		case '!':
			return Line{Mark: MarkNotCovered, Text: entry[2:]}
		case '-':
			return Line{Mark: MarkExcluded, Text: entry[2:]}
		}
	}
	return Line{Mark: MarkNotExecutable, Text: entry}
}

// String implements fmt.Stringer for log output.
func (r Report) String() string {
	if r.sentinel {
		return SentinelNotCovered
	}
	return fmt.Sprintf("line report (%d lines)", len(r.lines))
}
