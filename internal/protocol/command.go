// Package protocol defines the line-oriented textual grammar exchanged with
// the test-generating agent: the two inbound commands and the outbound
// status messages.
package protocol

import (
	"regexp"
	"strings"
)

const (
	// EligibilityMarker must appear in every generated test file path. It
	// distinguishes agent-authored tests from hand-written ones.
	EligibilityMarker = "test_gemini_"

	// KeywordWriteTestFile opens the write-test-file command block.
	KeywordWriteTestFile = "WRITE_TEST_FILE:"
	// KeywordEndTestFile terminates the test file content.
	KeywordEndTestFile = "END_TEST_FILE"
	// KeywordCommit opens the commit command block.
	KeywordCommit = "COMMIT:"
	// KeywordEndCommitMessage terminates the commit message.
	KeywordEndCommitMessage = "END_COMMIT_MESSAGE"
)

// CommandKind discriminates the decoded interpretations of one agent reply.
type CommandKind string

const (
	// KindWriteTestFile is a well-formed write-test-file command.
	KindWriteTestFile CommandKind = "write_test_file"
	// KindCommit is a well-formed commit command.
	KindCommit CommandKind = "commit"
	// KindAmbiguous means the reply matched both command forms at once.
	KindAmbiguous CommandKind = "ambiguous"
	// KindNeither means no command form matched.
	KindNeither CommandKind = "neither"
)

// WriteTestFile asks for a test file to be written and executed.
type WriteTestFile struct {
	Path    string
	Content string
}

// Commit asks for a previously validated test file to be committed.
type Commit struct {
	Path    string
	Message string
}

// Command is the decoded interpretation of one agent reply. Exactly one of
// Write and Commit is populated when Kind names that variant; both are nil
// for KindAmbiguous and KindNeither.
type Command struct {
	Kind   CommandKind
	Write  *WriteTestFile
	Commit *Commit
}

// The body captures are non-greedy so that the block ends at the first
// terminator line and trailing agent commentary is never absorbed into file
// content or commit messages. Surrounding prose is permitted and discarded.
var (
	writeTestFilePattern = regexp.MustCompile(
		`(?s)(?:^|\n)WRITE_TEST_FILE:[ \t]+(\S+)\n(.+?)\nEND_TEST_FILE`)
	commitPattern = regexp.MustCompile(
		`(?s)(?:^|\n)COMMIT:[ \t]+(\S*test_gemini_\S*)\n(.+?)\nEND_COMMIT_MESSAGE`)
)

// Decode parses an agent reply into exactly one interpretation. It is total:
// every input yields one of the four kinds and never an error.
//
// A reply matching both command forms decodes to KindAmbiguous; the caller
// must treat that as a protocol violation rather than pick a side. The
// commit pattern enforces the eligibility marker; the write pattern does
// not, so that an ineligible write path can be reported as its own
// rejection downstream.
func Decode(reply string) Command {
	writeMatch := writeTestFilePattern.FindStringSubmatch(reply)
	commitMatch := commitPattern.FindStringSubmatch(reply)

	switch {
	case writeMatch != nil && commitMatch != nil:
		return Command{Kind: KindAmbiguous}
	case writeMatch != nil:
		return Command{
			Kind:  KindWriteTestFile,
			Write: &WriteTestFile{Path: writeMatch[1], Content: writeMatch[2]},
		}
	case commitMatch != nil:
		return Command{
			Kind:   KindCommit,
			Commit: &Commit{Path: commitMatch[1], Message: commitMatch[2]},
		}
	default:
		return Command{Kind: KindNeither}
	}
}

// PathEligible reports whether a generated test file path carries the
// required eligibility marker.
func PathEligible(path string) bool {
	return strings.Contains(path, EligibilityMarker)
}
