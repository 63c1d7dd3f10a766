package protocol

import (
	"strings"
	"testing"
)

func TestDecodeWriteTestFile(t *testing.T) {
	t.Parallel()

	reply := "WRITE_TEST_FILE: tests/test_gemini_foo.py\nclass C: pass\nEND_TEST_FILE\nLooks good."
	cmd := Decode(reply)
	if cmd.Kind != KindWriteTestFile {
		t.Fatalf("kind = %q, want %q", cmd.Kind, KindWriteTestFile)
	}
	if cmd.Write.Path != "tests/test_gemini_foo.py" {
		t.Fatalf("path = %q", cmd.Write.Path)
	}
	if cmd.Write.Content != "class C: pass" {
		t.Fatalf("content = %q", cmd.Write.Content)
	}
}

func TestDecodeWriteTestFileWithSurroundingProse(t *testing.T) {
	t.Parallel()

	reply := strings.Join([]string{
		"I will add tests for the uncovered branch.",
		"",
		"WRITE_TEST_FILE: tests/test_gemini_quick_sort.py",
		"import unittest",
		"",
		"class QuickSortGeminiTest(unittest.TestCase):",
		"    def test_gemini_empty(self):",
		"        self.assertEqual([], quick_sort([]))",
		"END_TEST_FILE",
		"This covers the empty-list case.",
	}, "\n")

	cmd := Decode(reply)
	if cmd.Kind != KindWriteTestFile {
		t.Fatalf("kind = %q", cmd.Kind)
	}
	if strings.Contains(cmd.Write.Content, "covers the empty-list case") {
		t.Fatalf("trailing commentary absorbed into content: %q", cmd.Write.Content)
	}
	if !strings.Contains(cmd.Write.Content, "def test_gemini_empty(self):") {
		t.Fatalf("content missing test body: %q", cmd.Write.Content)
	}
	if !strings.Contains(cmd.Write.Content, "\n\n") {
		t.Fatal("internal blank line must be preserved")
	}
}

func TestDecodeBodyStopsAtFirstTerminator(t *testing.T) {
	t.Parallel()

	reply := "WRITE_TEST_FILE: tests/test_gemini_a.py\nline one\nEND_TEST_FILE\nmore text\nEND_TEST_FILE"
	cmd := Decode(reply)
	if cmd.Kind != KindWriteTestFile {
		t.Fatalf("kind = %q", cmd.Kind)
	}
	if cmd.Write.Content != "line one" {
		t.Fatalf("content = %q, want shortest match to first terminator", cmd.Write.Content)
	}
}

func TestDecodeCommit(t *testing.T) {
	t.Parallel()

	reply := strings.Join([]string{
		"COMMIT: tests/test_gemini_foo.py",
		"Gemini: Add tests for foo",
		"",
		"The test was generated automatically.",
		"END_COMMIT_MESSAGE",
	}, "\n")

	cmd := Decode(reply)
	if cmd.Kind != KindCommit {
		t.Fatalf("kind = %q", cmd.Kind)
	}
	if cmd.Commit.Path != "tests/test_gemini_foo.py" {
		t.Fatalf("path = %q", cmd.Commit.Path)
	}
	if !strings.HasPrefix(cmd.Commit.Message, "Gemini: Add tests for foo") {
		t.Fatalf("message = %q", cmd.Commit.Message)
	}
	if strings.Contains(cmd.Commit.Message, "END_COMMIT_MESSAGE") {
		t.Fatal("terminator absorbed into commit message")
	}
}

func TestDecodeCommitRequiresMarkerInPath(t *testing.T) {
	t.Parallel()

	reply := "COMMIT: tests/helper.py\nGemini: Add tests\nEND_COMMIT_MESSAGE"
	if cmd := Decode(reply); cmd.Kind != KindNeither {
		t.Fatalf("kind = %q, want %q", cmd.Kind, KindNeither)
	}
}

func TestDecodeAmbiguous(t *testing.T) {
	t.Parallel()

	reply := strings.Join([]string{
		"WRITE_TEST_FILE: tests/test_gemini_a.py",
		"class A: pass",
		"END_TEST_FILE",
		"COMMIT: tests/test_gemini_a.py",
		"Gemini: Add tests",
		"END_COMMIT_MESSAGE",
	}, "\n")

	cmd := Decode(reply)
	if cmd.Kind != KindAmbiguous {
		t.Fatalf("kind = %q, want %q", cmd.Kind, KindAmbiguous)
	}
	if cmd.Write != nil || cmd.Commit != nil {
		t.Fatal("ambiguous decode must not carry a command payload")
	}
}

func TestDecodeTotality(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"hello there",
		"WRITE_TEST_FILE:",
		"WRITE_TEST_FILE: path with no body",
		"WRITE_TEST_FILE: a.py\nbody without terminator",
		"COMMIT: tests/test_gemini_a.py",
		"a mention of the WRITE_TEST_FILE: keyword mid-line\nEND_TEST_FILE",
		strings.Repeat("x\n", 500),
	}
	for _, input := range inputs {
		cmd := Decode(input)
		switch cmd.Kind {
		case KindWriteTestFile, KindCommit, KindAmbiguous, KindNeither:
		default:
			t.Fatalf("decode(%q) yielded unknown kind %q", input, cmd.Kind)
		}
	}
}

func TestDecodeIneligibleWritePathStillParses(t *testing.T) {
	t.Parallel()

	// The write pattern does not enforce the marker; the executor reports
	// that rejection separately so the agent gets a specific correction.
	reply := "WRITE_TEST_FILE: tests/helper.py\nclass C: pass\nEND_TEST_FILE"
	cmd := Decode(reply)
	if cmd.Kind != KindWriteTestFile {
		t.Fatalf("kind = %q", cmd.Kind)
	}
	if PathEligible(cmd.Write.Path) {
		t.Fatal("helper.py must not be eligible")
	}
}

func TestPathEligible(t *testing.T) {
	t.Parallel()

	if !PathEligible("tests/test_gemini_quick_sort.py") {
		t.Fatal("marker path must be eligible")
	}
	if PathEligible("tests/test_quick_sort.py") {
		t.Fatal("unmarked path must not be eligible")
	}
}
