package protocol

import "strings"

// Outbound message field keywords.
const (
	KeywordAddTestFor     = "ADD_TEST_FOR:"
	KeywordTestCoverage   = "TEST_COVERAGE:"
	KeywordTestRunStatus  = "TEST_RUN_STATUS:"
	KeywordFailureMessage = "FAILURE_MESSAGE:"
	KeywordPrompt         = "PROMPT:"

	statusOK     = "OK"
	statusFailed = "FAILED"
)

// Corrective messages sent back on protocol violations. Each consumes one
// attempt like any other turn.
const (
	CorrectionAmbiguous = "ERROR: You cannot send WRITE_TEST_FILE and COMMIT " +
		"commands in a single message. Always first send the WRITE_TEST_FILE " +
		"command alone and once the file is ready send the COMMIT command alone."
	CorrectionIneligiblePath = "ERROR: test file names must start with the " +
		"test_gemini_ prefix"
	CorrectionUnrecognized = "Unrecognized command, try again"
	CorrectionCommitUnknownPath = "ERROR: COMMIT must name the test file from " +
		"your last successful WRITE_TEST_FILE command"
)

// Escalation prompts appended near the attempt ceiling.
const (
	PromptOneAttemptLeft = "PROMPT: you have one more test creation attempt left. " +
		"After the next attempt you need to COMMIT the test.\n"
	PromptCommentOutFailures = "If the test assertions are still failing, please " +
		"comment out the failing assertions and add a comment in the code for " +
		"the humans to review them.\n"
	PromptLastAttempt = "PROMPT: this was your last attempt to create this test " +
		"file, if the test works please COMMIT it now.\n"
)

// RenderInitialRequest builds the opening message for one target file.
func RenderInitialRequest(path string, coverageText string) string {
	var sb strings.Builder
	sb.WriteString(KeywordAddTestFor + " " + path + "\n")
	sb.WriteString(KeywordTestCoverage + " ")
	writeTerminated(&sb, coverageText)
	return sb.String()
}

// writeTerminated appends text with exactly one trailing newline. Coverage
// reports arrive already newline-terminated; the sentinel does not.
func writeTerminated(sb *strings.Builder, text string) {
	sb.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
}

// RunStatus describes one executed write-test-file attempt for rendering.
type RunStatus struct {
	Executed     bool
	ErrorOutput  string
	CoverageText string
	// Prompts holds escalation texts appended verbatim after the coverage
	// block, in order.
	Prompts []string
}

// RenderRunStatus builds the status message that follows a write attempt.
func RenderRunStatus(status RunStatus) string {
	var sb strings.Builder
	if status.Executed {
		sb.WriteString(KeywordTestRunStatus + " " + statusOK + "\n")
	} else {
		sb.WriteString(KeywordTestRunStatus + " " + statusFailed + "\n")
		sb.WriteString(KeywordFailureMessage + " " + status.ErrorOutput + "\n")
	}
	sb.WriteString(KeywordTestCoverage + "\n")
	writeTerminated(&sb, status.CoverageText)
	for _, prompt := range status.Prompts {
		sb.WriteString(prompt)
	}
	return sb.String()
}
