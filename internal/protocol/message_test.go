package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInitialRequest(t *testing.T) {
	t.Parallel()

	message := RenderInitialRequest("pkg/algo.py", "> def f():\n!     return 1")
	require.True(t, strings.HasPrefix(message, "ADD_TEST_FOR: pkg/algo.py\n"))
	assert.Contains(t, message, "TEST_COVERAGE: > def f():\n!     return 1\n")
}

func TestRenderRunStatusOK(t *testing.T) {
	t.Parallel()

	message := RenderRunStatus(RunStatus{
		Executed:     true,
		CoverageText: "> def f():",
	})
	assert.True(t, strings.HasPrefix(message, "TEST_RUN_STATUS: OK\n"))
	assert.NotContains(t, message, "FAILURE_MESSAGE:")
	assert.Contains(t, message, "TEST_COVERAGE:\n> def f():\n")
}

func TestRenderRunStatusFailed(t *testing.T) {
	t.Parallel()

	message := RenderRunStatus(RunStatus{
		Executed:     false,
		ErrorOutput:  "SyntaxError: invalid syntax",
		CoverageText: "WHOLE_FILE_NOT_COVERED",
	})
	assert.True(t, strings.HasPrefix(message, "TEST_RUN_STATUS: FAILED\n"))
	assert.Contains(t, message, "FAILURE_MESSAGE: SyntaxError: invalid syntax\n")
	assert.Contains(t, message, "TEST_COVERAGE:\nWHOLE_FILE_NOT_COVERED\n")
}

func TestRenderRunStatusAppendsPromptsInOrder(t *testing.T) {
	t.Parallel()

	message := RenderRunStatus(RunStatus{
		Executed:     false,
		ErrorOutput:  "assertion failed",
		CoverageText: "! a = 1",
		Prompts:      []string{PromptOneAttemptLeft, PromptCommentOutFailures},
	})
	first := strings.Index(message, PromptOneAttemptLeft)
	second := strings.Index(message, PromptCommentOutFailures)
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}
