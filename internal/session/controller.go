// Package session drives the bounded per-file negotiation between the
// coverage-measured project state and the test-generating agent.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/covpilot/covpilot/internal/coverage"
	"github.com/covpilot/covpilot/internal/executor"
	"github.com/covpilot/covpilot/internal/protocol"
)

// DefaultAttemptLimit bounds exchanges per target file.
const DefaultAttemptLimit = 5

// TerminationReason is a deterministic reason enum for session termination.
type TerminationReason string

const (
	// TerminationCommitted means the agent committed an accepted test file.
	TerminationCommitted TerminationReason = "Committed"
	// TerminationAttemptsExhausted means the attempt ceiling was reached
	// without a commit. Whatever was last written stays on disk uncommitted.
	TerminationAttemptsExhausted TerminationReason = "AttemptsExhausted"
)

// Responder is one turn-taking conversation with the agent service.
type Responder interface {
	Send(ctx context.Context, message string) (string, error)
}

// Actions executes parsed agent commands against the project.
type Actions interface {
	WriteTest(ctx context.Context, testedPath string, cmd protocol.WriteTestFile) (executor.WriteOutcome, error)
	Commit(ctx context.Context, cmd protocol.Commit) error
}

// Measurer produces the initial coverage report for a target file.
type Measurer interface {
	Measure(ctx context.Context, path string) (coverage.Report, error)
}

// Outcome summarizes one terminated file session.
type Outcome struct {
	Reason        TerminationReason
	Attempts      int
	CommittedPath string
}

// Config configures controller runtime behavior.
type Config struct {
	// AttemptLimit is the hard attempt ceiling. Defaults to
	// DefaultAttemptLimit when zero or negative.
	AttemptLimit int
}

// Controller is the per-file retry state machine. One Controller serves the
// whole run; per-file state lives inside Run.
type Controller struct {
	actions      Actions
	measurer     Measurer
	logger       *log.Logger
	attemptLimit int
}

// New creates a Controller with required dependencies.
func New(actions Actions, measurer Measurer, logger *log.Logger, cfg Config) (*Controller, error) {
	if actions == nil {
		return nil, errors.New("actions are required")
	}
	if measurer == nil {
		return nil, errors.New("measurer is required")
	}

	limit := cfg.AttemptLimit
	if limit <= 0 {
		limit = DefaultAttemptLimit
	}

	return &Controller{
		actions:      actions,
		measurer:     measurer,
		logger:       logger,
		attemptLimit: limit,
	}, nil
}

// Run negotiates tests for one target file until commit or exhaustion.
//
// Every loop iteration consumes one attempt, protocol violations included;
// there is no free retry. A successful commit is the only successful exit.
// Errors are reserved for infrastructure failures that abort the whole run.
func (c *Controller) Run(ctx context.Context, conv Responder, targetPath string) (Outcome, error) {
	if c == nil {
		return Outcome{}, errors.New("controller is nil")
	}
	if conv == nil {
		return Outcome{}, errors.New("conversation is required")
	}
	targetPath = strings.TrimSpace(targetPath)
	if targetPath == "" {
		return Outcome{}, errors.New("target path must not be empty")
	}

	initial, err := c.measurer.Measure(ctx, targetPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("measure initial coverage of %s: %w", targetPath, err)
	}

	message := protocol.RenderInitialRequest(targetPath, initial.Render())
	lastValidatedPath := ""

	for attempt := 0; attempt < c.attemptLimit; attempt++ {
		c.logTurn(targetPath, attempt, "outbound", message)
		reply, err := conv.Send(ctx, message)
		if err != nil {
			return Outcome{}, fmt.Errorf("send attempt %d for %s: %w", attempt, targetPath, err)
		}
		c.logTurn(targetPath, attempt, "inbound", reply)

		cmd := protocol.Decode(reply)
		switch cmd.Kind {
		case protocol.KindAmbiguous:
			message = protocol.CorrectionAmbiguous

		case protocol.KindNeither:
			message = protocol.CorrectionUnrecognized

		case protocol.KindWriteTestFile:
			outcome, err := c.actions.WriteTest(ctx, targetPath, *cmd.Write)
			if err != nil {
				return Outcome{}, fmt.Errorf("execute write for %s: %w", targetPath, err)
			}
			if outcome.PathRejected {
				message = protocol.CorrectionIneligiblePath
				continue
			}
			if outcome.Executed {
				lastValidatedPath = cmd.Write.Path
			}
			message = protocol.RenderRunStatus(protocol.RunStatus{
				Executed:     outcome.Executed,
				ErrorOutput:  outcome.ErrorOutput,
				CoverageText: outcome.Coverage.Render(),
				Prompts:      c.escalationPrompts(attempt, outcome),
			})

		case protocol.KindCommit:
			if cmd.Commit.Path != lastValidatedPath {
				message = protocol.CorrectionCommitUnknownPath
				continue
			}
			if err := c.actions.Commit(ctx, *cmd.Commit); err != nil {
				return Outcome{}, fmt.Errorf("commit %s: %w", cmd.Commit.Path, err)
			}
			return Outcome{
				Reason:        TerminationCommitted,
				Attempts:      attempt + 1,
				CommittedPath: cmd.Commit.Path,
			}, nil
		}
	}

	return Outcome{
		Reason:   TerminationAttemptsExhausted,
		Attempts: c.attemptLimit,
	}, nil
}

// escalationPrompts returns the warnings injected near the attempt ceiling.
// They attach to write-attempt status messages only, since PROMPT is defined
// on that message form.
func (c *Controller) escalationPrompts(attempt int, outcome executor.WriteOutcome) []string {
	var prompts []string
	if attempt == c.attemptLimit-3 {
		prompts = append(prompts, protocol.PromptOneAttemptLeft)
		if !outcome.Executed {
			prompts = append(prompts, protocol.PromptCommentOutFailures)
		}
	}
	if attempt == c.attemptLimit-2 {
		prompts = append(prompts, protocol.PromptLastAttempt)
	}
	return prompts
}

const maxLoggedMessageBytes = 2048

func (c *Controller) logTurn(targetPath string, attempt int, direction string, text string) {
	if c.logger == nil {
		return
	}
	c.logger.With(
		"target", targetPath,
		"attempt", attempt,
		"direction", direction,
		"message", truncate(text, maxLoggedMessageBytes),
	).Info("conversation turn")
}

// truncate cuts text to at most limit bytes without splitting a UTF-8 rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "...[truncated]"
}
