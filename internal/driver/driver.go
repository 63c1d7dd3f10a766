// Package driver runs the multi-file test generation loop around one shared
// agent conversation.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/covpilot/covpilot/internal/session"
)

// Conversation is the turn-taking channel handed to each file's session.
type Conversation interface {
	Send(ctx context.Context, message string) (string, error)
}

// SessionProvider acquires and releases the shared conversation resource.
//
// EnsureClean must verify no server-side session state (such as a context
// cache) is left over from another run; it is checked both before the first
// file and after the release.
type SessionProvider interface {
	EnsureClean(ctx context.Context) error
	Acquire(ctx context.Context) (Conversation, func(ctx context.Context) error, error)
}

// FileSession negotiates tests for one target file to termination.
type FileSession interface {
	Run(ctx context.Context, conv session.Responder, targetPath string) (session.Outcome, error)
}

// Driver iterates file sessions over the target list, strictly sequentially.
type Driver struct {
	sessions   SessionProvider
	controller FileSession
	logger     *log.Logger
}

// New creates a Driver with required dependencies.
func New(sessions SessionProvider, controller FileSession, logger *log.Logger) (*Driver, error) {
	if sessions == nil {
		return nil, errors.New("session provider is required")
	}
	if controller == nil {
		return nil, errors.New("file session controller is required")
	}
	return &Driver{
		sessions:   sessions,
		controller: controller,
		logger:     logger,
	}, nil
}

// Run processes every target file to termination over one shared
// conversation.
//
// The conversation resource is acquired once before the first file and
// released unconditionally, even when a file session fails; the
// no-leaked-state check runs before acquisition and again after release.
// Per-file exhaustion is a defined terminal state, not an error: only
// infrastructure failures abort the run.
func (d *Driver) Run(ctx context.Context, targets []string) error {
	if d == nil {
		return errors.New("driver is nil")
	}
	if len(targets) == 0 {
		return errors.New("no target files to process")
	}

	if err := d.sessions.EnsureClean(ctx); err != nil {
		return fmt.Errorf("pre-run session state check: %w", err)
	}

	conv, release, err := d.sessions.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire agent session: %w", err)
	}

	released := false
	defer func() {
		if !released {
			if releaseErr := release(ctx); releaseErr != nil && d.logger != nil {
				d.logger.With("error", releaseErr).Error("failed to release agent session")
			}
		}
	}()

	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}

		outcome, err := d.controller.Run(ctx, conv, target)
		if err != nil {
			return fmt.Errorf("session for %s: %w", target, err)
		}
		if d.logger != nil {
			d.logger.With(
				"target", target,
				"reason", string(outcome.Reason),
				"attempts", outcome.Attempts,
				"committed_path", outcome.CommittedPath,
			).Info("file session terminated")
		}
	}

	released = true
	if err := release(ctx); err != nil {
		return fmt.Errorf("release agent session: %w", err)
	}

	if err := d.sessions.EnsureClean(ctx); err != nil {
		return fmt.Errorf("post-run session state check: %w", err)
	}
	return nil
}
