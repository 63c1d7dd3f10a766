// Package executor performs the side-effecting half of the negotiation:
// writing and running generated test files and committing accepted ones.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/covpilot/covpilot/internal/coverage"
	"github.com/covpilot/covpilot/internal/protocol"
	"github.com/covpilot/covpilot/internal/shell"
)

// CoverageMeasurer re-measures coverage of the target file after a test run.
type CoverageMeasurer interface {
	Measure(ctx context.Context, path string) (coverage.Report, error)
}

// WriteOutcome is the structured result of one write-test-file execution.
type WriteOutcome struct {
	// PathRejected is set when the test file path lacks the eligibility
	// marker; no filesystem or process side effect happened.
	PathRejected bool
	// Executed reports whether the written test file ran successfully.
	Executed bool
	// ErrorOutput carries captured diagnostics when the run failed.
	ErrorOutput string
	// Coverage is the re-measured coverage of the tested file.
	Coverage coverage.Report
}

// Executor runs parsed agent commands against the real project.
type Executor struct {
	runner      shell.Runner
	measurer    CoverageMeasurer
	projectRoot string
	pythonBin   string
}

// Config configures an Executor.
type Config struct {
	ProjectRoot string
	// PythonBin is the interpreter used to run test modules. Defaults to
	// python3.
	PythonBin string
}

// New creates an Executor with required dependencies.
func New(runner shell.Runner, measurer CoverageMeasurer, cfg Config) (*Executor, error) {
	if runner == nil {
		return nil, errors.New("command runner is required")
	}
	if measurer == nil {
		return nil, errors.New("coverage measurer is required")
	}
	root := strings.TrimSpace(cfg.ProjectRoot)
	if root == "" {
		return nil, errors.New("project root is required")
	}
	python := strings.TrimSpace(cfg.PythonBin)
	if python == "" {
		python = "python3"
	}

	return &Executor{
		runner:      runner,
		measurer:    measurer,
		projectRoot: root,
		pythonBin:   python,
	}, nil
}

// WriteTest persists and executes one generated test file, then re-measures
// coverage of the tested file.
//
// The eligibility marker is checked before anything touches disk; a failing
// check yields a rejection outcome with no side effects. Overwriting an
// existing file at the same path is intentional: resends of a revised test
// land on the same path.
func (e *Executor) WriteTest(
	ctx context.Context,
	testedPath string,
	cmd protocol.WriteTestFile,
) (WriteOutcome, error) {
	if e == nil {
		return WriteOutcome{}, errors.New("executor is nil")
	}
	testedPath = strings.TrimSpace(testedPath)
	if testedPath == "" {
		return WriteOutcome{}, errors.New("tested path must not be empty")
	}
	if !protocol.PathEligible(cmd.Path) {
		return WriteOutcome{PathRejected: true}, nil
	}

	testFilePath := filepath.Join(e.projectRoot, cmd.Path)
	if err := os.WriteFile(testFilePath, []byte(cmd.Content), 0o600); err != nil {
		return WriteOutcome{}, fmt.Errorf("write test file %q: %w", cmd.Path, err)
	}

	module := moduleIdentifier(cmd.Path)
	run, err := e.runner.Run(ctx, e.projectRoot, e.pythonBin, "-m", "unittest", module)
	if err != nil {
		return WriteOutcome{}, fmt.Errorf("run test module %q: %w", module, err)
	}

	report, err := e.measurer.Measure(ctx, testedPath)
	if err != nil {
		return WriteOutcome{}, fmt.Errorf("measure coverage of %q: %w", testedPath, err)
	}

	return WriteOutcome{
		Executed:    run.ExitCode == 0,
		ErrorOutput: run.Stderr,
		Coverage:    report,
	}, nil
}

// Commit stages and commits one test file as two sequential git calls.
//
// A non-zero exit from either call is unrecoverable: once the agent asks to
// commit, version-control plumbing failing indicates environment corruption
// outside this system's recovery scope. The error is returned for the run
// to abort on, never reported back into the conversation.
func (e *Executor) Commit(ctx context.Context, cmd protocol.Commit) error {
	if e == nil {
		return errors.New("executor is nil")
	}
	path := strings.TrimSpace(cmd.Path)
	if path == "" {
		return errors.New("commit path must not be empty")
	}

	add, err := e.runner.Run(ctx, e.projectRoot, "git", "add", path)
	if err != nil {
		return fmt.Errorf("git add %s: %w", path, err)
	}
	if add.ExitCode != 0 {
		return fmt.Errorf("git add %s: exit %d (stderr: %s)", path, add.ExitCode, add.Stderr)
	}

	commit, err := e.runner.Run(ctx, e.projectRoot, "git", "commit", "-m", cmd.Message)
	if err != nil {
		return fmt.Errorf("git commit %s: %w", path, err)
	}
	if commit.ExitCode != 0 {
		return fmt.Errorf("git commit %s: exit %d (stderr: %s)", path, commit.ExitCode, commit.Stderr)
	}

	return nil
}

// moduleIdentifier derives the importable module name from a test file path,
// e.g. tests/test_gemini_foo.py -> tests.test_gemini_foo.
func moduleIdentifier(path string) string {
	module := strings.TrimSuffix(path, ".py")
	return strings.ReplaceAll(module, "/", ".")
}
