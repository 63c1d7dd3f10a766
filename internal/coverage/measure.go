package coverage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/covpilot/covpilot/internal/shell"
)

const (
	defaultTestsDir     = "tests"
	annotatedSuffix     = ",cover"
	defaultOmitPatterns = "tests*,*init*,test*"
)

// MeasurerConfig configures coverage tool invocation.
type MeasurerConfig struct {
	// ProjectRoot is the directory the coverage tool runs in. Target paths
	// are interpreted relative to it.
	ProjectRoot string
	// TestsDir is the directory unittest discovery starts from.
	TestsDir string
	// OmitPatterns is the comma-separated --omit argument for the collect
	// stage.
	OmitPatterns string
}

// Measurer produces coverage reports by running the external coverage tool.
type Measurer struct {
	runner       shell.Runner
	projectRoot  string
	testsDir     string
	omitPatterns string
}

// NewMeasurer creates a Measurer over the given command runner.
func NewMeasurer(runner shell.Runner, cfg MeasurerConfig) (*Measurer, error) {
	if runner == nil {
		return nil, errors.New("command runner is required")
	}
	root := strings.TrimSpace(cfg.ProjectRoot)
	if root == "" {
		return nil, errors.New("project root is required")
	}
	testsDir := strings.TrimSpace(cfg.TestsDir)
	if testsDir == "" {
		testsDir = defaultTestsDir
	}
	omit := strings.TrimSpace(cfg.OmitPatterns)
	if omit == "" {
		omit = defaultOmitPatterns
	}

	return &Measurer{
		runner:       runner,
		projectRoot:  root,
		testsDir:     testsDir,
		omitPatterns: omit,
	}, nil
}

// Measure runs the whole-project coverage collection, then requests the
// annotated view of one file and parses it into a Report.
//
// A non-zero exit from the annotate stage means the coverage tool could not
// associate the file with any executed code; that case yields the sentinel
// report, not an error. A file with zero executable lines still yields a
// line report as long as the annotate stage succeeds.
func (m *Measurer) Measure(ctx context.Context, path string) (Report, error) {
	if m == nil {
		return Report{}, errors.New("measurer is nil")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Report{}, errors.New("target path must not be empty")
	}

	// The collect stage legitimately exits non-zero when existing tests
	// fail; annotation still works off the recorded data.
	if _, err := m.runner.Run(ctx, m.projectRoot, "coverage",
		"run", "--omit="+m.omitPatterns, "-m", "unittest", "discover", m.testsDir,
	); err != nil {
		return Report{}, fmt.Errorf("run coverage collection: %w", err)
	}

	annotate, err := m.runner.Run(ctx, m.projectRoot, "coverage", "annotate", "--include", path)
	if err != nil {
		return Report{}, fmt.Errorf("run coverage annotate for %q: %w", path, err)
	}
	if annotate.ExitCode != 0 {
		return NotCovered(), nil
	}

	artifact := filepath.Join(m.projectRoot, path+annotatedSuffix)
	// #nosec G304 -- artifact path derives from an operator-supplied target.
	data, err := os.ReadFile(artifact)
	if err != nil {
		return Report{}, fmt.Errorf("read annotated artifact %q: %w", artifact, err)
	}

	return ParseAnnotated(string(data)), nil
}
