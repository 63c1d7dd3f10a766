// Package doctor runs preflight checks for the tools a generation run needs.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CheckStatus is the deterministic outcome of one preflight check.
type CheckStatus string

const (
	StatusOK      CheckStatus = "ok"
	StatusMissing CheckStatus = "missing"
)

// Check is one preflight check result.
type Check struct {
	Name   string
	Status CheckStatus
	Detail string
}

// Report aggregates all preflight check results.
type Report struct {
	Checks []Check
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	for _, check := range r.Checks {
		if check.Status != StatusOK {
			return false
		}
	}
	return true
}

// Checker verifies the binaries and credentials covpilot depends on.
type Checker struct {
	pythonBin string
	apiKey    string
	lookPath  func(string) (string, error)
}

// NewChecker builds a Checker. The API key is checked for presence only
// and never logged or echoed.
func NewChecker(pythonBin, apiKey string) (*Checker, error) {
	if strings.TrimSpace(pythonBin) == "" {
		return nil, errors.New("python binary name is required")
	}
	return &Checker{
		pythonBin: strings.TrimSpace(pythonBin),
		apiKey:    apiKey,
		lookPath:  exec.LookPath,
	}, nil
}

// Run executes all preflight checks and returns the aggregate report.
func (c *Checker) Run(ctx context.Context) (Report, error) {
	if c == nil {
		return Report{}, errors.New("checker is nil")
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{
		Checks: []Check{
			c.checkBinary("git"),
			c.checkBinary(c.pythonBin),
			c.checkBinary("coverage"),
			c.checkAPIKey(),
		},
	}
	return report, nil
}

func (c *Checker) checkBinary(name string) Check {
	path, err := c.lookPath(name)
	if err != nil {
		return Check{
			Name:   name,
			Status: StatusMissing,
			Detail: fmt.Sprintf("%s not found on PATH", name),
		}
	}
	return Check{Name: name, Status: StatusOK, Detail: path}
}

func (c *Checker) checkAPIKey() Check {
	if strings.TrimSpace(c.apiKey) == "" {
		return Check{
			Name:   "gemini api key",
			Status: StatusMissing,
			Detail: "GEMINI_API_KEY environment variable is empty",
		}
	}
	return Check{Name: "gemini api key", Status: StatusOK, Detail: "present"}
}
