package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/covpilot/covpilot/internal/agent"
	"github.com/covpilot/covpilot/internal/config"
	"github.com/covpilot/covpilot/internal/coverage"
	"github.com/covpilot/covpilot/internal/doctor"
	"github.com/covpilot/covpilot/internal/driver"
	"github.com/covpilot/covpilot/internal/executor"
	"github.com/covpilot/covpilot/internal/logging"
	"github.com/covpilot/covpilot/internal/session"
	"github.com/covpilot/covpilot/internal/shell"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(ctx)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", closeErr)
		}
	}()

	cmd := newRootCommand(cfg, logger.Logger)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(cfg *config.Config, logger *log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "covpilot",
		Short:         "Automated unit test generation for Python projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	root.AddCommand(
		newRunCommand(cfg, logger),
		newDoctorCommand(cfg),
	)

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if logger == nil {
			return errors.New("logger is required")
		}
		if cfg == nil {
			return errors.New("config is required")
		}
		logger.With("command", cmd.Name()).Debug("command invocation")
		return nil
	}

	return root
}

func newRunCommand(cfg *config.Config, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate unit tests for the configured target files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validate config: %w", err)
			}
			apiKey := os.Getenv(config.APIKeyEnvVar)
			if apiKey == "" {
				return fmt.Errorf("%s environment variable is required", config.APIKeyEnvVar)
			}
			return runGeneration(cmd.Context(), cfg, apiKey, logger)
		},
	}
}

func newDoctorCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that required tools and credentials are available",
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker, err := doctor.NewChecker(cfg.PythonBin, os.Getenv(config.APIKeyEnvVar))
			if err != nil {
				return fmt.Errorf("build preflight checker: %w", err)
			}
			report, err := checker.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("run preflight checks: %w", err)
			}
			for _, check := range report.Checks {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-8s %s\n", check.Name, check.Status, check.Detail)
			}
			if !report.Healthy() {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}

func runGeneration(ctx context.Context, cfg *config.Config, apiKey string, logger *log.Logger) error {
	client, err := agent.New(ctx, apiKey, agent.Config{
		Model:           cfg.Model,
		UseContextCache: cfg.UseContextCache,
		Temperature:     float32(cfg.Temperature),
		CacheTTL:        cfg.CacheTTL,
	}, logger)
	if err != nil {
		return fmt.Errorf("build gemini client: %w", err)
	}

	runner := &shell.CommandRunner{}
	measurer, err := coverage.NewMeasurer(runner, coverage.MeasurerConfig{
		ProjectRoot:  cfg.ProjectRoot,
		TestsDir:     cfg.TestsDir,
		OmitPatterns: cfg.CoverageOmit,
	})
	if err != nil {
		return fmt.Errorf("build coverage measurer: %w", err)
	}

	actions, err := executor.New(runner, measurer, executor.Config{
		ProjectRoot: cfg.ProjectRoot,
		PythonBin:   cfg.PythonBin,
	})
	if err != nil {
		return fmt.Errorf("build executor: %w", err)
	}

	controller, err := session.New(actions, measurer, logger, session.Config{
		AttemptLimit: cfg.AttemptLimit,
	})
	if err != nil {
		return fmt.Errorf("build session controller: %w", err)
	}

	sessions, err := driver.NewGeminiSessions(client, cfg.ProjectRoot, cfg.ExcludedDirs, logger)
	if err != nil {
		return fmt.Errorf("build session provider: %w", err)
	}

	d, err := driver.New(sessions, controller, logger)
	if err != nil {
		return fmt.Errorf("build driver: %w", err)
	}

	return d.Run(ctx, cfg.Targets)
}
