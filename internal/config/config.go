// Package config loads covpilot runtime settings from TOML files.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultModel        = "gemini-1.5-pro-001"
	defaultTemperature  = 0.1
	defaultAttemptLimit = 5
	defaultTestsDir     = "tests"
	defaultPythonBin    = "python3"
	defaultCoverageOmit = "tests*,*init*,test*"
	defaultCacheTTL     = 180 * time.Minute
)

// APIKeyEnvVar names the environment variable carrying the Gemini API key.
// The key never lives in config files.
const APIKeyEnvVar = "GEMINI_API_KEY"

// Config stores runtime settings loaded from TOML files.
type Config struct {
	// Model is the Gemini model identifier. Context caching requires a
	// paid-tier model; the free tier works only with caching disabled.
	Model           string
	UseContextCache bool
	Temperature     float64
	// AttemptLimit is the per-file attempt ceiling.
	AttemptLimit int
	// ProjectRoot is the directory of the project under test.
	ProjectRoot string
	TestsDir    string
	PythonBin   string
	// CoverageOmit is the --omit pattern list for coverage collection.
	CoverageOmit string
	CacheTTL     time.Duration
	ExcludedDirs []string
	// Targets are the files to generate tests for, relative to
	// ProjectRoot.
	Targets []string
}

type fileConfig struct {
	Model           *string   `toml:"model"`
	UseContextCache *bool     `toml:"use_context_cache"`
	Temperature     *float64  `toml:"temperature"`
	AttemptLimit    *int      `toml:"attempt_limit"`
	ProjectRoot     *string   `toml:"project_root"`
	TestsDir        *string   `toml:"tests_dir"`
	PythonBin       *string   `toml:"python_bin"`
	CoverageOmit    *string   `toml:"coverage_omit"`
	CacheTTL        *string   `toml:"cache_ttl"`
	ExcludedDirs    *[]string `toml:"excluded_dirs"`
	Targets         *[]string `toml:"targets"`
}

// Load reads config from ~/.covpilot/config.toml and overlays a
// project-local .covpilot/config.toml on top of it.
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := defaults()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	paths := []string{
		filepath.Join(homeDir, ".covpilot", "config.toml"),
		filepath.Join(workingDir, ".covpilot", "config.toml"),
	}
	for _, path := range paths {
		if err := overlayFromFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Model:        defaultModel,
		Temperature:  defaultTemperature,
		AttemptLimit: defaultAttemptLimit,
		TestsDir:     defaultTestsDir,
		PythonBin:    defaultPythonBin,
		CoverageOmit: defaultCoverageOmit,
		CacheTTL:     defaultCacheTTL,
	}
}

func overlayFromFile(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config must not be nil")
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config file %q: %w", path, err)
	}

	var decoded fileConfig
	if _, err := toml.DecodeFile(path, &decoded); err != nil {
		return fmt.Errorf("decode config file %q: %w", path, err)
	}

	applyStringOverrides(cfg, decoded)
	if err := applyBoundedOverrides(cfg, decoded, path); err != nil {
		return err
	}
	if decoded.UseContextCache != nil {
		cfg.UseContextCache = *decoded.UseContextCache
	}
	if decoded.ExcludedDirs != nil {
		cfg.ExcludedDirs = append([]string(nil), (*decoded.ExcludedDirs)...)
	}
	if decoded.Targets != nil {
		cfg.Targets = append([]string(nil), (*decoded.Targets)...)
	}
	return nil
}

func applyStringOverrides(cfg *Config, decoded fileConfig) {
	if decoded.Model != nil {
		cfg.Model = strings.TrimSpace(*decoded.Model)
	}
	if decoded.ProjectRoot != nil {
		cfg.ProjectRoot = strings.TrimSpace(*decoded.ProjectRoot)
	}
	if decoded.TestsDir != nil {
		cfg.TestsDir = strings.TrimSpace(*decoded.TestsDir)
	}
	if decoded.PythonBin != nil {
		cfg.PythonBin = strings.TrimSpace(*decoded.PythonBin)
	}
	if decoded.CoverageOmit != nil {
		cfg.CoverageOmit = strings.TrimSpace(*decoded.CoverageOmit)
	}
}

func applyBoundedOverrides(cfg *Config, decoded fileConfig, path string) error {
	if decoded.Temperature != nil {
		if *decoded.Temperature < 0 {
			return fmt.Errorf("parse temperature in %q: must be >= 0", path)
		}
		cfg.Temperature = *decoded.Temperature
	}
	if decoded.AttemptLimit != nil {
		if *decoded.AttemptLimit <= 0 {
			return fmt.Errorf("parse attempt_limit in %q: must be > 0", path)
		}
		cfg.AttemptLimit = *decoded.AttemptLimit
	}
	if decoded.CacheTTL != nil {
		parsed, err := time.ParseDuration(*decoded.CacheTTL)
		if err != nil {
			return fmt.Errorf("parse cache_ttl in %q: %w", path, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("parse cache_ttl in %q: must be positive", path)
		}
		cfg.CacheTTL = parsed
	}
	return nil
}

// Validate checks the settings a run cannot proceed without.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if strings.TrimSpace(c.ProjectRoot) == "" {
		return errors.New("project_root must not be empty")
	}
	if c.AttemptLimit <= 0 {
		return errors.New("attempt_limit must be positive")
	}
	if len(c.Targets) == 0 {
		return errors.New("targets must not be empty")
	}
	return nil
}
