package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/covpilot/covpilot/internal/agent"
	"github.com/covpilot/covpilot/internal/discovery"
)

// GeminiSessions adapts the Gemini agent client to the SessionProvider
// contract: discovery and upload of the project sources happen at
// acquisition time, so the conversation starts with the whole project
// attached.
type GeminiSessions struct {
	client       *agent.Client
	projectRoot  string
	excludedDirs []string
	logger       *log.Logger
}

// NewGeminiSessions creates the provider rooted at projectRoot.
func NewGeminiSessions(
	client *agent.Client,
	projectRoot string,
	excludedDirs []string,
	logger *log.Logger,
) (*GeminiSessions, error) {
	if client == nil {
		return nil, errors.New("agent client is required")
	}
	root := strings.TrimSpace(projectRoot)
	if root == "" {
		return nil, errors.New("project root is required")
	}
	return &GeminiSessions{
		client:       client,
		projectRoot:  root,
		excludedDirs: excludedDirs,
		logger:       logger,
	}, nil
}

// EnsureClean verifies no server-side context cache exists.
func (g *GeminiSessions) EnsureClean(ctx context.Context) error {
	if g == nil {
		return errors.New("gemini sessions provider is nil")
	}
	return g.client.EnsureNoCaches(ctx)
}

// Acquire uploads the discovered project sources and opens the chat
// session. The returned release function closes the session and, for the
// cached variant, deletes the server-side cache.
func (g *GeminiSessions) Acquire(ctx context.Context) (Conversation, func(ctx context.Context) error, error) {
	if g == nil {
		return nil, nil, errors.New("gemini sessions provider is nil")
	}

	paths, err := discovery.SourceFiles(g.projectRoot, g.excludedDirs)
	if err != nil {
		return nil, nil, fmt.Errorf("discover source files: %w", err)
	}
	if g.logger != nil {
		g.logger.With("count", len(paths)).Info("uploading project sources")
	}

	sources, err := g.client.UploadSources(ctx, g.projectRoot, paths)
	if err != nil {
		return nil, nil, fmt.Errorf("upload project sources: %w", err)
	}

	sess, err := g.client.StartSession(ctx, sources)
	if err != nil {
		return nil, nil, fmt.Errorf("start agent session: %w", err)
	}
	return sess, sess.Close, nil
}

var _ SessionProvider = (*GeminiSessions)(nil)
