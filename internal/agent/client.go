// Package agent wraps the Gemini API behind the opaque turn-taking
// conversation the session controller consumes: file upload, chat session
// acquisition with optional server-side context caching, and the cache
// hygiene checks guarding the run.
package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

const (
	cacheDisplayName = "covpilot-test-generator"
	pythonMIMEType   = "text/x-python"

	defaultModel       = "gemini-1.5-pro-001"
	defaultTemperature = float32(0.1)
	defaultCacheTTL    = 180 * time.Minute
)

// Config selects the model and conversation behavior for one run.
type Config struct {
	// Model is the Gemini model identifier.
	Model string
	// UseContextCache selects the cached conversation variant. The cached
	// variant needs a paid-tier model; the free tier rejects cache
	// creation.
	UseContextCache bool
	// Temperature is the generation temperature.
	Temperature float32
	// CacheTTL bounds the server-side cache lifetime.
	CacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = defaultModel
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	return c
}

// cachedContentConfig describes the server-side cache for the cached
// variant: system prompt and sources live in the cache, not the chat.
func (c Config) cachedContentConfig(sources []*genai.Content) *genai.CreateCachedContentConfig {
	return &genai.CreateCachedContentConfig{
		DisplayName:       cacheDisplayName,
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Contents:          sources,
		TTL:               c.CacheTTL,
	}
}

// chatConfigOverCache configures a chat that reads its context from an
// existing cache.
func (c Config) chatConfigOverCache(cacheName string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		CachedContent: cacheName,
		Temperature:   genai.Ptr(c.Temperature),
	}
}

// uncachedChatConfig configures a chat that carries the system prompt
// inline; the sources travel as chat history instead of a cache.
func (c Config) uncachedChatConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.Temperature),
	}
}

// Client owns the Gemini API connection for one run.
type Client struct {
	gc     *genai.Client
	cfg    Config
	logger *log.Logger
}

// New creates a Client against the Gemini API. The API key is required;
// a missing key is an infrastructure fatal condition, not something the
// conversation can recover from.
func New(ctx context.Context, apiKey string, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		gc:     gc,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}, nil
}

// EnsureNoCaches fails when any server-side context cache exists. It guards
// both ends of the run against cache state leaked by earlier runs.
func (c *Client) EnsureNoCaches(ctx context.Context) error {
	if c == nil {
		return errors.New("client is nil")
	}

	page, err := c.gc.Caches.List(ctx, &genai.ListCachedContentsConfig{})
	if err != nil {
		return fmt.Errorf("list cached contents: %w", err)
	}
	if len(page.Items) > 0 {
		names := make([]string, 0, len(page.Items))
		for _, cached := range page.Items {
			names = append(names, cached.Name)
		}
		return fmt.Errorf("active context caches found (should not happen): %s", strings.Join(names, ", "))
	}
	return nil
}

// UploadSources registers project source files with the agent's file store
// and returns content parts referencing them, in input order.
func (c *Client) UploadSources(ctx context.Context, root string, paths []string) ([]*genai.Content, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	if len(paths) == 0 {
		return nil, errors.New("no source files to upload")
	}

	contents := make([]*genai.Content, 0, len(paths))
	for _, path := range paths {
		file, err := c.gc.Files.UploadFromPath(ctx, filepath.Join(root, path), &genai.UploadFileConfig{
			DisplayName: path,
			MIMEType:    pythonMIMEType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload source file %q: %w", path, err)
		}
		if c.logger != nil {
			c.logger.With("path", path, "uri", file.URI).Debug("source file uploaded")
		}
		contents = append(contents, genai.NewContentFromParts(
			[]*genai.Part{genai.NewPartFromURI(file.URI, file.MIMEType)},
			genai.RoleUser,
		))
	}
	return contents, nil
}

// StartSession opens the conversation over the uploaded sources, selecting
// the cached or uncached variant once per the configuration.
func (c *Client) StartSession(ctx context.Context, sources []*genai.Content) (Session, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}

	if c.cfg.UseContextCache {
		return c.startCachedSession(ctx, sources)
	}
	return c.startUncachedSession(ctx, sources)
}

func (c *Client) startCachedSession(ctx context.Context, sources []*genai.Content) (Session, error) {
	cache, err := c.gc.Caches.Create(ctx, c.cfg.Model, c.cfg.cachedContentConfig(sources))
	if err != nil {
		return nil, fmt.Errorf("create context cache: %w", err)
	}

	chat, err := c.gc.Chats.Create(ctx, c.cfg.Model, c.cfg.chatConfigOverCache(cache.Name), nil)
	if err != nil {
		// The cache exists server-side at this point; release it rather
		// than leak it into the next run's precondition check.
		if _, deleteErr := c.gc.Caches.Delete(ctx, cache.Name, &genai.DeleteCachedContentConfig{}); deleteErr != nil && c.logger != nil {
			c.logger.With("cache", cache.Name, "error", deleteErr).Error("failed to delete context cache")
		}
		return nil, fmt.Errorf("create chat over cache %q: %w", cache.Name, err)
	}

	return &cachedSession{
		chat:      chat,
		client:    c.gc,
		cacheName: cache.Name,
		logger:    c.logger,
	}, nil
}

func (c *Client) startUncachedSession(ctx context.Context, sources []*genai.Content) (Session, error) {
	chat, err := c.gc.Chats.Create(ctx, c.cfg.Model, c.cfg.uncachedChatConfig(), sources)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &uncachedSession{chat: chat}, nil
}
