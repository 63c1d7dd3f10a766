package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

// Session is one long-lived conversation with the agent. A single session
// spans every target file in a run; release it through Close exactly once,
// after the last file.
type Session interface {
	Send(ctx context.Context, message string) (string, error)
	Close(ctx context.Context) error
}

type cachedSession struct {
	chat      *genai.Chat
	client    *genai.Client
	cacheName string
	logger    *log.Logger
}

func (s *cachedSession) Send(ctx context.Context, message string) (string, error) {
	return sendMessage(ctx, s.chat, message)
}

// Close deletes the server-side context cache. Skipping this leaks the
// cache into the next run's precondition check.
func (s *cachedSession) Close(ctx context.Context) error {
	if _, err := s.client.Caches.Delete(ctx, s.cacheName, &genai.DeleteCachedContentConfig{}); err != nil {
		return fmt.Errorf("delete context cache %q: %w", s.cacheName, err)
	}
	if s.logger != nil {
		s.logger.With("cache", s.cacheName).Debug("context cache released")
	}
	return nil
}

type uncachedSession struct {
	chat *genai.Chat
}

func (s *uncachedSession) Send(ctx context.Context, message string) (string, error) {
	return sendMessage(ctx, s.chat, message)
}

func (s *uncachedSession) Close(context.Context) error {
	return nil
}

func sendMessage(ctx context.Context, chat *genai.Chat, message string) (string, error) {
	if chat == nil {
		return "", errors.New("chat is not initialized")
	}

	response, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("send chat message: %w", err)
	}

	text := response.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty agent reply")
	}
	return text, nil
}
