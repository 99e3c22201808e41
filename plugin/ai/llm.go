// Package ai provides the language-model provider boundary: a synchronous
// completion client and an embedding client over any OpenAI-compatible API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrProviderUnavailable is returned for any provider failure once retries
// are exhausted. Callers treat every provider exception uniformly and must
// never surface the underlying error text to end users.
var ErrProviderUnavailable = errors.New("provider unavailable")

// CompletionRequest describes one synchronous completion call.
type CompletionRequest struct {
	Model       string
	System      string // optional system instruction
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// CompletionService is the language-model provider interface.
type CompletionService interface {
	// Complete performs a synchronous completion and returns the text.
	// Any failure is reported as an error wrapping ErrProviderUnavailable.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Ready reports whether the service has usable credentials.
	Ready() bool
}

type completionService struct {
	client     *openai.Client
	maxRetries int
	timeout    time.Duration
	ready      bool
}

// NewCompletionService creates a CompletionService from config.
// With a disabled or credential-less config the service is constructed in a
// not-ready state: calls fail with ErrProviderUnavailable, startup does not.
func NewCompletionService(cfg *Config) CompletionService {
	svc := &completionService{
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
	}
	if svc.maxRetries <= 0 {
		svc.maxRetries = 3
	}
	if svc.timeout <= 0 {
		svc.timeout = 30 * time.Second
	}

	if err := cfg.Validate(); err != nil || !cfg.Enabled {
		if err != nil {
			slog.Warn("completion service degraded to not-ready", "error", err)
		}
		return svc
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	svc.client = openai.NewClientWithConfig(clientConfig)
	svc.ready = true
	return svc
}

func (s *completionService) Ready() bool {
	return s.ready
}

func (s *completionService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !s.ready {
		return "", ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	var result string
	err := s.doWithRetry(ctx, func() error {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       req.Model,
			Messages:    messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		slog.Error("completion request failed", "model", req.Model, "error", err)
		return "", fmt.Errorf("%w: completion failed", ErrProviderUnavailable)
	}

	return result, nil
}

// doWithRetry executes a function with exponential backoff retry.
func (s *completionService) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < s.maxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("AI request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
