// Package openrouter implements the chat-completion client backed by an
// OpenAI-compatible API (OpenRouter by default).
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Client implements domain.ChatCompleter over the chat completions endpoint.
//
// Retry policy: up to the configured attempt count with 2s, 4s, ... delays.
// Only rate-limit (429), unavailable (503 and other 5xx) and transport
// timeouts are retried; any other failure or malformed response is permanent
// so the caller can fall back immediately.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a chat client with a sensible timeout and traced transport.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request and returns the message content.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}

	body := map[string]any{
		"model":       c.cfg.OpenRouterModel,
		"temperature": temperature,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	var out chatResponse
	endpoint := strings.TrimRight(c.cfg.OpenRouterBaseURL, "/") + "/chat/completions"

	op := func() error {
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openrouter", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("openrouter", "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			// Transport errors (incl. timeouts) are retryable.
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			slog.Warn("ai provider throttled", slog.String("provider", "openrouter"), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			snippet := string(bodyBytes)
			if len(snippet) > 512 {
				snippet = snippet[:512]
			}
			slog.Warn("ai provider 4xx", slog.String("provider", "openrouter"), slog.Int("status", resp.StatusCode), slog.String("body", snippet))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			slog.Error("ai provider non-2xx", slog.String("provider", "openrouter"), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			// Malformed response: non-retryable, caller falls back.
			return backoff.Permanent(fmt.Errorf("chat decode: %w", err))
		}
		return nil
	}

	attempts, baseDelay := c.cfg.GetProviderRetry()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = baseDelay
	expo.Multiplier = 2.0
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)

	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("op=openrouter.Complete: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=openrouter.Complete: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
