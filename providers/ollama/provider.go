// Package ollama implements the native Ollama streaming strategy. Ollama's
// /api/chat endpoint speaks newline-delimited JSON, not SSE, so the adapter
// drives a raw HTTP client instead of an OpenAI-shaped SDK.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	llm "github.com/aijson/aijson-ml"
)

const (
	defaultAPIBase = "http://localhost:11434"
	modelPrefix    = "ollama/"
)

// Provider streams chat completions from an Ollama server.
type Provider struct {
	httpClient *http.Client
	secrets    llm.SecretResolver
	log        *slog.Logger
}

func New(secrets llm.SecretResolver, log *slog.Logger) (*Provider, error) {
	return &Provider{
		// No overall timeout: streams legitimately run for minutes. Dial
		// failures still surface promptly through the transport.
		httpClient: &http.Client{Timeout: 0},
		secrets:    secrets,
		log:        log,
	}, nil
}

func (p *Provider) Name() llm.ProviderID {
	return llm.ProviderOllama
}

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []llm.ChatMessage `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  *chatOptions      `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// apiBase resolves the server address: explicit config first, then the
// OLLAMA_API_BASE secret, then the conventional local default.
func (p *Provider) apiBase(cfg llm.ModelConfig) string {
	if cfg.APIBase != "" {
		return cfg.APIBase
	}
	if base, ok := p.secrets.Get(llm.SecretOllamaAPIBase); ok {
		return base
	}
	return defaultAPIBase
}

func (p *Provider) Stream(ctx context.Context, messages []llm.ChatMessage, cfg llm.ModelConfig, _ llm.OutputSchema) (<-chan llm.StreamEvent, error) {
	body := chatRequest{
		Model:    strings.TrimPrefix(cfg.Model, modelPrefix),
		Messages: messages,
		Stream:   true,
	}
	if cfg.Temperature != nil || cfg.TopP != nil || cfg.MaxOutputTokens > 0 {
		body.Options = &chatOptions{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			NumPredict:  cfg.MaxOutputTokens,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := strings.TrimRight(p.apiBase(cfg), "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.AuthToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Connection failures are transient: the server may still be
		// starting or loading the model.
		return nil, &llm.ProviderError{
			Provider:  llm.ProviderOllama.String(),
			Message:   err.Error(),
			Retryable: true,
			Err:       llm.ErrProviderUnavailable,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &llm.ProviderError{
			Provider:   llm.ProviderOllama.String(),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(detail)),
			Retryable:  true,
			Err:        llm.ErrProviderUnavailable,
		}
	}

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)
		defer resp.Body.Close()

		// Scanner handles chunk boundaries: a JSON object split across two
		// reads is reassembled before decoding.
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk chatChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				p.log.Warn("skipping malformed stream line", "error", err)
				continue
			}

			if chunk.Message.Content != "" {
				select {
				case <-ctx.Done():
					eventChan <- llm.StreamEvent{Err: ctx.Err()}
					return
				case eventChan <- llm.StreamEvent{Delta: chunk.Message.Content}:
				}
			}

			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			eventChan <- llm.StreamEvent{Err: &llm.ProviderError{
				Provider:  llm.ProviderOllama.String(),
				Message:   err.Error(),
				Retryable: true,
				Err:       err,
			}}
		}
	}()

	return eventChan, nil
}
