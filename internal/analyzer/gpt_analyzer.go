package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/tonebuddy/internal/prompt"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.2
)

type GPTAnalyzer struct {
	client      *openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewGPTAnalyzer creates an analyzer backed by an OpenAI-compatible API.
// An empty baseURL selects the public OpenAI endpoint.
func NewGPTAnalyzer(apiKey, baseURL, model string, temperature float64, logger *zap.Logger) *GPTAnalyzer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
	}
	cfg.HTTPClient = &http.Client{Transport: &errorBodyTransport{next: http.DefaultTransport}}

	return &GPTAnalyzer{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

func (a *GPTAnalyzer) Analyze(ctx context.Context, text string) (*Analysis, error) {
	ctx, rawErr := withErrorBody(ctx)
	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: prompt.SystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt.BuildUserPrompt(text),
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: float32(a.temperature),
		},
	)
	if err != nil {
		a.logger.Error("Failed to get completion", zap.Error(err), zap.String("model", a.model))
		return nil, providerError(err, rawErr.get())
	}

	a.logger.Debug("Completion received",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	analysis, err := decode([]byte(content))
	if err != nil {
		a.logger.Error("Failed to parse completion",
			zap.Error(err),
			zap.String("response", content))
		return nil, err
	}

	return analysis, nil
}

// providerError keeps the provider status and its raw error body when the
// client reports an HTTP failure; transport errors are only wrapped. When the
// raw body was not captured the body is rebuilt from the decoded error.
func providerError(err error, raw []byte) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		body := raw
		if len(body) == 0 {
			var marshalErr error
			body, marshalErr = json.Marshal(map[string]*openai.APIError{"error": apiErr})
			if marshalErr != nil {
				body = []byte(apiErr.Message)
			}
		}
		return &ProviderError{StatusCode: relayStatus(apiErr.HTTPStatusCode), Body: string(body)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := string(raw)
		if body == "" {
			body = string(reqErr.Body)
		}
		if body == "" {
			body = reqErr.Error()
		}
		return &ProviderError{StatusCode: relayStatus(reqErr.HTTPStatusCode), Body: body}
	}

	return fmt.Errorf("chat completion: %w", err)
}

func relayStatus(code int) int {
	if code < http.StatusBadRequest {
		return http.StatusBadGateway
	}
	return code
}
