// Package ai proxies community questions to a generative model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/isdelr/simplecomm-be/internal/config"
	"github.com/isdelr/simplecomm-be/internal/metrics"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// DefaultCommunityName is used in the prompt when no community is given.
const DefaultCommunityName = "Umum"

// Answerer answers a question in the voice of a community admin.
type Answerer interface {
	Ask(ctx context.Context, question, communityName string) (string, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
	enabled bool
}

// NewClient creates a Client from configuration. A client without an API key
// is still usable; every call fails with ErrMissingAPIKey.
func NewClient(cfg config.AIConfig, httpClient *http.Client) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		api:     openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
		enabled: strings.TrimSpace(cfg.APIKey) != "",
	}
}

// Prompt builds the fixed admin persona prompt.
func Prompt(question, communityName string) string {
	name := strings.TrimSpace(communityName)
	if name == "" {
		name = DefaultCommunityName
	}
	return fmt.Sprintf("Kamu adalah admin komunitas \"%s\". Jawab pertanyaan ini dengan santai, singkat (max 2 kalimat), dan bahasa Indonesia gaul: \"%s\"", name, question)
}

// Ask sends the question and returns the model's text answer.
func (c *Client) Ask(ctx context.Context, question, communityName string) (string, error) {
	if !c.enabled {
		metrics.AIRequests.WithLabelValues("no_key").Inc()
		return "", ErrMissingAPIKey
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(Prompt(question, communityName)),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		err = classify(err)
		metrics.AIRequests.WithLabelValues(outcome(err)).Inc()
		log.Error().Err(err).Str("model", c.model).Msg("AI request failed")
		return "", err
	}
	if len(completion.Choices) == 0 {
		metrics.AIRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	metrics.AIRequests.WithLabelValues("ok").Inc()
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	default:
		return "error"
	}
}
