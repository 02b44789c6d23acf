package ai

import (
	"context"
	"log/slog"

	"github.com/myrjola/blackwood/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// ErrBackendUnavailable signals that the inference backend could not complete
// a request. Timeouts are treated identically.
var ErrBackendUnavailable = errors.NewSentinel("inference backend unavailable")

const MaxTokens = 1024

// Message is one chat message sent to the backend.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = openai.ChatMessageRoleSystem
	RoleUser   = openai.ChatMessageRoleUser
)

// Request is a single completion request: instructions, history, and sampling
// parameters.
type Request struct {
	Model       string
	Temperature float32
	Messages    []Message
}

// Completer is the inference boundary. The responder, filter, and judge issue
// one request per invocation through it, which keeps them testable with a
// substitute backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client calls the OpenAI chat completion API.
type Client struct {
	client *openai.Client
	logger *slog.Logger
}

func NewClient(apiKey string, logger *slog.Logger) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		logger: logger.With("source", "ai.Client"),
	}
}

// Complete issues one chat completion and returns the generated text. All
// transport and API failures map to ErrBackendUnavailable.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{ //nolint:exhaustruct // this is better for readability
			Role:    m.Role,
			Content: m.Content,
		}
	}

	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:       req.Model,
			MaxTokens:   MaxTokens,
			Temperature: req.Temperature,
			Messages:    messages,
		},
	)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "chat completion failed",
			slog.String("model", req.Model), errors.SlogError(err))
		return "", errors.Wrap(ErrBackendUnavailable, "create chat completion", slog.String("model", req.Model))
	}
	if len(completion.Choices) == 0 {
		return "", errors.Wrap(ErrBackendUnavailable, "empty completion", slog.String("model", req.Model))
	}
	return completion.Choices[0].Message.Content, nil
}
