package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ManualSearcher finds owner's-manual passages relevant to a question.
type ManualSearcher interface {
	SearchManual(ctx context.Context, vehicleModel, query string, limit int) ([]string, error)
}

// ChatConfig holds the completion parameters shared by the chat answerers.
type ChatConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

const contextPrompt = `You are an in-car assistant for a %s owner. Answer in Korean, in two or three short sentences suitable for reading aloud.
Use the manual excerpts below when they are relevant. If you do not know, say so briefly.

Manual excerpts:
%s`

const plainPrompt = `You are an in-car assistant. Answer the driver's question in Korean, in two or three short sentences suitable for reading aloud.`

var errEmptyChoices = errors.New("no choices in completion response")

// ChatAnswerer answers through the OpenAI chat completion API. With a
// manual searcher it is context-aware: it grounds the prompt in the
// vehicle model and matching manual passages.
type ChatAnswerer struct {
	name     string
	client   *openai.Client
	cfg      ChatConfig
	manuals  ManualSearcher
	snippets int
	logger   *zap.Logger
}

// NewContextAnswerer returns the model-aware retrieval answerer.
func NewContextAnswerer(client *openai.Client, cfg ChatConfig, manuals ManualSearcher, snippets int, logger *zap.Logger) *ChatAnswerer {
	return &ChatAnswerer{
		name:     "context",
		client:   client,
		cfg:      cfg,
		manuals:  manuals,
		snippets: snippets,
		logger:   logger,
	}
}

// NewPlainAnswerer returns an answerer without vehicle context.
func NewPlainAnswerer(client *openai.Client, cfg ChatConfig, logger *zap.Logger) *ChatAnswerer {
	return &ChatAnswerer{
		name:   "plain",
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

func (a *ChatAnswerer) Name() string { return a.name }

// UsesVehicleModel reports whether the prompt mentions the vehicle.
func (a *ChatAnswerer) UsesVehicleModel() bool { return a.manuals != nil }

func (a *ChatAnswerer) Answer(ctx context.Context, q Question) (string, error) {
	system := plainPrompt
	if a.manuals != nil {
		system = fmt.Sprintf(contextPrompt, q.VehicleModel, a.excerpts(ctx, q))
	}

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: q.Text,
				},
			},
			MaxTokens:   a.cfg.MaxTokens,
			Temperature: float32(a.cfg.Temperature),
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyChoices
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// excerpts never fails the answer: without manual passages the model still
// gets the vehicle name.
func (a *ChatAnswerer) excerpts(ctx context.Context, q Question) string {
	passages, err := a.manuals.SearchManual(ctx, q.VehicleModel, q.Text, a.snippets)
	if err != nil {
		a.logger.Warn("Failed to search manual",
			zap.Error(err),
			zap.String("vehicle_model", q.VehicleModel))
		return "(none)"
	}
	if len(passages) == 0 {
		return "(none)"
	}

	var b strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(p))
	}
	return b.String()
}
