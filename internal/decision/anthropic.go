package decision

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/vikram-agentic/tradex/internal/config"
)

// AnthropicEngine asks Claude for a trading decision using the agent's
// strategy prompt.
type AnthropicEngine struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

func NewAnthropicEngine(cfg config.DecisionConfig, logger *zap.Logger) (*AnthropicEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("decision: api key not configured")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicEngine{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(cfg.Model),
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

func (e *AnthropicEngine) Decide(ctx context.Context, in Input) (Decision, error) {
	if e == nil {
		return Decision{}, fmt.Errorf("decision engine not configured")
	}
	if in.Agent == nil {
		return Decision{}, fmt.Errorf("decision: nil agent")
	}

	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt(in.Agent.Strategy)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(in))),
		},
	})
	if err != nil {
		return Decision{}, fmt.Errorf("decision request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Decision{}, &ParseError{Reason: "empty model response"}
	}

	d, err := Parse(text.String())
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("unparseable decision",
				zap.String("agent_id", in.Agent.ID), zap.Error(err))
		}
		return Decision{}, err
	}
	return d, nil
}
