package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/context-kit/contextkit/internal/domain"
)

// einoProvider adapts an Eino chat model to the Provider interface.
type einoProvider struct {
	chatModel model.ToolCallingChatModel
	config    domain.ProviderConfig
}

// Invoke performs one completion. Tools, when given, are bound for this call
// only.
func (p *einoProvider) Invoke(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	chatModel := p.chatModel
	if len(tools) > 0 {
		var err error
		chatModel, err = chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("bind tools: %w", err)
		}
	}

	reply, err := chatModel.Generate(ctx, messages, p.callOptions()...)
	if err != nil {
		return nil, fmt.Errorf("model invocation: %w", err)
	}
	return reply, nil
}

// Stream performs a streaming completion without tool binding; the streaming
// path does not execute tool calls.
func (p *einoProvider) Stream(ctx context.Context, messages []*schema.Message) (*TokenStream, error) {
	reader, err := p.chatModel.Stream(ctx, messages, p.callOptions()...)
	if err != nil {
		return nil, fmt.Errorf("model stream: %w", err)
	}
	return NewTokenStream(reader), nil
}

func (p *einoProvider) callOptions() []model.Option {
	// Temperature is always set: 0.0 is a valid, deterministic setting and
	// must not fall back to the server default.
	opts := []model.Option{
		model.WithTemperature(float32(p.config.Temperature())),
	}
	if n := p.config.MaxTokens(); n > 0 {
		opts = append(opts, model.WithMaxTokens(n))
	}
	return opts
}
