// Package agent implements the bounded multi-turn tool-calling loop that
// produces one assistant response for one user message.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/logging"
	"github.com/context-kit/contextkit/internal/provider"
	"github.com/context-kit/contextkit/internal/tool"
)

const (
	// MaxIterations bounds the number of provider invocations per response.
	MaxIterations = 5
	// MaxRetries is the maximum number of retries per provider invocation.
	MaxRetries = 3
	// RetryInitialInterval is the initial interval for exponential backoff.
	RetryInitialInterval = time.Second
	// RetryMaxInterval is the maximum interval for exponential backoff.
	RetryMaxInterval = 15 * time.Second

	// EmptyReplyFallback is returned when the model produces no text.
	EmptyReplyFallback = "I couldn't process that request."
	// IterationsExhaustedReply is returned when the loop hits its bound
	// without a final text answer. Soft failure: partial tool progress may
	// already be persisted.
	IterationsExhaustedReply = "I apologize, but I reached the maximum number of tool calls without completing the task."
)

// Controller drives one request/response cycle against a model provider and
// the tool registry.
type Controller struct {
	registry *tool.Registry
}

// NewController creates a loop controller over the given tool registry.
func NewController(registry *tool.Registry) *Controller {
	return &Controller{registry: registry}
}

// Run produces one assistant response for the given user message. The
// session supplies the system prompt, history and bound tool ids. Provider
// errors propagate to the caller after bounded retries; tool errors are
// folded into the conversation and never abort the loop.
func (c *Controller) Run(ctx context.Context, prov provider.Provider, session *domain.Session, content string) (string, error) {
	tools := c.registry.GetByIDs(session.ActiveTools())
	messages := c.buildMessages(session, content, tools)
	toolInfos := provider.ToolInfos(tools)

	for iteration := 0; iteration < MaxIterations; iteration++ {
		reply, err := c.invokeWithRetry(ctx, prov, messages, toolInfos)
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			if reply.Content == "" {
				return EmptyReplyFallback, nil
			}
			return reply.Content, nil
		}

		logging.Debug().
			Str("session_id", session.ID().String()).
			Int("iteration", iteration+1).
			Int("tool_calls", len(reply.ToolCalls)).
			Msg("executing tool calls")

		messages = append(messages, reply)
		messages = append(messages, c.executeToolCalls(ctx, session, reply.ToolCalls)...)
	}

	logging.Warn().
		Str("session_id", session.ID().String()).
		Int("max_iterations", MaxIterations).
		Msg("agent loop iteration bound reached")
	return IterationsExhaustedReply, nil
}

// RunStream produces one assistant response in streaming mode, forwarding
// each text fragment to onToken as it arrives. The streaming path does not
// execute tool calls. It returns the accumulated response text.
func (c *Controller) RunStream(ctx context.Context, prov provider.Provider, session *domain.Session, content string, onToken func(index int, token string) error) (string, error) {
	tools := c.registry.GetByIDs(session.ActiveTools())
	messages := c.buildMessages(session, content, tools)

	stream, err := prov.Stream(ctx, messages)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	index := 0
	for {
		token, err := stream.Recv()
		if err != nil {
			if isEOF(err) {
				break
			}
			return "", err
		}

		sb.WriteString(token)
		if err := onToken(index, token); err != nil {
			return "", err
		}
		index++
	}

	return sb.String(), nil
}

// buildMessages assembles the ordered model message sequence: system prompt
// (with bound tool names appended), prior history, then the new user message.
func (c *Controller) buildMessages(session *domain.Session, content string, tools []tool.Tool) []*schema.Message {
	systemPrompt := session.SystemPrompt()
	if len(tools) > 0 {
		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = t.ID()
		}
		systemPrompt += "\n\nAvailable tools: " + strings.Join(names, ", ")
	}

	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}
	messages = append(messages, provider.BuildHistory(session.Messages())...)
	messages = append(messages, schema.UserMessage(content))
	return messages
}

// executeToolCalls runs each requested capability and converts its result or
// failure into a tool-result message. Unknown capability names are skipped.
func (c *Controller) executeToolCalls(ctx context.Context, session *domain.Session, calls []schema.ToolCall) []*schema.Message {
	results := make([]*schema.Message, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name

		t, ok := c.registry.Get(name)
		if !ok {
			logging.Warn().
				Str("session_id", session.ID().String()).
				Str("tool", name).
				Msg("tool not found in registry, skipping call")
			continue
		}

		args, err := parseToolArguments(call.Function.Arguments)
		if err != nil {
			results = append(results, schema.ToolMessage(
				fmt.Sprintf("Error parsing tool arguments: %s", err),
				call.ID,
			))
			continue
		}

		output, err := t.Execute(ctx, args)
		if err != nil {
			logging.Warn().
				Str("session_id", session.ID().String()).
				Str("tool", name).
				Err(err).
				Msg("tool execution failed")
			results = append(results, schema.ToolMessage(
				fmt.Sprintf("Error executing tool: %s", err),
				call.ID,
			))
			continue
		}

		results = append(results, schema.ToolMessage(output, call.ID))
	}
	return results
}

// invokeWithRetry calls the provider with exponential backoff and jitter.
// Once retries are exhausted the error propagates; the caller converts it
// into a failed task.
func (c *Controller) invokeWithRetry(ctx context.Context, prov provider.Provider, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.MaxInterval = RetryMaxInterval
	b.RandomizationFactor = 0.5

	var reply *schema.Message
	op := func() error {
		var err error
		reply, err = prov.Invoke(ctx, messages, tools)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)); err != nil {
		return nil, err
	}
	return reply, nil
}
