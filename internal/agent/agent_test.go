package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/provider"
	"github.com/context-kit/contextkit/internal/tool"
)

// stubProvider scripts provider replies. Once the script is exhausted the
// last reply repeats.
type stubProvider struct {
	replies      []*schema.Message
	err          error
	streamChunks []*schema.Message
	calls        int
	seen         [][]*schema.Message
}

func (p *stubProvider) Invoke(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	p.calls++
	p.seen = append(p.seen, messages)
	if p.err != nil {
		return nil, p.err
	}
	i := p.calls - 1
	if i >= len(p.replies) {
		i = len(p.replies) - 1
	}
	return p.replies[i], nil
}

func (p *stubProvider) Stream(ctx context.Context, messages []*schema.Message) (*provider.TokenStream, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return provider.NewTokenStream(schema.StreamReaderFromArray(p.streamChunks)), nil
}

func textReply(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

func toolCallReply(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       "call-1",
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func loopSession(t *testing.T, activeTools ...string) *domain.Session {
	t.Helper()
	cfg, err := domain.NewProviderConfig(domain.ProviderOllama, "http://localhost:11434", "llama3.1", 0.7)
	require.NoError(t, err)
	return domain.NewSession("user-1", cfg, "", activeTools)
}

func echoRegistry(t *testing.T, executed *[]map[string]any) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	r.Register(tool.NewBaseTool("echo", "Echoes its input",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
		func(ctx context.Context, args map[string]any) (string, error) {
			if executed != nil {
				*executed = append(*executed, args)
			}
			return "echoed", nil
		},
	))
	return r
}

func TestRun_DirectTextReply(t *testing.T) {
	prov := &stubProvider{replies: []*schema.Message{textReply("Stub response")}}
	c := NewController(tool.NewRegistry())

	text, err := c.Run(context.Background(), prov, loopSession(t), "Hello there")
	require.NoError(t, err)
	assert.Equal(t, "Stub response", text)
	assert.Equal(t, 1, prov.calls)
}

func TestRun_EmptyReplyFallback(t *testing.T) {
	prov := &stubProvider{replies: []*schema.Message{textReply("")}}
	c := NewController(tool.NewRegistry())

	text, err := c.Run(context.Background(), prov, loopSession(t), "Hello")
	require.NoError(t, err)
	assert.Equal(t, EmptyReplyFallback, text)
}

func TestRun_ToolCallThenText(t *testing.T) {
	var executed []map[string]any
	registry := echoRegistry(t, &executed)

	prov := &stubProvider{replies: []*schema.Message{
		toolCallReply("echo", `{"text":"hi"}`),
		textReply("final answer"),
	}}
	c := NewController(registry)

	text, err := c.Run(context.Background(), prov, loopSession(t, "echo"), "use the tool")
	require.NoError(t, err)
	assert.Equal(t, "final answer", text)
	assert.Equal(t, 2, prov.calls)

	require.Len(t, executed, 1)
	assert.Equal(t, "hi", executed[0]["text"])

	// Second invocation must include the assistant tool-call turn and the
	// tool result.
	second := prov.seen[1]
	require.GreaterOrEqual(t, len(second), 4)
	last := second[len(second)-1]
	assert.Equal(t, schema.Tool, last.Role)
	assert.Equal(t, "echoed", last.Content)
}

func TestRun_IterationBound(t *testing.T) {
	registry := echoRegistry(t, nil)

	// The model keeps requesting tools and never produces a final answer.
	prov := &stubProvider{replies: []*schema.Message{toolCallReply("echo", `{"text":"again"}`)}}
	c := NewController(registry)

	text, err := c.Run(context.Background(), prov, loopSession(t, "echo"), "loop forever")
	require.NoError(t, err)
	assert.Equal(t, IterationsExhaustedReply, text)
	assert.Equal(t, MaxIterations, prov.calls)
}

func TestRun_UnknownToolSkipped(t *testing.T) {
	prov := &stubProvider{replies: []*schema.Message{
		toolCallReply("vanished", `{}`),
		textReply("recovered"),
	}}
	c := NewController(tool.NewRegistry())

	text, err := c.Run(context.Background(), prov, loopSession(t, "vanished"), "call it")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 2, prov.calls)
}

func TestRun_ToolErrorFoldedIntoConversation(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.NewBaseTool("broken", "Always fails",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("disk on fire")
		},
	))

	prov := &stubProvider{replies: []*schema.Message{
		toolCallReply("broken", `{}`),
		textReply("handled"),
	}}
	c := NewController(r)

	text, err := c.Run(context.Background(), prov, loopSession(t, "broken"), "try it")
	require.NoError(t, err)
	assert.Equal(t, "handled", text)

	second := prov.seen[1]
	last := second[len(second)-1]
	assert.Equal(t, schema.Tool, last.Role)
	assert.Contains(t, last.Content, "disk on fire")
}

func TestRun_MalformedToolArguments(t *testing.T) {
	registry := echoRegistry(t, nil)

	prov := &stubProvider{replies: []*schema.Message{
		toolCallReply("echo", `{broken json`),
		textReply("moved on"),
	}}
	c := NewController(registry)

	text, err := c.Run(context.Background(), prov, loopSession(t, "echo"), "go")
	require.NoError(t, err)
	assert.Equal(t, "moved on", text)

	second := prov.seen[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, "Error parsing tool arguments")
}

func TestRun_ProviderErrorPropagates(t *testing.T) {
	// Permanent errors skip the backoff schedule, keeping the test fast.
	prov := &stubProvider{err: backoff.Permanent(errors.New("provider down"))}
	c := NewController(tool.NewRegistry())

	_, err := c.Run(context.Background(), prov, loopSession(t), "Hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestRun_SystemPromptListsBoundTools(t *testing.T) {
	registry := echoRegistry(t, nil)
	prov := &stubProvider{replies: []*schema.Message{textReply("ok")}}
	c := NewController(registry)

	_, err := c.Run(context.Background(), prov, loopSession(t, "echo"), "Hello")
	require.NoError(t, err)

	first := prov.seen[0]
	require.NotEmpty(t, first)
	assert.Equal(t, schema.System, first[0].Role)
	assert.Contains(t, first[0].Content, "Available tools: echo")
}

func TestRun_HistoryPrecedesNewMessage(t *testing.T) {
	session := loopSession(t)
	session.AddMessage(domain.NewUserMessage("earlier question", nil))
	session.AddMessage(domain.NewAssistantMessage("earlier answer"))

	prov := &stubProvider{replies: []*schema.Message{textReply("ok")}}
	c := NewController(tool.NewRegistry())

	_, err := c.Run(context.Background(), prov, session, "new question")
	require.NoError(t, err)

	msgs := prov.seen[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "earlier question", msgs[1].Content)
	assert.Equal(t, "earlier answer", msgs[2].Content)
	assert.Equal(t, "new question", msgs[3].Content)
}

func TestRunStream_TokensInOrder(t *testing.T) {
	prov := &stubProvider{streamChunks: []*schema.Message{
		{Role: schema.Assistant, Content: "Hel"},
		{Role: schema.Assistant, Content: ""},
		{Role: schema.Assistant, Content: "lo"},
	}}
	c := NewController(tool.NewRegistry())

	var tokens []string
	var indexes []int
	text, err := c.RunStream(context.Background(), prov, loopSession(t), "Hi", func(index int, token string) error {
		indexes = append(indexes, index)
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", text)
	assert.Equal(t, []string{"Hel", "lo"}, tokens)
	assert.Equal(t, []int{0, 1}, indexes)
}

func TestRunStream_CallbackErrorAborts(t *testing.T) {
	prov := &stubProvider{streamChunks: []*schema.Message{
		{Role: schema.Assistant, Content: "a"},
		{Role: schema.Assistant, Content: "b"},
	}}
	c := NewController(tool.NewRegistry())

	wantErr := errors.New("consumer gone")
	_, err := c.RunStream(context.Background(), prov, loopSession(t), "Hi", func(index int, token string) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestParseToolArguments(t *testing.T) {
	args, err := parseToolArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = parseToolArguments(`{"a":1}`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, args["a"])

	_, err = parseToolArguments(`{broken`)
	assert.Error(t, err)
}
