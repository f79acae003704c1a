package tool

import (
	"context"
	"encoding/json"
	"testing"
)

func newMockTool(id, description string) *BaseTool {
	return NewBaseTool(id, description,
		json.RawMessage(`{"type": "object", "properties": {}}`),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "mock result", nil
		},
	)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	registry.Register(newMockTool("test.tool", "A test tool"))

	got, ok := registry.Get("test.tool")
	if !ok {
		t.Fatal("Tool not found")
	}
	if got.ID() != "test.tool" {
		t.Errorf("Got tool ID %q, want 'test.tool'", got.ID())
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Get("nonexistent")
	if ok {
		t.Error("Expected tool not to be found")
	}
}

func TestRegistry_RegisterReplacesByID(t *testing.T) {
	registry := NewRegistry()

	registry.Register(newMockTool("test.tool", "first"))
	registry.Register(newMockTool("test.tool", "second"))

	got, _ := registry.Get("test.tool")
	if got.Description() != "second" {
		t.Errorf("Got description %q, want 'second'", got.Description())
	}
	if len(registry.List()) != 1 {
		t.Errorf("Got %d tools, want 1", len(registry.List()))
	}
}

func TestRegistry_GetByIDsDropsUnknown(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newMockTool("a", "a"))
	registry.Register(newMockTool("b", "b"))

	tools := registry.GetByIDs([]string{"a", "gone", "b"})
	if len(tools) != 2 {
		t.Fatalf("Got %d tools, want 2", len(tools))
	}
	if tools[0].ID() != "a" || tools[1].ID() != "b" {
		t.Errorf("Got ids %q, %q; want 'a', 'b'", tools[0].ID(), tools[1].ID())
	}
}

func TestRegistry_ListPreservesRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newMockTool("c", ""))
	registry.Register(newMockTool("a", ""))
	registry.Register(newMockTool("b", ""))

	want := []string{"c", "a", "b"}
	got := registry.IDs()
	if len(got) != len(want) {
		t.Fatalf("Got %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry(t.TempDir())

	for _, id := range []string{
		"context.read", "context.search",
		"pipeline.validate", "pipeline.build-graph", "pipeline.impact", "pipeline.generate",
	} {
		if _, ok := registry.Get(id); !ok {
			t.Errorf("Built-in tool %q not registered", id)
		}
	}
}
