package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"
)

// writeEntity creates contexts/<etype>/<id>.yaml under root.
func writeEntity(t *testing.T, root, etype, id, content string) {
	t.Helper()
	dir := filepath.Join(root, "contexts", etype)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestContextRead(t *testing.T) {
	root := t.TempDir()
	writeEntity(t, root, "service", "billing", "name: Billing\nsummary: Handles invoices\n")

	readTool := NewContextReadTool(root)
	out, err := readTool.Execute(context.Background(), map[string]any{
		"entity_type": "service",
		"entity_id":   "billing",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var result struct {
		EntityType string         `json:"entity_type"`
		EntityID   string         `json:"entity_id"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Output not JSON: %v", err)
	}
	if result.EntityType != "service" || result.EntityID != "billing" {
		t.Errorf("Got %s/%s, want service/billing", result.EntityType, result.EntityID)
	}
	if result.Data["name"] != "Billing" {
		t.Errorf("Got name %v, want Billing", result.Data["name"])
	}
}

func TestContextRead_NotFound(t *testing.T) {
	readTool := NewContextReadTool(t.TempDir())

	_, err := readTool.Execute(context.Background(), map[string]any{
		"entity_type": "service",
		"entity_id":   "ghost",
	})
	if err == nil {
		t.Fatal("Expected error for missing entity")
	}
}

func TestContextRead_MissingArgs(t *testing.T) {
	readTool := NewContextReadTool(t.TempDir())

	_, err := readTool.Execute(context.Background(), map[string]any{"entity_type": "service"})
	if err == nil {
		t.Fatal("Expected error for missing entity_id")
	}
}

func TestContextSearch(t *testing.T) {
	root := t.TempDir()
	writeEntity(t, root, "service", "billing", "name: Billing\nsummary: Handles invoices\n")
	writeEntity(t, root, "service", "auth", "name: Auth\nsummary: Issues tokens\n")
	writeEntity(t, root, "feature", "checkout", "name: Checkout\nsummary: Invoices on purchase\n")

	searchTool := NewContextSearchTool(root)
	out, err := searchTool.Execute(context.Background(), map[string]any{"query": "invoices"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var results []map[string]any
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("Output not JSON: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Got %d results, want 2: %v", len(results), results)
	}
}

func TestContextSearch_FilterByType(t *testing.T) {
	root := t.TempDir()
	writeEntity(t, root, "service", "billing", "name: Billing\nsummary: Handles invoices\n")
	writeEntity(t, root, "feature", "checkout", "name: Checkout\nsummary: Invoices on purchase\n")

	searchTool := NewContextSearchTool(root)
	out, err := searchTool.Execute(context.Background(), map[string]any{
		"query":       "invoices",
		"entity_type": "feature",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var results []map[string]any
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("Output not JSON: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Got %d results, want 1", len(results))
	}
	if results[0]["entity_id"] != "checkout" {
		t.Errorf("Got entity %v, want checkout", results[0]["entity_id"])
	}
}

func TestContextSearch_NoMatches(t *testing.T) {
	root := t.TempDir()
	writeEntity(t, root, "service", "billing", "name: Billing\n")

	searchTool := NewContextSearchTool(root)
	out, err := searchTool.Execute(context.Background(), map[string]any{"query": "zzz-nothing"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "[]" {
		t.Errorf("Got %q, want empty JSON array", out)
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
	}
	for _, c := range cases {
		got := truncate(c.in, c.n)
		if got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", c.in, c.n)
		}
	}
}

func TestContextSearch_MissingRepo(t *testing.T) {
	searchTool := NewContextSearchTool(filepath.Join(t.TempDir(), "nope"))

	_, err := searchTool.Execute(context.Background(), map[string]any{"query": "anything"})
	if err == nil {
		t.Fatal("Expected error for missing context repository")
	}
}
