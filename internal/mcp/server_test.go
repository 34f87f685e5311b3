package mcp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/engramkit/engram/internal/model"
)

func TestRegistryNamesMatchDefinitions(t *testing.T) {
	if len(toolRegistry) != 19 {
		t.Errorf("expected 19 registered tools, got %d", len(toolRegistry))
	}
	admin := 0
	for name, entry := range toolRegistry {
		if entry.def.Name != name {
			t.Errorf("registry key %q does not match definition name %q", name, entry.def.Name)
		}
		if entry.handler == nil {
			t.Errorf("tool %q has no handler factory", name)
		}
		if entry.admin {
			admin++
		}
	}
	if admin != 9 {
		t.Errorf("expected 9 admin tools, got %d", admin)
	}
}

func TestAllToolNamesCoversRegistry(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Fatalf("AllToolNames returned %d names for %d tools", len(names), len(toolRegistry))
	}
	for _, n := range names {
		if _, ok := toolRegistry[n]; !ok {
			t.Errorf("unknown tool name %q", n)
		}
	}
}

func TestDecodeArguments(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"query": "deploy process",
		"path":  "projects.infra",
		"limit": float64(5),
	}
	got, err := decode[SearchRequest](req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Query != "deploy process" || got.Path != "projects.infra" || got.Limit != 5 {
		t.Errorf("decoded %+v", got)
	}
}

func TestErrorResultCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("memory abc: %w", model.ErrNotFound), "NOT_FOUND"},
		{fmt.Errorf("empty text: %w", model.ErrValidation), "INVALID_REQUEST"},
		{fmt.Errorf("cycle: %w", model.ErrInvariant), "INVARIANT"},
		{fmt.Errorf("disk full"), "INTERNAL"},
	}
	for _, tc := range cases {
		res := errorResult(tc.err)
		if !res.IsError {
			t.Errorf("%v: IsError must be set", tc.err)
		}
		text, ok := res.Content[0].(mcp.TextContent)
		if !ok {
			t.Fatalf("%v: expected text content", tc.err)
		}
		if !strings.Contains(text.Text, tc.code) {
			t.Errorf("%v: expected code %s in %s", tc.err, tc.code, text.Text)
		}
	}
}

func TestNewServerBuilds(t *testing.T) {
	if s := NewServer(nil, "test", false); s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s := NewServer(nil, "test", true); s == nil {
		t.Fatal("NewServer with admin tools returned nil")
	}
}
