package llm

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestAnthropicReasonerDefaults(t *testing.T) {
	r := NewAnthropicReasoner()
	if r.opts.Model != anthropic.ModelClaudeSonnet4_0 {
		t.Errorf("default model = %q", r.opts.Model)
	}
	if r.opts.MaxTokens != 4096 {
		t.Errorf("default max tokens = %d", r.opts.MaxTokens)
	}
}

func TestWithModel(t *testing.T) {
	r := NewAnthropicReasoner(WithModel("claude-haiku-4-5"))
	if r.opts.Model != anthropic.Model("claude-haiku-4-5") {
		t.Errorf("override ignored, got %q", r.opts.Model)
	}

	r = NewAnthropicReasoner(WithModel(""))
	if r.opts.Model != anthropic.ModelClaudeSonnet4_0 {
		t.Errorf("empty override must keep the default, got %q", r.opts.Model)
	}
}

func TestStripFences(t *testing.T) {
	in := "```json\n{\"verdict\": \"keep_both\"}\n```"
	if got := string(stripFences(in)); got != `{"verdict": "keep_both"}` {
		t.Errorf("stripFences = %q", got)
	}
	if got := string(stripFences(`{"a":1}`)); got != `{"a":1}` {
		t.Errorf("unfenced input must pass through, got %q", got)
	}
}
