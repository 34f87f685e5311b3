package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicOptions configures the Anthropic reasoner (model id, token limit,
// API key). Extend via functional options to preserve stability.
type AnthropicOptions struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// AnthropicReasoner implements Reasoner over the Anthropic Messages API.
type AnthropicReasoner struct {
	client *anthropic.Client
	opts   AnthropicOptions
}

// WithModel overrides the reasoning model by name.
func WithModel(model string) func(o *AnthropicOptions) {
	return func(o *AnthropicOptions) {
		if model != "" {
			o.Model = anthropic.Model(model)
		}
	}
}

// NewAnthropicReasoner creates a reasoner using the official client. The API
// key falls back to the ANTHROPIC_API_KEY environment variable.
func NewAnthropicReasoner(optFns ...func(o *AnthropicOptions)) *AnthropicReasoner {
	opts := AnthropicOptions{
		Model:     anthropic.ModelClaudeSonnet4_0,
		MaxTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &AnthropicReasoner{client: &client, opts: opts}
}

const extractSystem = `Clean up the input section and classify it for a hierarchical knowledge base.

Return a single JSON object with keys:
- "content": the cleaned text of the section (fix formatting, keep every fact)
- "category_paths": 1-3 dot-separated taxonomy paths, most specific first
- "tags": short lowercase keywords for exact-match retrieval
- "volatility_class": one of "static", "low", "medium", "high" — how soon this fact is likely to go stale

TAXONOMY RULES:
1. Use ONLY these L1 roots: profile, projects, organizations, concepts, reference.
   NEVER use "user" as a root; use "profile".
2. Reuse a path from the EXISTING PATHS list only on a direct topical match;
   otherwise create a new path under the correct root. A wrong existing path is
   worse than a correct new path.
3. Strict dot-notation, 2-4 levels preferred, labels limited to [a-z0-9_].

EXISTING PATHS FOR REFERENCE:
%s

Output only the JSON object.`

// Extract cleans one section and suggests taxonomy placement.
func (r *AnthropicReasoner) Extract(ctx context.Context, section, taxonomy string) (Extraction, error) {
	raw, err := r.complete(ctx, fmt.Sprintf(extractSystem, taxonomy), section)
	if err != nil {
		return Extraction{}, err
	}

	var ext Extraction
	if err := json.Unmarshal(stripFences(raw), &ext); err != nil {
		return Extraction{}, fmt.Errorf("parse extraction: %w", err)
	}
	if strings.TrimSpace(ext.Content) == "" {
		ext.Content = section
	}
	return ext, nil
}

const conflictSystem = `You are a strict factual arbiter for a knowledge base that allows exactly one active version of any fact.

You receive an EXISTING memory and a CANDIDATE section covering the same topic.

STEP 1 — Extract every atomic factual claim from EXISTING.
STEP 2 — Extract every atomic factual claim from CANDIDATE.
STEP 3 — Decide:
- "supersede": any claim in EXISTING is directly contradicted or mutated by
  CANDIDATE (a date changed, a value corrected, a status flipped). The
  candidate replaces the existing version.
- "keep_both": both texts are fully true together; they are related but
  independent facts.
- "keep_existing": CANDIDATE adds nothing that EXISTING does not already state.

A single mutated fact, however minor, forces "supersede".

Return a JSON object: {"verdict": "supersede" | "keep_both" | "keep_existing"}.`

// ResolveConflict judges an ambiguous candidate against an existing memory.
func (r *AnthropicReasoner) ResolveConflict(ctx context.Context, candidate, existing string) (Verdict, error) {
	user := fmt.Sprintf("<existing>%s</existing>\n\n<candidate>%s</candidate>",
		truncate(existing, 6000), truncate(candidate, 6000))
	raw, err := r.complete(ctx, conflictSystem, user)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Verdict Verdict `json:"verdict"`
	}
	if err := json.Unmarshal(stripFences(raw), &parsed); err != nil {
		return "", fmt.Errorf("parse verdict: %w", err)
	}
	switch parsed.Verdict {
	case VerdictSupersede, VerdictKeepBoth, VerdictKeepExisting:
		return parsed.Verdict, nil
	}
	return "", fmt.Errorf("unknown conflict verdict %q", parsed.Verdict)
}

const primerSystem = `You are writing the User Context section of a system primer for an AI agent. The agent reads it at the start of every session to understand who it is working with.

You will be given memory records about the user. Write a concise natural-language briefing of 3-6 sentences: who this person is, what they are currently doing, what matters to them. Prose only — no bullet points, no headers, no reproduction of raw records. Omit resolved past events and anything that does not affect how an agent should approach a session today.`

// SynthesizePrimer drafts the user-context prose for the system primer.
func (r *AnthropicReasoner) SynthesizePrimer(ctx context.Context, profile, taxonomyTree string) (string, error) {
	if strings.TrimSpace(profile) == "" {
		return "", nil
	}
	user := fmt.Sprintf("User memory records:\n\n%s\n\nKnowledge base taxonomy for context:\n%s", profile, taxonomyTree)
	out, err := r.complete(ctx, primerSystem, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *AnthropicReasoner) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     r.opts.Model,
		MaxTokens: r.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// stripFences removes markdown code fences the model sometimes wraps around
// JSON output.
func stripFences(s string) []byte {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return []byte(strings.TrimSpace(s))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	half := max / 2
	return s[:half] + "\n...[TRUNCATED]...\n" + s[len(s)-half:]
}
