package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Client composes a Reasoner and an Embedder into a Provider, applying the
// shared retry policy, a per-call timeout, and a concurrency gate uniformly.
// The gate bounds in-flight collaborator calls independently of the worker
// pool size, since provider quota is the scarcer resource.
type Client struct {
	reasoner Reasoner
	embedder Embedder
	policy   Policy
	timeout  time.Duration
	gate     chan struct{}
	log      *slog.Logger
}

// NewClient builds a gated, retrying provider. maxConcurrent bounds in-flight
// calls across all workers.
func NewClient(reasoner Reasoner, embedder Embedder, policy Policy, timeout time.Duration, maxConcurrent int, log *slog.Logger) *Client {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Client{
		reasoner: reasoner,
		embedder: embedder,
		policy:   policy,
		timeout:  timeout,
		gate:     make(chan struct{}, maxConcurrent),
		log:      log,
	}
}

func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() { <-c.gate }

// call runs fn under the gate, timeout, and retry policy.
func (c *Client) call(ctx context.Context, label string, fn func(context.Context) error) error {
	if err := c.acquire(ctx); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	defer c.release()

	return c.policy.Do(ctx, c.log, label, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return fn(ctx)
	})
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := c.call(ctx, "embed", func(ctx context.Context) error {
		var err error
		vec, err = c.embedder.Embed(ctx, text)
		return err
	})
	return vec, err
}

func (c *Client) Extract(ctx context.Context, section, taxonomy string) (Extraction, error) {
	var ext Extraction
	err := c.call(ctx, "extract", func(ctx context.Context) error {
		var err error
		ext, err = c.reasoner.Extract(ctx, section, taxonomy)
		return err
	})
	return ext, err
}

func (c *Client) ResolveConflict(ctx context.Context, candidate, existing string) (Verdict, error) {
	var v Verdict
	err := c.call(ctx, "resolve_conflict", func(ctx context.Context) error {
		var err error
		v, err = c.reasoner.ResolveConflict(ctx, candidate, existing)
		return err
	})
	return v, err
}

func (c *Client) SynthesizePrimer(ctx context.Context, profile, taxonomyTree string) (string, error) {
	var out string
	err := c.call(ctx, "synthesize_primer", func(ctx context.Context) error {
		var err error
		out, err = c.reasoner.SynthesizePrimer(ctx, profile, taxonomyTree)
		return err
	})
	return out, err
}

var _ Provider = (*Client)(nil)
