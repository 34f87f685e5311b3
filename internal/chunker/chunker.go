// Package chunker splits raw text into candidate sections for ingestion.
//
// Splitting happens on heading lines and blank-line paragraph boundaries,
// then small neighbors are merged toward a target size so one topic does not
// shatter into micro-sections. Sections shorter than the configured minimum
// are discarded outright.
package chunker

import (
	"strings"
)

const (
	DefaultTargetSize = 800
	DefaultMaxSize    = 2400
	DefaultMinLength  = 80
)

// Options configures section splitting.
type Options struct {
	TargetSize int // preferred section size in bytes
	MaxSize    int // hard-split threshold
	MinLength  int // sections shorter than this are dropped
}

// DefaultOptions returns the default splitting options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MaxSize:    DefaultMaxSize,
		MinLength:  DefaultMinLength,
	}
}

// Section is a candidate section with its position in the original text.
type Section struct {
	Text  string
	Index int // 0-based order within the document
}

// Split divides text into sections. Short input (<= MaxSize) that clears the
// minimum length returns a single section.
func Split(text string, opts Options) []Section {
	if opts.TargetSize == 0 {
		opts = DefaultOptions()
	}

	text = strings.TrimSpace(text)
	if len(text) < opts.MinLength {
		return nil
	}
	if len(text) <= opts.MaxSize {
		return []Section{{Text: text, Index: 0}}
	}

	merged := mergeBlocks(splitBlocks(text), opts)

	var sections []Section
	for _, t := range merged {
		if len(t) < opts.MinLength {
			continue
		}
		sections = append(sections, Section{Text: t, Index: len(sections)})
	}
	return sections
}

// splitBlocks splits text on heading lines and double blank lines.
func splitBlocks(text string) []string {
	lines := strings.Split(text, "\n")
	var blocks []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		if t := strings.TrimSpace(strings.Join(current, "\n")); t != "" {
			blocks = append(blocks, t)
		}
		current = nil
	}

	prevEmpty := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") && len(current) > 0 {
			flush()
		}

		if trimmed == "" {
			if prevEmpty && len(current) > 0 {
				flush()
			}
			prevEmpty = true
			current = append(current, line)
			continue
		}
		prevEmpty = false
		current = append(current, line)
	}
	flush()

	return blocks
}

// mergeBlocks combines small blocks toward TargetSize and hard-splits
// oversized ones on line boundaries.
func mergeBlocks(blocks []string, opts Options) []string {
	var out []string
	var accum string

	flush := func() {
		t := strings.TrimSpace(accum)
		if t == "" {
			return
		}
		if len(t) > opts.MaxSize {
			out = append(out, hardSplit(t, opts)...)
		} else {
			out = append(out, t)
		}
		accum = ""
	}

	for _, b := range blocks {
		if accum == "" {
			accum = b
			continue
		}
		if combined := accum + "\n\n" + b; len(combined) <= opts.TargetSize {
			accum = combined
		} else {
			flush()
			accum = b
		}
	}
	flush()

	return out
}

func hardSplit(text string, opts Options) []string {
	lines := strings.Split(text, "\n")
	var out []string
	var current []string
	curLen := 0

	for _, line := range lines {
		if curLen+len(line) > opts.TargetSize && len(current) > 0 {
			if t := strings.TrimSpace(strings.Join(current, "\n")); t != "" {
				out = append(out, t)
			}
			current = nil
			curLen = 0
		}
		current = append(current, line)
		curLen += len(line) + 1
	}
	if t := strings.TrimSpace(strings.Join(current, "\n")); t != "" {
		out = append(out, t)
	}

	return out
}
