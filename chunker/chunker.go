package chunker

import (
	"strings"
)

// Strategy defines a single chunking strategy. Strategies may fail on
// pathological input; the Chunker degrades through its strategy list until
// one succeeds.
type Strategy interface {
	// Name identifies the strategy in degradation records.
	Name() string
	// Split divides text into chunks of roughly size characters with the
	// requested overlap between consecutive chunks.
	Split(text string, size, overlap int) ([]string, error)
}

// Degradation records one fallback step taken by the cascade.
type Degradation struct {
	Strategy string
	Reason   string
}

// Result holds the chunks produced by the first strategy that succeeded,
// together with the fallbacks taken to reach it.
type Result struct {
	Chunks []string
	// Strategy is the name of the strategy that produced Chunks.
	Strategy string
	// Degradations lists the strategies that failed, in the order tried.
	Degradations []Degradation
}

// Chunker splits text using an ordered list of strategies. The last strategy
// is the fixed-width window splitter, which cannot fail for any finite input.
type Chunker struct {
	size       int
	overlap    int
	strategies []Strategy
}

const (
	// DefaultSize is the default target chunk size in characters.
	DefaultSize = 1000
	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 200
)

// New creates a Chunker with the paragraph, line and fixed-width strategies.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Chunker{
		size:    size,
		overlap: overlap,
		strategies: []Strategy{
			NewParagraphStrategy(),
			NewLineStrategy(),
			NewWindowStrategy(),
		},
	}
}

// Split runs the strategy cascade. Every emitted chunk is trimmed of
// leading/trailing whitespace and non-empty; emission order defines the
// chunk id sequence starting at 0.
func (c *Chunker) Split(text string) *Result {
	result := &Result{}
	for _, strategy := range c.strategies {
		chunks, err := strategy.Split(text, c.size, c.overlap)
		if err != nil {
			result.Degradations = append(result.Degradations, Degradation{
				Strategy: strategy.Name(),
				Reason:   err.Error(),
			})
			continue
		}
		result.Strategy = strategy.Name()
		result.Chunks = clean(chunks)
		return result
	}
	// Unreachable: the window strategy never returns an error.
	result.Strategy = "none"
	return result
}

// clean trims chunks and drops the ones empty after trimming.
func clean(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		trimmed := strings.TrimSpace(chunk)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
