package chunker

import (
	"fmt"
	"strings"
)

// paragraphStrategy splits on blank-line separated paragraphs, packing them
// into chunks that respect the size and overlap contract. Paragraphs larger
// than the target size are reduced on finer separators; input that cannot be
// reduced makes the strategy fail so the cascade can degrade.
type paragraphStrategy struct {
	separators []string
}

// NewParagraphStrategy creates the primary, paragraph-boundary strategy.
func NewParagraphStrategy() Strategy {
	return &paragraphStrategy{separators: []string{"\n\n", "\n", " "}}
}

func (s *paragraphStrategy) Name() string { return "paragraph" }

func (s *paragraphStrategy) Split(text string, size, overlap int) ([]string, error) {
	return splitOnSeparators(text, s.separators, size, overlap)
}

// lineStrategy splits on single newline boundaries with the same size and
// overlap contract as the paragraph strategy.
type lineStrategy struct {
	separators []string
}

// NewLineStrategy creates the secondary, newline-boundary strategy.
func NewLineStrategy() Strategy {
	return &lineStrategy{separators: []string{"\n", " "}}
}

func (s *lineStrategy) Name() string { return "line" }

func (s *lineStrategy) Split(text string, size, overlap int) ([]string, error) {
	return splitOnSeparators(text, s.separators, size, overlap)
}

// splitOnSeparators splits text on the first separator, recursively reducing
// pieces that still exceed size with the remaining separators. Each level
// drops the separator it split on, so recursion is bounded by the separator
// list.
func splitOnSeparators(text string, separators []string, size, overlap int) ([]string, error) {
	if len(runes(text)) <= size {
		return []string{text}, nil
	}
	if len(separators) == 0 {
		return nil, fmt.Errorf("piece of %d characters exceeds chunk size %d after exhausting separators", len(runes(text)), size)
	}
	sep := separators[0]
	pieces := strings.Split(text, sep)
	var fitted []string
	for _, piece := range pieces {
		if len(runes(piece)) <= size {
			fitted = append(fitted, piece)
			continue
		}
		sub, err := splitOnSeparators(piece, separators[1:], size, overlap)
		if err != nil {
			return nil, err
		}
		fitted = append(fitted, sub...)
	}
	return merge(fitted, sep, size, overlap), nil
}

func runes(s string) []rune {
	return []rune(s)
}
