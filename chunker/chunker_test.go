package chunker

import (
	"strings"
	"testing"
)

func TestWindowStrategyCoversInput(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
	}{
		{name: "exact multiple", text: strings.Repeat("a", 3000), size: 1000},
		{name: "remainder", text: strings.Repeat("b", 2500), size: 1000},
		{name: "shorter than size", text: "short", size: 1000},
		{name: "multibyte", text: strings.Repeat("文档", 700), size: 300},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewWindowStrategy()
			chunks, err := s.Split(tc.text, tc.size, 0)
			if err != nil {
				t.Fatalf("window strategy failed: %v", err)
			}
			inputLen := len([]rune(tc.text))
			wantCount := (inputLen + tc.size - 1) / tc.size
			if len(chunks) != wantCount {
				t.Fatalf("expected %d chunks, got %d", wantCount, len(chunks))
			}
			total := 0
			for _, chunk := range chunks {
				total += len([]rune(chunk))
			}
			if total != inputLen {
				t.Fatalf("expected total %d characters, got %d", inputLen, total)
			}
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := strings.Repeat("First paragraph sentence. ", 10) + "\n\n" +
		strings.Repeat("Second paragraph sentence. ", 10) + "\n\n" +
		"Short tail."
	c := New(300, 50)
	result := c.Split(text)
	if result.Strategy != "paragraph" {
		t.Fatalf("expected paragraph strategy, got %q (degradations: %+v)", result.Strategy, result.Degradations)
	}
	if len(result.Chunks) == 0 {
		t.Fatalf("expected chunks, got none")
	}
	for i, chunk := range result.Chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d is empty after trimming", i)
		}
		if chunk != strings.TrimSpace(chunk) {
			t.Fatalf("chunk %d is not trimmed: %q", i, chunk)
		}
	}
}

func TestSplitDegradesToWindow(t *testing.T) {
	// A single token with no paragraph, line or space boundaries defeats the
	// separator-based strategies and must land in the fixed-width backstop.
	text := strings.Repeat("x", 5000)
	c := New(1000, 200)
	result := c.Split(text)
	if result.Strategy != "window" {
		t.Fatalf("expected window strategy, got %q", result.Strategy)
	}
	if len(result.Degradations) != 2 {
		t.Fatalf("expected 2 degradations, got %d: %+v", len(result.Degradations), result.Degradations)
	}
	if result.Degradations[0].Strategy != "paragraph" || result.Degradations[1].Strategy != "line" {
		t.Fatalf("unexpected degradation order: %+v", result.Degradations)
	}
	for _, degradation := range result.Degradations {
		if !strings.Contains(degradation.Reason, "exhausting separators") {
			t.Fatalf("expected separator exhaustion reason, got %q", degradation.Reason)
		}
	}
	if len(result.Chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(result.Chunks))
	}
}

func TestSplitDropsEmptyChunks(t *testing.T) {
	text := "alpha\n\n   \n\nbeta"
	c := New(100, 10)
	result := c.Split(text)
	for i, chunk := range result.Chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d empty after trimming", i)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c := New(1000, 200)
	result := c.Split("")
	if len(result.Chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(result.Chunks))
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, strings.Repeat("word ", 10))
	}
	text := strings.Join(lines, "\n")
	c := New(200, 50)
	result := c.Split(text)
	if len(result.Chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(result.Chunks))
	}
}
