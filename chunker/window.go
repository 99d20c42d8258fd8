package chunker

// windowStrategy slices raw text into non-overlapping windows of exactly the
// target size. It is the correctness backstop of the cascade: it cannot fail
// for any finite input, and the windows cover the input exactly.
type windowStrategy struct{}

// NewWindowStrategy creates the tertiary, fixed-width strategy.
func NewWindowStrategy() Strategy {
	return &windowStrategy{}
}

func (s *windowStrategy) Name() string { return "window" }

func (s *windowStrategy) Split(text string, size, _ int) ([]string, error) {
	chars := []rune(text)
	if len(chars) == 0 {
		return nil, nil
	}
	chunks := make([]string, 0, (len(chars)+size-1)/size)
	for start := 0; start < len(chars); start += size {
		end := start + size
		if end > len(chars) {
			end = len(chars)
		}
		chunks = append(chunks, string(chars[start:end]))
	}
	return chunks, nil
}
