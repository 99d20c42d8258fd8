package chunker

import "strings"

// merge packs pieces into chunks up to size characters, carrying the trailing
// pieces forward so consecutive chunks overlap by roughly overlap characters.
func merge(pieces []string, sep string, size, overlap int) []string {
	var chunks []string
	var window []string
	total := 0
	sepLen := len([]rune(sep))

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(window, sep))
	}

	for _, piece := range pieces {
		pieceLen := len([]rune(piece))
		if total+pieceLen+sepLen*len(window) > size && len(window) > 0 {
			flush()
			// Drop leading pieces until the retained tail fits the overlap.
			for total > overlap || (total+pieceLen+sepLen*len(window) > size && len(window) > 0) {
				total -= len([]rune(window[0]))
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen
	}
	flush()
	return chunks
}
