package textnorm

import (
	"strings"

	"github.com/akolanti/rulebook-rag/internal/config"
)

const Ellipsis = "..."

// Collapse replaces every whitespace run with one space and trims the ends.
func Collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Clean collapses whitespace and caps the result at config.MaxCleanLength
// characters followed by Ellipsis.
func Clean(text string) string {
	cleaned := Collapse(text)
	runes := []rune(cleaned)
	if len(runes) > config.MaxCleanLength {
		return string(runes[:config.MaxCleanLength]) + Ellipsis
	}
	return cleaned
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Chunk splits text into pieces of at most size characters, preferring to
// end each piece on a sentence terminator, with overlap characters shared
// between neighbours. Lengths are counted in runes.
func Chunk(text string, size int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			windowStart := end - (size - 100)
			if windowStart < start {
				windowStart = start
			}
			for i := end - 1; i >= windowStart; i-- {
				if isSentenceEnd(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			// a terminator close to start would otherwise stall the walk
			next = end
		}
		start = next
	}
	return chunks
}
