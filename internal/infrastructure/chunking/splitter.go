package chunking

import (
	"strings"
	"unicode"
)

// Splitter cuts cleaned text into overlapping windows sized in runes, so
// Korean and mixed-script text chunk by characters rather than bytes. Cut
// points snap back to the nearest whitespace when one is close, keeping
// words intact across chunk borders.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapToWhitespace(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

// snapToWhitespace walks back from the hard cut looking for a space within a
// tolerance of an eighth of the chunk. Text without any whitespace in that
// window cuts mid-run.
func snapToWhitespace(runes []rune, start, end int) int {
	tolerance := (end - start) / 8
	for i := end; i > end-tolerance && i > start; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
