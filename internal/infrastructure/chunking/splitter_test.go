package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(100, 20)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty text, got %v", chunks)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("수강신청은 8월에 시작합니다.")
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	// 30 Hangul syllables are 90 bytes; a 40-rune window must hold them all.
	text := strings.Repeat("가", 30)
	s := NewSplitter(40, 0)
	chunks := s.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk for 30 runes, got %d", len(chunks))
	}
}

func TestSplitOverlappingWindows(t *testing.T) {
	text := strings.Repeat("a", 250)
	s := NewSplitter(100, 20)
	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Fatalf("chunk %d exceeds window: %d runes", i, len(chunk))
		}
	}
}

func TestSplitSnapsToWhitespace(t *testing.T) {
	// A space sits 5 runes before the hard cut at 100; the first chunk must
	// end on the word boundary instead of splitting the second word.
	text := strings.Repeat("a", 94) + " " + strings.Repeat("b", 60)
	s := NewSplitter(100, 0)
	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if strings.Contains(chunks[0], "b") {
		t.Fatalf("expected first chunk to stop at whitespace, got %q", chunks[0])
	}
	if chunks[1] != strings.Repeat("b", 60) {
		t.Fatalf("expected second chunk to hold the full word, got %q", chunks[1])
	}
}

func TestSplitWithoutWhitespaceCutsHard(t *testing.T) {
	text := strings.Repeat("가", 150)
	s := NewSplitter(100, 0)
	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected hard cut into 2 chunks, got %d", len(chunks))
	}
	if len([]rune(chunks[0])) != 100 {
		t.Fatalf("expected first chunk of 100 runes, got %d", len([]rune(chunks[0])))
	}
}
