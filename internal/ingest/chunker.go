// Package ingest turns course export files into indexed knowledge
// store documents: split into overlapping chunks, tag with source
// metadata, embed and upsert.
package ingest

import "strings"

// Chunk is one slice of a source document ready for indexing.
type Chunk struct {
	Text  string
	Index int
}

// ChunkerConfig controls chunk sizing. Sizes are in runes so multi-byte
// text chunks evenly.
type ChunkerConfig struct {
	// Size is the target chunk length. Defaults to 1000.
	Size int

	// Overlap is how many trailing runes repeat at the start of the
	// next chunk, preserving context across boundaries. Defaults to 200.
	Overlap int
}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// Chunker splits text into overlapping chunks, preferring paragraph
// boundaries over hard cuts.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. Out-of-range config values fall back to
// the defaults; overlap is capped below size so every chunk advances.
func NewChunker(cfg ChunkerConfig) *Chunker {
	size := cfg.Size
	if size <= 0 {
		size = defaultChunkSize
	}
	overlap := cfg.Overlap
	if overlap < 0 {
		overlap = defaultChunkOverlap
	}
	// The breakpoint search may pull a cut back by up to size/4, so the
	// overlap must stay below half the size for the scan to advance.
	if overlap >= size/2 {
		overlap = size / 4
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks the text. Whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []Chunk{{Text: text, Index: 0}}
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.breakpoint(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{Text: piece, Index: len(chunks)})
		}

		if end == len(runes) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// breakpoint backs the cut up to the nearest paragraph break, then
// sentence end, then word boundary, searching the last quarter of the
// window. Falls back to the hard limit when the window has no boundary.
func (c *Chunker) breakpoint(runes []rune, start, limit int) int {
	floor := limit - c.size/4
	if floor < start+1 {
		floor = start + 1
	}

	for i := limit; i > floor; i-- {
		if i+1 < len(runes) && runes[i] == '\n' && runes[i+1] == '\n' {
			return i
		}
	}
	for i := limit; i > floor; i-- {
		if runes[i-1] == '.' || runes[i-1] == '!' || runes[i-1] == '?' {
			return i
		}
	}
	for i := limit; i > floor; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			return i
		}
	}
	return limit
}
