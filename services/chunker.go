package services

import (
	"strings"
	"unicode/utf8"

	"docqa-backend/models"
)

// Chunker splits extracted document text into overlapping chunks with
// stable byte offsets. Splits prefer natural boundaries (paragraph,
// then sentence, then whitespace) found within a tolerance window
// before the hard size limit; when no boundary exists the cut is hard,
// so no chunk ever exceeds the configured size. The overlap parameter
// is a minimum: boundary snapping can lengthen the shared region but
// never leaves a gap between consecutive chunks.
type Chunker struct {
	size    int
	overlap int
	window  int
}

// boundary separators tried in order of preference
var chunkBoundaries = []string{"\n\n", ".\n", ". ", "!\n", "! ", "?\n", "? ", "\n", " "}

// NewChunker validates the chunking parameters once, at construction.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, models.Kindf(models.ErrInvalidConfiguration, "chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, models.Kindf(models.ErrInvalidConfiguration, "chunk overlap must be in [0, size), got overlap=%d size=%d", overlap, size)
	}

	// The boundary-search window must leave the next chunk's start
	// strictly after the current one, even after snapping back to a
	// rune boundary (at most 3 bytes).
	window := size / 5
	if max := size - overlap - 4; window > max {
		window = max
	}
	if window < 0 {
		window = 0
	}

	return &Chunker{size: size, overlap: overlap, window: window}, nil
}

// Split produces the ordered chunk sequence for one document. Empty or
// whitespace-only text yields no chunks, not an error.
func (c *Chunker) Split(documentID, text string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	n := len(text)
	var chunks []models.Chunk
	start := 0

	for start < n {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.snapToBoundary(text, start, end)
		}

		chunks = append(chunks, models.Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       text[start:end],
			Start:      start,
			End:        end,
		})

		if end == n {
			break
		}

		next := end - c.overlap
		for next > 0 && !utf8.RuneStart(text[next]) {
			next--
		}
		// Rune snapping can pull next back onto start when the size
		// and overlap are only a few bytes apart; force the next
		// chunk to begin at the following rune so the walk always
		// advances.
		if next <= start {
			next = start + 1
			for next < n && !utf8.RuneStart(text[next]) {
				next++
			}
		}
		start = next
	}

	return chunks
}

// snapToBoundary moves a prospective cut at end back to the nearest
// natural boundary inside the tolerance window, or to a rune start
// when no boundary is found.
func (c *Chunker) snapToBoundary(text string, start, end int) int {
	windowStart := end - c.window
	if windowStart < start {
		windowStart = start
	}

	for _, sep := range chunkBoundaries {
		if i := strings.LastIndex(text[windowStart:end], sep); i >= 0 {
			cut := windowStart + i + len(sep)
			if cut > start {
				return cut
			}
		}
	}

	// Hard cut; back off to a rune start so no chunk splits a code point
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
