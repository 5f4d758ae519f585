// Package pipeline turns document text and a question into an evidence-backed answer:
// chunking, relevance ranking, context assembly and answer synthesis.
package pipeline

// DefaultChunkSize is the number of characters per chunk when none is configured.
const DefaultChunkSize = 1000

// Chunk is a contiguous slice of a document's text tagged with its position.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SplitText cuts text into consecutive chunks of size characters (runes).
// Chunks never overlap; the last chunk holds the remainder.
func SplitText(text string, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []Chunk{}
	}

	chunks := make([]Chunk, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
	}
	return chunks
}

// JoinChunks concatenates chunks in slice order, which is index order for SplitText output.
func JoinChunks(chunks []Chunk) string {
	n := 0
	for _, c := range chunks {
		n += len(c.Text)
	}
	buf := make([]byte, 0, n)
	for _, c := range chunks {
		buf = append(buf, c.Text...)
	}
	return string(buf)
}
