package pipeline

import "strings"

// ContextSeparator divides passages inside an assembled context.
const ContextSeparator = "\n\n"

// AssembleContext joins ranked chunk texts in rank order. No chunks yields "".
func AssembleContext(ranked []Ranked) string {
	texts := make([]string, len(ranked))
	for i, r := range ranked {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, ContextSeparator)
}
