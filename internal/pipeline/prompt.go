package pipeline

import "strings"

// Prompt is the request handed to the reasoning service.
type Prompt struct {
	System string
	User   string
}

const systemInstruction = `You are a policy and document analysis assistant.
Answer the user's question using only the document context provided. Do not rely on outside knowledge.
If the context does not contain enough information, say so in the answer and lower the confidence score.

Respond with a single JSON object and nothing else:
{
  "answer": "a clear, direct answer to the question",
  "evidence": ["verbatim quotes from the context that support the answer"],
  "confidence_score": 0-100 integer,
  "reasoning": "how the evidence leads to the answer"
}`

const emptyContextMarker = "(no matching passages were found in the document)"

// BuildPrompt renders the fixed instruction and the user message for a question.
func BuildPrompt(question, context string) Prompt {
	if strings.TrimSpace(context) == "" {
		context = emptyContextMarker
	}

	var b strings.Builder
	b.WriteString("Document context:\n---\n")
	b.WriteString(context)
	b.WriteString("\n---\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))

	return Prompt{
		System: systemInstruction,
		User:   b.String(),
	}
}
