package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultFallbackConfidence = 75
	DefaultEvidencePreview    = 200
	DefaultTimeout            = 60 * time.Second

	fallbackReasoning = "Answer derived from the supplied document context; the reasoning service did not return structured reasoning."
	emptyAnswer       = "The reasoning service returned an empty response."
)

// Outcome tags how a synthesis attempt ended.
type Outcome string

const (
	OutcomeStructured Outcome = "structured"
	OutcomeFallback   Outcome = "fallback"
	OutcomeFailed     Outcome = "failed"
)

// Reasoner is the external reasoning capability.
type Reasoner interface {
	Reason(ctx context.Context, prompt Prompt) (string, error)
}

// Synthesis is the result of one attempt. Answer is meaningful unless
// Outcome is OutcomeFailed, in which case Err wraps ErrSynthesis.
type Synthesis struct {
	Outcome Outcome
	Answer  Answer
	Raw     string
	Err     error
}

type SynthesizerConfig struct {
	Timeout            time.Duration
	FallbackConfidence int
	EvidencePreview    int
}

type Synthesizer struct {
	reasoner Reasoner
	cfg      SynthesizerConfig
}

func NewSynthesizer(reasoner Reasoner, cfg SynthesizerConfig) *Synthesizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FallbackConfidence <= 0 || cfg.FallbackConfidence > 100 {
		cfg.FallbackConfidence = DefaultFallbackConfidence
	}
	if cfg.EvidencePreview <= 0 {
		cfg.EvidencePreview = DefaultEvidencePreview
	}
	return &Synthesizer{reasoner: reasoner, cfg: cfg}
}

// Synthesize asks the reasoning service to answer question from the ranked
// chunks. An empty ranking still produces a request.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, ranked []Ranked) Synthesis {
	prompt := BuildPrompt(question, AssembleContext(ranked))

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	raw, err := s.reasoner.Reason(callCtx, prompt)
	if err != nil {
		return Synthesis{
			Outcome: OutcomeFailed,
			Err:     fmt.Errorf("%w: %w", ErrSynthesis, err),
		}
	}

	if answer, err := ParseAnswer(raw); err == nil {
		return Synthesis{Outcome: OutcomeStructured, Answer: answer, Raw: raw}
	}
	return Synthesis{Outcome: OutcomeFallback, Answer: s.fallback(raw, ranked), Raw: raw}
}

func (s *Synthesizer) fallback(raw string, ranked []Ranked) Answer {
	text := strings.TrimSpace(raw)
	if text == "" {
		text = emptyAnswer
	}

	n := min(len(ranked), DefaultTopK)
	evidence := make([]string, 0, n)
	for _, r := range ranked[:n] {
		evidence = append(evidence, preview(r.Chunk.Text, s.cfg.EvidencePreview))
	}

	return Answer{
		Answer:          text,
		Evidence:        evidence,
		ConfidenceScore: s.cfg.FallbackConfidence,
		Reasoning:       fallbackReasoning,
	}
}

func preview(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
