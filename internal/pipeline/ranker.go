package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	// DefaultTopK is how many chunks are handed to the context assembler.
	DefaultTopK = 3

	ScorerSubstring = "substring"
	ScorerOverlap   = "overlap"
)

// Scorer rates how relevant a chunk is to a question. Zero means irrelevant.
type Scorer interface {
	Score(chunk Chunk, question string) float64
}

// Ranked is a chunk that survived scoring.
type Ranked struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Ranker selects the top-K chunks for a question.
type Ranker struct {
	scorer Scorer
	topK   int
}

func NewRanker(scorer Scorer, topK int) *Ranker {
	if scorer == nil {
		scorer = SubstringScorer{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Ranker{scorer: scorer, topK: topK}
}

// NewScorer resolves a scorer by its configured name.
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerSubstring:
		return SubstringScorer{}, nil
	case ScorerOverlap:
		return OverlapScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// Rank scores every chunk, drops the zero scores and returns at most topK
// chunks ordered by score descending, then by chunk index ascending.
func (r *Ranker) Rank(chunks []Chunk, question string) []Ranked {
	ranked := make([]Ranked, 0, len(chunks))
	for _, c := range chunks {
		score := r.scorer.Score(c, question)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, Ranked{Chunk: c, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Chunk.Index < ranked[j].Chunk.Index
	})

	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	return ranked
}

// SubstringScorer gives 1 to chunks containing the whole normalized question.
type SubstringScorer struct{}

func (SubstringScorer) Score(chunk Chunk, question string) float64 {
	q := normalize(question)
	if q == "" {
		return 0
	}
	if strings.Contains(normalize(chunk.Text), q) {
		return 1
	}
	return 0
}

// normalize reduces s to its comparable form: lower-cased letter/digit
// tokens with stop words removed, joined by single spaces.
func normalize(s string) string {
	return strings.Join(tokens(s), " ")
}

var termRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "i": {}, "if": {},
	"in": {}, "is": {}, "it": {}, "my": {}, "of": {}, "on": {}, "or": {}, "the": {},
	"this": {}, "to": {}, "was": {}, "what": {}, "when": {}, "which": {}, "who": {},
	"will": {}, "with": {},
}

// OverlapScorer scores by the share of distinct question terms present in the chunk.
type OverlapScorer struct{}

func (OverlapScorer) Score(chunk Chunk, question string) float64 {
	qterms := terms(question)
	if len(qterms) == 0 {
		return 0
	}
	cterms := terms(chunk.Text)
	hits := 0
	for t := range qterms {
		if _, ok := cterms[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(qterms))
}

func terms(s string) map[string]struct{} {
	toks := tokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

// tokens returns the lower-cased non-stop-word tokens of s in order.
func tokens(s string) []string {
	all := termRe.FindAllString(strings.ToLower(s), -1)
	out := all[:0]
	for _, t := range all {
		if _, skip := stopWords[t]; skip {
			continue
		}
		out = append(out, t)
	}
	return out
}
