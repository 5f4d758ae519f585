package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var jsonBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Answer is the schema the reasoning service is asked to return.
type Answer struct {
	Answer          string   `json:"answer"`
	Evidence        []string `json:"evidence"`
	ConfidenceScore int      `json:"confidence_score"`
	Reasoning       string   `json:"reasoning"`

	// Repaired is set when confidence_score had to be clamped or rounded.
	Repaired bool `json:"-"`
}

type rawAnswer struct {
	Answer          *string  `json:"answer"`
	Evidence        []string `json:"evidence"`
	ConfidenceScore *float64 `json:"confidence_score"`
	Reasoning       *string  `json:"reasoning"`
}

// ParseAnswer decodes a structured answer from the service body. It tries the
// body as-is, then a fenced code block, then the outermost brace pair.
// answer and confidence_score are required; confidence is clamped to 0-100.
func ParseAnswer(body string) (Answer, error) {
	body = strings.TrimSpace(body)

	candidates := []string{body}
	if m := jsonBlockRe.FindStringSubmatch(body); len(m) >= 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		candidates = append(candidates, body[start:end+1])
	}

	for _, c := range candidates {
		var raw rawAnswer
		if err := json.Unmarshal([]byte(c), &raw); err != nil {
			continue
		}
		if answer, ok := validateAnswer(raw); ok {
			return answer, nil
		}
	}
	return Answer{}, fmt.Errorf("%w: no valid answer object in response", ErrParseResponse)
}

func validateAnswer(raw rawAnswer) (Answer, bool) {
	if raw.Answer == nil || strings.TrimSpace(*raw.Answer) == "" || raw.ConfidenceScore == nil {
		return Answer{}, false
	}
	if math.IsNaN(*raw.ConfidenceScore) {
		return Answer{}, false
	}

	score := int(math.Round(math.Max(0, math.Min(100, *raw.ConfidenceScore))))
	a := Answer{
		Answer:          strings.TrimSpace(*raw.Answer),
		Evidence:        make([]string, 0, len(raw.Evidence)),
		ConfidenceScore: score,
		Repaired:        float64(score) != *raw.ConfidenceScore,
	}
	for _, e := range raw.Evidence {
		if e = strings.TrimSpace(e); e != "" {
			a.Evidence = append(a.Evidence, e)
		}
	}
	if raw.Reasoning != nil {
		a.Reasoning = strings.TrimSpace(*raw.Reasoning)
	}
	return a, true
}
