package pipeline

import "errors"

var (
	ErrSynthesis     = errors.New("answer synthesis failed")
	ErrParseResponse = errors.New("failed to parse structured answer")
)
