package model

import (
	"fmt"
	"strings"
)

// ProcessingStats tracks running counters across a batch. Mutated only by
// the single control goroutine, so no locking is needed.
type ProcessingStats struct {
	TotalUnits int
	Successful int
	Failed     int
	Errors     []string
	Usage      TokenUsage
}

// AddSuccess records one successful unit and its token usage
func (s *ProcessingStats) AddSuccess(usage TokenUsage) {
	s.Successful++
	s.Usage.Add(usage)
}

// AddFailure records one failed unit with its error message
func (s *ProcessingStats) AddFailure(msg string) {
	s.Failed++
	s.Errors = append(s.Errors, msg)
}

// Summary renders the closing stats block
func (s *ProcessingStats) Summary() string {
	if s.TotalUnits == 0 {
		return "No units processed"
	}

	errorRate := float64(s.Failed) / float64(s.TotalUnits) * 100

	var b strings.Builder
	fmt.Fprintf(&b, "Processing complete:\n")
	fmt.Fprintf(&b, "- Total: %d units\n", s.TotalUnits)
	fmt.Fprintf(&b, "- Successful: %d\n", s.Successful)
	fmt.Fprintf(&b, "- Failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "- Error rate: %.1f%%\n", errorRate)
	fmt.Fprintf(&b, "\nToken usage:\n")
	fmt.Fprintf(&b, "- Prompt tokens: %d\n", s.Usage.PromptTokens)
	fmt.Fprintf(&b, "- Completion tokens: %d\n", s.Usage.CompletionTokens)
	fmt.Fprintf(&b, "- Total tokens: %d\n", s.Usage.TotalTokens)

	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, "\nErrors (%d):\n", len(s.Errors))
		for i, err := range s.Errors {
			if i >= 5 {
				fmt.Fprintf(&b, "  ... and %d more errors\n", len(s.Errors)-5)
				break
			}
			fmt.Fprintf(&b, "  - %s\n", err)
		}
	}

	return b.String()
}
