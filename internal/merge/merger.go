package merge

import (
	"fmt"
	"strings"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

// Separator joins per-chunk text fields in the merged record
const Separator = " | "

// Merger combines per-chunk extraction results into one document record.
// Callers pass only the successful subset; failed chunks are filtered out
// beforehand.
type Merger struct {
	schema *model.Schema
}

// New creates a merger for the given schema
func New(schema *model.Schema) *Merger {
	return &Merger{schema: schema}
}

// Merge reduces the chunk results of one document. An empty input yields a
// record whose Err is set; any panic during reduction is captured the same
// way so the batch keeps processing remaining documents.
func (m *Merger) Merge(filename string, results []model.ExtractionResult) (merged model.MergedResult) {
	if len(results) == 0 {
		return model.MergedResult{
			Filename:     filename,
			Keywords:     []string{},
			Checks:       model.CheckSet{},
			CheckReasons: map[string]string{},
			Err:          "no chunk results available",
		}
	}

	defer func() {
		if r := recover(); r != nil {
			merged = model.MergedResult{
				Filename:     filename,
				Keywords:     []string{},
				Checks:       model.CheckSet{},
				CheckReasons: map[string]string{},
				ChunkCount:   len(results),
				Err:          fmt.Sprintf("merge failed for %s: %v", filename, r),
			}
		}
	}()

	var usage model.TokenUsage
	for _, r := range results {
		usage.Add(r.Usage)
	}

	return model.MergedResult{
		Filename:        filename,
		Paraphrase:      joinNonEmpty(results, func(r model.ExtractionResult) string { return r.Paraphrase }),
		Sentiment:       mergeSentiments(results),
		SentimentReason: joinNonEmpty(results, func(r model.ExtractionResult) string { return r.SentimentReason }),
		Keywords:        mergeKeywords(results),
		Checks:          m.mergeChecks(results),
		CheckReasons:    m.mergeCheckReasons(results),
		ChunkCount:      len(results),
		Usage:           usage,
	}
}

// joinNonEmpty concatenates non-empty per-chunk values in chunk order
func joinNonEmpty(results []model.ExtractionResult, get func(model.ExtractionResult) string) string {
	var parts []string
	for _, r := range results {
		if v := get(r); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, Separator)
}

// mergeSentiments averages the chunk sentiments on {-1, 0, 1}. The ±0.5
// thresholds deliberately bias ambiguous multi-chunk documents toward mixed.
func mergeSentiments(results []model.ExtractionResult) int {
	sum := 0
	for _, r := range results {
		sum += r.Sentiment.Score()
	}
	mean := float64(sum) / float64(len(results))

	switch {
	case mean > 0.5:
		return 1
	case mean < -0.5:
		return -1
	default:
		return 0
	}
}

// mergeKeywords pools every chunk's keywords, ranks by frequency with
// first-seen order breaking ties, and keeps the top 4. Fewer than 2 distinct
// keywords are padded with the sentinel.
func mergeKeywords(results []model.ExtractionResult) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		for _, kw := range r.Keywords {
			if counts[kw] == 0 {
				order = append(order, kw)
			}
			counts[kw]++
		}
	}

	// Stable selection sort over the first-seen order keeps ties deterministic.
	ranked := make([]string, len(order))
	copy(ranked, order)
	for i := 0; i < len(ranked); i++ {
		best := i
		for j := i + 1; j < len(ranked); j++ {
			if counts[ranked[j]] > counts[ranked[best]] {
				best = j
			}
		}
		if best != i {
			kw := ranked[best]
			copy(ranked[i+1:best+1], ranked[i:best])
			ranked[i] = kw
		}
	}

	if len(ranked) > 4 {
		ranked = ranked[:4]
	}
	for len(ranked) < 2 {
		ranked = append(ranked, "unknown")
	}
	return ranked
}

// mergeChecks applies the per-type reduction rules
func (m *Merger) mergeChecks(results []model.ExtractionResult) model.CheckSet {
	merged := make(model.CheckSet, m.schema.Len())

	for _, attr := range m.schema.Attributes() {
		var values []model.CheckValue
		for _, r := range results {
			if v, ok := r.Checks[attr.ID]; ok {
				values = append(values, v)
			}
		}

		if len(values) == 0 {
			merged[attr.ID] = model.NullValue()
			continue
		}

		switch attr.AnswerType {
		case model.AnswerBoolean:
			// OR across chunks; null chunks are ignored, not treated as false.
			any := false
			for _, v := range values {
				if v.Kind == model.ValueBool && v.Bool {
					any = true
					break
				}
			}
			merged[attr.ID] = model.BoolValue(any)

		case model.AnswerMultiCategorical:
			var all []string
			seen := make(map[string]bool)
			for _, v := range values {
				switch v.Kind {
				case model.ValueList:
					for _, item := range v.List {
						if item != "" && !seen[item] {
							seen[item] = true
							all = append(all, item)
						}
					}
				case model.ValueText:
					if v.Text != "" && !seen[v.Text] {
						seen[v.Text] = true
						all = append(all, v.Text)
					}
				}
			}
			if len(all) > 0 {
				merged[attr.ID] = model.ListValue(all)
			} else {
				merged[attr.ID] = model.NullValue()
			}

		case model.AnswerCategorical:
			var distinct []string
			seen := make(map[string]bool)
			for _, v := range values {
				if v.Kind == model.ValueText && v.Text != "" && !seen[v.Text] {
					seen[v.Text] = true
					distinct = append(distinct, v.Text)
				}
			}
			if len(distinct) > 0 {
				merged[attr.ID] = model.TextValue(strings.Join(distinct, ", "))
			} else {
				merged[attr.ID] = model.NullValue()
			}
		}
	}

	return merged
}

// mergeCheckReasons concatenates non-empty per-chunk reasons per attribute
func (m *Merger) mergeCheckReasons(results []model.ExtractionResult) map[string]string {
	merged := make(map[string]string, m.schema.Len())

	for _, attr := range m.schema.Attributes() {
		var parts []string
		for _, r := range results {
			if reason := r.CheckReasons[attr.ID]; reason != "" {
				parts = append(parts, reason)
			}
		}
		merged[attr.ID] = strings.Join(parts, Separator)
	}

	return merged
}
