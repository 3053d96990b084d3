package model

// Sentiment is the 3-valued chunk-level classification
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
)

// Valid reports whether s is one of the three allowed values
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentMixed
}

// Score maps the sentiment onto {-1, 0, 1} for averaging
func (s Sentiment) Score() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// SentimentLabel renders a merged {-1,0,1} score back to its label
func SentimentLabel(score int) string {
	switch {
	case score > 0:
		return string(SentimentPositive)
	case score < 0:
		return string(SentimentNegative)
	default:
		return string(SentimentMixed)
	}
}

// ValueKind discriminates the payload of a CheckValue
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueText
	ValueList
)

// CheckValue is the typed answer to one check attribute. Null represents
// "no relation to the topic" as reported by the model.
type CheckValue struct {
	Kind ValueKind
	Bool bool
	Text string
	List []string
}

// NullValue returns the null check value
func NullValue() CheckValue { return CheckValue{Kind: ValueNull} }

// BoolValue wraps a boolean answer
func BoolValue(b bool) CheckValue { return CheckValue{Kind: ValueBool, Bool: b} }

// TextValue wraps a categorical answer
func TextValue(s string) CheckValue { return CheckValue{Kind: ValueText, Text: s} }

// ListValue wraps a multi-categorical answer
func ListValue(items []string) CheckValue { return CheckValue{Kind: ValueList, List: items} }

// IsNull reports whether the value carries no answer
func (v CheckValue) IsNull() bool { return v.Kind == ValueNull }

// Render formats the value for report cells
func (v CheckValue) Render() string {
	switch v.Kind {
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueText:
		return v.Text
	case ValueList:
		out := ""
		for i, item := range v.List {
			if i > 0 {
				out += ", "
			}
			out += item
		}
		return out
	default:
		return ""
	}
}

// CheckSet holds the answers for a unit of text, keyed by attribute ID
type CheckSet map[string]CheckValue

// TokenUsage tracks token consumption of LLM calls
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ExtractionResult is the analysis outcome for one unit of text (one chunk,
// or one survey row). A non-empty Err marks the result as failed; failed
// results still carry structurally valid defaults so consumers never need
// nil handling.
type ExtractionResult struct {
	Paraphrase      string            `json:"paraphrase"`
	Sentiment       Sentiment         `json:"sentiment"`
	SentimentReason string            `json:"sentiment_reason"`
	Keywords        []string          `json:"keywords"`
	Checks          CheckSet          `json:"custom_checks"`
	CheckReasons    map[string]string `json:"custom_checks_reasons,omitempty"`
	Err             string            `json:"error,omitempty"`
	Usage           TokenUsage        `json:"usage"`
}

// Errored reports whether this result represents a failed analysis
func (r ExtractionResult) Errored() bool { return r.Err != "" }

// KeywordList exposes keywords for categorization
func (r ExtractionResult) KeywordList() []string { return r.Keywords }

// MergedResult is one document's final record after combining its chunks.
// Sentiment is the averaged {-1, 0, 1} classification. Categories is set
// exactly once by the downstream categorization step.
type MergedResult struct {
	Filename        string            `json:"filename"`
	Paraphrase      string            `json:"paraphrase"`
	Sentiment       int               `json:"sentiment"`
	SentimentReason string            `json:"sentiment_reason"`
	Keywords        []string          `json:"keywords"`
	Checks          CheckSet          `json:"custom_checks"`
	CheckReasons    map[string]string `json:"custom_checks_reasons"`
	Categories      []string          `json:"keyword_category,omitempty"`
	ChunkCount      int               `json:"chunk_count"`
	Err             string            `json:"error,omitempty"`
	Usage           TokenUsage        `json:"usage"`
}

// Errored reports whether the merge produced no usable record
func (r MergedResult) Errored() bool { return r.Err != "" }

// KeywordList exposes keywords for categorization
func (r MergedResult) KeywordList() []string { return r.Keywords }

// CategoryMap maps a category name to the keywords assigned to it during
// clustering. Built once per result set, read-only afterward.
type CategoryMap map[string][]string
