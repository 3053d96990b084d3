package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/JustusHenke/QlassifAI/internal/extract"
	"github.com/JustusHenke/QlassifAI/internal/llm"
	"github.com/JustusHenke/QlassifAI/internal/model"
)

const (
	// MaxPromptKeywords caps the keyword universe sent to the clustering call
	MaxPromptKeywords = 150

	// FallbackCategory holds every keyword when clustering fails
	FallbackCategory = "General"

	// NoneCategory marks records with no keywords or a prior error
	NoneCategory = "none"

	// OtherCategory marks records whose keywords matched no category
	OtherCategory = "other"
)

const systemPrompt = "You are an expert in thematic categorization. Always answer in JSON format."

// Record is the view of an analyzed unit the categorizer needs
type Record interface {
	KeywordList() []string
	Errored() bool
}

// Options configures the categorizer
type Options struct {
	Temperature float32
	MaxTokens   int
	Logf        func(string, ...interface{})
}

// Categorizer clusters the keyword universe of a result set into named
// categories with one LLM call, then assigns each record's keywords to
// categories with a layered matching strategy. The clustering call sees a
// possibly truncated universe and will not perfectly echo every keyword
// variant, so assignment degrades through fallback tiers instead of losing
// records.
type Categorizer struct {
	client llm.Completer
	opts   Options
	logf   func(string, ...interface{})
}

// New creates a categorizer
func New(client llm.Completer, opts Options) *Categorizer {
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 3000
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Categorizer{client: client, opts: opts, logf: logf}
}

// Categorize runs the full pass: collect, cluster, assign. The returned
// category lists align 1:1 with the input order. Clustering failures fall
// back to a single catch-all category; this step never aborts the batch.
func (c *Categorizer) Categorize(ctx context.Context, records []Record) (model.CategoryMap, [][]string) {
	keywords := CollectKeywords(records)

	if len(keywords) == 0 {
		c.logf("no keywords found, skipping categorization")
		assignments := make([][]string, len(records))
		for i := range assignments {
			assignments[i] = []string{NoneCategory}
		}
		return model.CategoryMap{}, assignments
	}

	categories := c.cluster(ctx, keywords)

	assignments := make([][]string, len(records))
	for i, record := range records {
		assignments[i] = c.Assign(record, categories)
	}

	c.logf("categorization complete: %d categories, %d records", len(categories), len(records))
	return categories, assignments
}

// CollectKeywords lower-cases, trims and de-duplicates all keywords from
// non-errored records into a sorted universe.
func CollectKeywords(records []Record) []string {
	seen := make(map[string]bool)
	for _, record := range records {
		if record.Errored() {
			continue
		}
		for _, kw := range record.KeywordList() {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				seen[kw] = true
			}
		}
	}

	keywords := make([]string, 0, len(seen))
	for kw := range seen {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}

// cluster issues the single clustering call and parses the category map.
// Any failure yields the catch-all fallback.
func (c *Categorizer) cluster(ctx context.Context, keywords []string) model.CategoryMap {
	c.logf("clustering %d keywords", len(keywords))

	resp, err := c.client.Complete(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      BuildClusterPrompt(keywords),
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		c.logf("clustering call failed: %v, falling back to single category", err)
		return model.CategoryMap{FallbackCategory: keywords}
	}

	var categories model.CategoryMap
	if err := json.Unmarshal([]byte(extract.StripFences(resp.Text)), &categories); err != nil {
		c.logf("clustering response unparseable: %v, falling back to single category", err)
		return model.CategoryMap{FallbackCategory: keywords}
	}
	if len(categories) == 0 {
		c.logf("clustering returned no categories, falling back to single category")
		return model.CategoryMap{FallbackCategory: keywords}
	}

	return categories
}

// BuildClusterPrompt constructs the clustering instruction. The keyword
// list is capped with an explicit remainder note to bound prompt size.
func BuildClusterPrompt(keywords []string) string {
	shown := keywords
	var more int
	if len(shown) > MaxPromptKeywords {
		more = len(shown) - MaxPromptKeywords
		shown = shown[:MaxPromptKeywords]
	}

	list := strings.Join(shown, ", ")
	if more > 0 {
		list += fmt.Sprintf(" ... (+%d more)", more)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Given the following list of keywords:\n%s\n\n", list)
	b.WriteString("Develop 5-10 thematic categories that group these keywords.\n")
	b.WriteString("Assign every keyword to exactly one category, keeping the keyword strings exactly as given.\n\n")
	b.WriteString("Response format (follow strictly):\n")
	b.WriteString("{\n  \"Category_1\": [\"keyword1\", \"keyword2\", ...],\n  \"Category_2\": [\"keyword3\", \"keyword4\", ...],\n  ...\n}\n\n")
	b.WriteString("IMPORTANT: Answer ONLY with the JSON object, no additional text.")
	return b.String()
}

// Assign maps one record's keywords onto categories through three fallback
// tiers, stopping per keyword at the first tier that matches: exact
// membership, substring containment in either direction, shared token.
func (c *Categorizer) Assign(record Record, categories model.CategoryMap) []string {
	if record.Errored() || len(record.KeywordList()) == 0 {
		return []string{NoneCategory}
	}

	matched := make(map[string]bool)
	for _, kw := range record.KeywordList() {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if category, ok := findCategory(kw, categories); ok {
			matched[category] = true
		} else {
			c.logf("keyword %q matched no category", kw)
		}
	}

	if len(matched) == 0 {
		return []string{OtherCategory}
	}

	names := make([]string, 0, len(matched))
	for name := range matched {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func findCategory(keyword string, categories model.CategoryMap) (string, bool) {
	// Deterministic iteration over the map.
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	// Tier 1: exact case-insensitive membership.
	for _, name := range names {
		for _, ck := range categories[name] {
			if strings.ToLower(strings.TrimSpace(ck)) == keyword {
				return name, true
			}
		}
	}

	// Tier 2: substring containment in either direction, catching
	// multi-word keyword variants.
	for _, name := range names {
		for _, ck := range categories[name] {
			lck := strings.ToLower(strings.TrimSpace(ck))
			if lck == "" {
				continue
			}
			if strings.Contains(keyword, lck) || strings.Contains(lck, keyword) {
				return name, true
			}
		}
	}

	// Tier 3: token overlap.
	kwTokens := strings.Fields(keyword)
	for _, name := range names {
		for _, ck := range categories[name] {
			for _, token := range strings.Fields(strings.ToLower(ck)) {
				for _, kt := range kwTokens {
					if token == kt {
						return name, true
					}
				}
			}
		}
	}

	return "", false
}
