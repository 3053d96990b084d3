package categorize

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/JustusHenke/QlassifAI/internal/llm"
	"github.com/JustusHenke/QlassifAI/internal/model"
)

// fakeCompleter returns one scripted response for the clustering call
type fakeCompleter struct {
	text  string
	err   error
	calls int
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

// fakeRecord is a minimal analyzed unit
type fakeRecord struct {
	keywords []string
	errored  bool
}

func (r fakeRecord) KeywordList() []string { return r.keywords }
func (r fakeRecord) Errored() bool         { return r.errored }

func TestCollectKeywords(t *testing.T) {
	records := []Record{
		fakeRecord{keywords: []string{"Funding", "staff "}},
		fakeRecord{keywords: []string{"funding", "courses"}},
		fakeRecord{keywords: []string{"ignored"}, errored: true},
		fakeRecord{keywords: []string{"", "  "}},
	}

	got := CollectKeywords(records)

	want := []string{"courses", "funding", "staff"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCategorizer_Categorize_AssignsByCluster(t *testing.T) {
	client := &fakeCompleter{text: `{"Finance": ["funding", "grants"], "People": ["staff"]}`}
	c := New(client, Options{})

	records := []Record{
		fakeRecord{keywords: []string{"funding", "staff"}},
		fakeRecord{keywords: []string{"grants"}},
	}

	categories, assignments := c.Categorize(context.Background(), records)

	if client.calls != 1 {
		t.Errorf("expected exactly one clustering call, got %d", client.calls)
	}
	if len(categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(categories))
	}
	if !reflect.DeepEqual(assignments[0], []string{"Finance", "People"}) {
		t.Errorf("expected sorted category names, got %v", assignments[0])
	}
	if !reflect.DeepEqual(assignments[1], []string{"Finance"}) {
		t.Errorf("expected [Finance], got %v", assignments[1])
	}
}

func TestCategorizer_Categorize_EmptyUniverse(t *testing.T) {
	client := &fakeCompleter{text: `{}`}
	c := New(client, Options{})

	records := []Record{
		fakeRecord{errored: true},
		fakeRecord{keywords: nil},
	}

	categories, assignments := c.Categorize(context.Background(), records)

	if client.calls != 0 {
		t.Errorf("expected no clustering call for an empty universe, got %d", client.calls)
	}
	if len(categories) != 0 {
		t.Errorf("expected empty category map, got %v", categories)
	}
	for i, a := range assignments {
		if !reflect.DeepEqual(a, []string{NoneCategory}) {
			t.Errorf("record %d: expected [none], got %v", i, a)
		}
	}
}

func TestCategorizer_Categorize_ClusteringFailureFallsBack(t *testing.T) {
	client := &fakeCompleter{err: errors.New("service unavailable")}
	c := New(client, Options{})

	records := []Record{fakeRecord{keywords: []string{"funding", "staff"}}}

	categories, assignments := c.Categorize(context.Background(), records)

	if _, ok := categories[FallbackCategory]; !ok {
		t.Fatalf("expected fallback category %q, got %v", FallbackCategory, categories)
	}
	if !reflect.DeepEqual(assignments[0], []string{FallbackCategory}) {
		t.Errorf("expected [%s], got %v", FallbackCategory, assignments[0])
	}
}

func TestCategorizer_Categorize_UnparseableClusterResponse(t *testing.T) {
	client := &fakeCompleter{text: "I would group these as follows..."}
	c := New(client, Options{})

	records := []Record{fakeRecord{keywords: []string{"funding"}}}

	categories, _ := c.Categorize(context.Background(), records)

	if _, ok := categories[FallbackCategory]; !ok {
		t.Errorf("expected fallback on unparseable response, got %v", categories)
	}
}

func TestCategorizer_Categorize_FencedClusterResponse(t *testing.T) {
	client := &fakeCompleter{text: "```json\n{\"Finance\": [\"funding\"]}\n```"}
	c := New(client, Options{})

	records := []Record{fakeRecord{keywords: []string{"funding"}}}

	categories, _ := c.Categorize(context.Background(), records)

	if _, ok := categories["Finance"]; !ok {
		t.Errorf("expected fenced response to parse, got %v", categories)
	}
}

func TestCategorizer_Assign_Tiers(t *testing.T) {
	c := New(&fakeCompleter{}, Options{})
	categories := model.CategoryMap{
		"Finance": {"financial aid", "funding"},
		"People":  {"staff"},
	}

	cases := []struct {
		name     string
		keywords []string
		want     []string
	}{
		{"exact match", []string{"funding"}, []string{"Finance"}},
		{"substring: keyword contains entry", []string{"financial aid support"}, []string{"Finance"}},
		{"substring: entry contains keyword", []string{"financial"}, []string{"Finance"}},
		{"token overlap", []string{"aid programs"}, []string{"Finance"}},
		{"no match", []string{"weather"}, []string{OtherCategory}},
		{"multiple categories sorted", []string{"funding", "staff"}, []string{"Finance", "People"}},
	}

	for _, tc := range cases {
		got := c.Assign(fakeRecord{keywords: tc.keywords}, categories)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCategorizer_Assign_MultiWordKeywordVariant(t *testing.T) {
	c := New(&fakeCompleter{}, Options{})
	categories := model.CategoryMap{"Finance": {"financial support"}}

	// Neither string contains the other; the shared tokens must still carry
	// the variant into the category.
	got := c.Assign(fakeRecord{keywords: []string{"financial aid support"}}, categories)
	if !reflect.DeepEqual(got, []string{"Finance"}) {
		t.Errorf("expected [Finance], got %v", got)
	}
}

func TestCategorizer_Assign_Sentinels(t *testing.T) {
	c := New(&fakeCompleter{}, Options{})
	categories := model.CategoryMap{"Finance": {"funding"}}

	if got := c.Assign(fakeRecord{errored: true, keywords: []string{"funding"}}, categories); !reflect.DeepEqual(got, []string{NoneCategory}) {
		t.Errorf("errored record: expected [none], got %v", got)
	}
	if got := c.Assign(fakeRecord{}, categories); !reflect.DeepEqual(got, []string{NoneCategory}) {
		t.Errorf("keywordless record: expected [none], got %v", got)
	}
}

func TestBuildClusterPrompt_CapsKeywordList(t *testing.T) {
	keywords := make([]string, MaxPromptKeywords+25)
	for i := range keywords {
		keywords[i] = "kw" + strings.Repeat("x", i%7)
	}

	prompt := BuildClusterPrompt(keywords)

	if !strings.Contains(prompt, "(+25 more)") {
		t.Error("expected the remainder note for a capped list")
	}

	short := BuildClusterPrompt([]string{"funding", "staff"})
	if strings.Contains(short, "more)") {
		t.Error("short lists should not carry a remainder note")
	}
	if !strings.Contains(short, "funding, staff") {
		t.Error("expected the keywords to be listed")
	}
}
