package extract

import (
	"context"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JustusHenke/QlassifAI/internal/llm"
	"github.com/JustusHenke/QlassifAI/internal/model"
)

// fakeCompleter returns scripted responses in order, repeating the last one
type fakeCompleter struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++

	r := f.responses[i]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.CompletionResponse{
		Text:  r.text,
		Usage: model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

const validBody = `{"paraphrase": "ok", "sentiment": "positive", "keywords": ["a", "b"], "custom_checks": {"mentions_funding": true}}`

// newTestExtractor wires an extractor with recorded sleeps instead of real ones
func newTestExtractor(t *testing.T, client llm.Completer) (*Extractor, *[]time.Duration) {
	t.Helper()

	e := New(client, testSchema(t), Options{MaxRetries: 3})
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	return e, &slept
}

func TestExtractor_Extract_Success(t *testing.T) {
	client := &fakeCompleter{responses: []fakeResponse{{text: validBody}}}
	e, slept := newTestExtractor(t, client)

	result := e.Extract(context.Background(), "Some answer.")

	if result.Errored() {
		t.Fatalf("unexpected failure: %s", result.Err)
	}
	if client.calls != 1 {
		t.Errorf("expected 1 call, got %d", client.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("expected no backoff on success, slept %v", *slept)
	}
	if result.Usage.TotalTokens != 15 {
		t.Errorf("expected token usage to be carried, got %d", result.Usage.TotalTokens)
	}
}

func TestExtractor_Extract_EmptyTextShortCircuits(t *testing.T) {
	client := &fakeCompleter{responses: []fakeResponse{{text: validBody}}}
	e, _ := newTestExtractor(t, client)

	result := e.Extract(context.Background(), "   \n\t ")

	if !result.Errored() {
		t.Fatal("expected empty text to produce a failed result")
	}
	if result.Err != "empty text" {
		t.Errorf("expected error tag 'empty text', got %q", result.Err)
	}
	if client.calls != 0 {
		t.Errorf("expected no LLM calls for empty text, got %d", client.calls)
	}
	if len(result.Keywords) != 2 || result.Keywords[0] != "empty" || result.Keywords[1] != "none" {
		t.Errorf("expected sentinel keywords [empty none], got %v", result.Keywords)
	}
	if result.Sentiment != model.SentimentMixed {
		t.Errorf("expected placeholder sentiment mixed, got %q", result.Sentiment)
	}
	if result.Checks == nil || result.CheckReasons == nil {
		t.Error("failed results must carry non-nil maps")
	}
}

func TestExtractor_Extract_TimeoutExponentialBackoff(t *testing.T) {
	client := &fakeCompleter{responses: []fakeResponse{
		{err: context.DeadlineExceeded},
		{err: context.DeadlineExceeded},
		{err: context.DeadlineExceeded},
	}}
	e, slept := newTestExtractor(t, client)

	result := e.Extract(context.Background(), "text")

	if !result.Errored() {
		t.Fatal("expected failure after exhausting retries")
	}
	if result.Err != "timeout after 3 attempts" {
		t.Errorf("unexpected error message: %q", result.Err)
	}
	if client.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", client.calls)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("backoff %d: expected %v, got %v", i, d, (*slept)[i])
		}
	}
	if result.Keywords[0] != "error" || result.Keywords[1] != "timeout" {
		t.Errorf("expected sentinel keywords [error timeout], got %v", result.Keywords)
	}
}

func TestExtractor_Extract_RateLimitLinearBackoff(t *testing.T) {
	rateErr := &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}
	client := &fakeCompleter{responses: []fakeResponse{
		{err: rateErr},
		{err: rateErr},
		{text: validBody},
	}}
	e, slept := newTestExtractor(t, client)

	result := e.Extract(context.Background(), "text")

	if result.Errored() {
		t.Fatalf("expected success on third attempt, got %s", result.Err)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("backoff %d: expected %v, got %v", i, d, (*slept)[i])
		}
	}
}

func TestExtractor_Extract_ParseFailureRetriesWithFixedDelay(t *testing.T) {
	client := &fakeCompleter{responses: []fakeResponse{
		{text: "this is not JSON"},
		{text: validBody},
	}}
	e, slept := newTestExtractor(t, client)

	result := e.Extract(context.Background(), "text")

	if result.Errored() {
		t.Fatalf("expected recovery after parse failure, got %s", result.Err)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", client.calls)
	}
	if len(*slept) != 1 || (*slept)[0] != time.Second {
		t.Errorf("expected one 1s parse backoff, got %v", *slept)
	}
}

func TestExtractor_Extract_ServiceErrorNotRetried(t *testing.T) {
	client := &fakeCompleter{responses: []fakeResponse{
		{err: &openai.APIError{HTTPStatusCode: 500, Message: "internal error"}},
	}}
	e, slept := newTestExtractor(t, client)

	result := e.Extract(context.Background(), "text")

	if !result.Errored() {
		t.Fatal("expected failure for service error")
	}
	if client.calls != 1 {
		t.Errorf("service errors must not be retried, got %d calls", client.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("expected no backoffs, got %v", *slept)
	}
	if result.Keywords[0] != "error" || result.Keywords[1] != "api" {
		t.Errorf("expected sentinel keywords [error api], got %v", result.Keywords)
	}
}

func TestExtractor_Extract_ParseFailureExhaustsRetries(t *testing.T) {
	client := &fakeCompleter{responses: []fakeResponse{{text: "garbage"}}}
	e, slept := newTestExtractor(t, client)

	result := e.Extract(context.Background(), "text")

	if !result.Errored() {
		t.Fatal("expected failure after exhausted parse retries")
	}
	if client.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", client.calls)
	}
	if len(*slept) != 2 {
		t.Errorf("expected 2 backoffs, got %v", *slept)
	}
	if result.Keywords[1] != "parse" {
		t.Errorf("expected parse sentinel keyword, got %v", result.Keywords)
	}
}

func TestBackoff(t *testing.T) {
	cases := []struct {
		class   llm.FailureClass
		attempt int
		want    time.Duration
	}{
		{llm.FailureTimeout, 0, 1 * time.Second},
		{llm.FailureTimeout, 1, 2 * time.Second},
		{llm.FailureTimeout, 2, 4 * time.Second},
		{llm.FailureRateLimit, 0, 5 * time.Second},
		{llm.FailureRateLimit, 1, 10 * time.Second},
		{llm.FailureRateLimit, 2, 15 * time.Second},
		{llm.FailureParse, 0, 1 * time.Second},
		{llm.FailureParse, 5, 1 * time.Second},
		{llm.FailureService, 0, 0},
	}

	for _, tc := range cases {
		if got := Backoff(tc.class, tc.attempt); got != tc.want {
			t.Errorf("Backoff(%v, %d) = %v, want %v", tc.class, tc.attempt, got, tc.want)
		}
	}
}
