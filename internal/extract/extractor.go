package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JustusHenke/QlassifAI/internal/llm"
	"github.com/JustusHenke/QlassifAI/internal/model"
)

// Options configures the extractor
type Options struct {
	// MaxRetries bounds the attempts per retryable failure class
	MaxRetries int

	// Temperature for extraction calls
	Temperature float32

	// MaxTokens for extraction responses
	MaxTokens int

	// ResearchQuestion is optional guidance injected into every prompt
	ResearchQuestion string

	// WithReasons requests per-attribute justifications
	WithReasons bool

	// Logf receives diagnostic messages (nil discards them)
	Logf func(string, ...interface{})
}

// Extractor runs one structured LLM extraction per unit of text and owns
// the retry policy around it. It never blocks past MaxRetries attempts and
// never returns an invalid result: terminal failures become structurally
// valid results with an error tag.
type Extractor struct {
	client llm.Completer
	schema *model.Schema
	opts   Options
	logf   func(string, ...interface{})
	sleep  func(time.Duration)
}

// New creates an extractor
func New(client llm.Completer, schema *model.Schema, opts Options) *Extractor {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Extractor{
		client: client,
		schema: schema,
		opts:   opts,
		logf:   logf,
		sleep:  time.Sleep,
	}
}

// retryState is the explicit state of one extraction call
type retryState int

const (
	stateAttempting retryState = iota
	stateBackingOff
	stateSucceeded
	stateFailed
)

// Backoff is a pure function of (failure class, attempt count). Attempt
// counts start at 0.
func Backoff(class llm.FailureClass, attempt int) time.Duration {
	switch class {
	case llm.FailureTimeout:
		return time.Duration(1<<uint(attempt)) * time.Second
	case llm.FailureRateLimit:
		return time.Duration(5*(attempt+1)) * time.Second
	case llm.FailureParse:
		return time.Second
	default:
		return 0
	}
}

// Extract analyzes one unit of text. Empty input short-circuits before any
// request is made.
func (e *Extractor) Extract(ctx context.Context, text string) model.ExtractionResult {
	if strings.TrimSpace(text) == "" {
		e.logf("empty text, skipping LLM call")
		return e.failed("empty text", []string{"empty", "none"})
	}

	prompt := BuildPrompt(text, e.schema, e.opts.ResearchQuestion, e.opts.WithReasons)
	req := llm.CompletionRequest{
		System:      SystemPrompt,
		Prompt:      prompt,
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	}

	var (
		state   = stateAttempting
		attempt = 0
		class   llm.FailureClass
		lastErr error
		result  model.ExtractionResult
	)

	for {
		switch state {
		case stateAttempting:
			e.logf("extraction attempt %d/%d", attempt+1, e.opts.MaxRetries)
			resp, err := e.client.Complete(ctx, req)
			if err != nil {
				class = llm.Classify(err)
				lastErr = err
				if class == llm.FailureService {
					// Service-reported errors are not retried.
					state = stateFailed
				} else if attempt+1 >= e.opts.MaxRetries {
					state = stateFailed
				} else {
					state = stateBackingOff
				}
				continue
			}

			parsed, perr := Parse(resp.Text, e.schema, e.logf)
			if perr != nil {
				class = llm.FailureParse
				lastErr = perr
				if attempt+1 >= e.opts.MaxRetries {
					state = stateFailed
				} else {
					state = stateBackingOff
				}
				continue
			}

			parsed.Usage = resp.Usage
			result = parsed
			state = stateSucceeded

		case stateBackingOff:
			wait := Backoff(class, attempt)
			e.logf("%s (attempt %d/%d), waiting %v before retry", class, attempt+1, e.opts.MaxRetries, wait)
			e.sleep(wait)
			attempt++
			state = stateAttempting

		case stateSucceeded:
			e.logf("extraction succeeded (tokens: %d)", result.Usage.TotalTokens)
			return result

		case stateFailed:
			var msg string
			switch class {
			case llm.FailureTimeout:
				msg = fmt.Sprintf("timeout after %d attempts", e.opts.MaxRetries)
			case llm.FailureRateLimit:
				msg = fmt.Sprintf("rate limit after %d attempts", e.opts.MaxRetries)
			default:
				msg = lastErr.Error()
			}
			e.logf("extraction failed: %s", msg)
			return e.failed(msg, []string{"error", class.String()})
		}
	}
}

// failed builds a structurally valid result for a failed unit: placeholder
// sentiment and two sentinel keywords so downstream consumers need no nil
// handling.
func (e *Extractor) failed(msg string, keywords []string) model.ExtractionResult {
	return model.ExtractionResult{
		Sentiment:    model.SentimentMixed,
		Keywords:     keywords,
		Checks:       model.CheckSet{},
		CheckReasons: map[string]string{},
		Err:          msg,
	}
}
