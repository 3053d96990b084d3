package llm

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/JustusHenke/QlassifAI/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

// Completer is the single point of contact with the LLM service: a
// structured completion given a prompt, returning raw text plus usage.
// Extraction and clustering logic is tested against fake implementations.
type Completer interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw response text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is the input for one completion call
type CompletionRequest struct {
	// System primes the model's role
	System string

	// Prompt is the user instruction
	Prompt string

	// Temperature controls sampling (the pipeline uses ~0.3 throughout)
	Temperature float32

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse is the raw completion output
type CompletionResponse struct {
	Text  string
	Usage model.TokenUsage
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai" or "openrouter"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the service
	APIKey string

	// BaseURL for custom endpoints (set automatically for OpenRouter)
	BaseURL string

	// Timeout per API request
	Timeout time.Duration
}

// FailureClass groups service errors by retry behavior
type FailureClass int

const (
	// FailureNone means the call succeeded
	FailureNone FailureClass = iota

	// FailureTimeout is a transport timeout: exponential backoff
	FailureTimeout

	// FailureRateLimit is a 429: linear backoff
	FailureRateLimit

	// FailureParse is a malformed or empty response body: short fixed delay
	FailureParse

	// FailureService is any other service-reported error: no retry
	FailureService
)

// String returns the error tag used in failed results
func (c FailureClass) String() string {
	switch c {
	case FailureTimeout:
		return "timeout"
	case FailureRateLimit:
		return "rate-limit"
	case FailureParse:
		return "parse"
	case FailureService:
		return "api"
	default:
		return "none"
	}
}

// Classify maps a transport error onto its failure class
func Classify(err error) FailureClass {
	if err == nil {
		return FailureNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return FailureRateLimit
		}
		if apiErr.HTTPStatusCode == 408 || apiErr.HTTPStatusCode == 504 {
			return FailureTimeout
		}
		return FailureService
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return FailureRateLimit
		}
		return FailureService
	}

	return FailureService
}
