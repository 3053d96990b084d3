package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledCompleter bounds the request rate against the remote service.
// The pipeline is strictly sequential, so a single shared limiter is enough;
// all waiting is a blocking Wait before the call goes out.
type ThrottledCompleter struct {
	inner   Completer
	limiter *rate.Limiter
}

// NewThrottledCompleter wraps inner with a rate limiter
func NewThrottledCompleter(inner Completer, requestsPerSecond float64, burst int) *ThrottledCompleter {
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledCompleter{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Name returns the wrapped provider name
func (t *ThrottledCompleter) Name() string {
	return t.inner.Name()
}

// Complete waits for rate limit clearance, then delegates
func (t *ThrottledCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Complete(ctx, req)
}
