package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JustusHenke/QlassifAI/internal/cache"
)

// CachedCompleter memoizes completion responses. Reruns over the same
// survey rows or document chunks skip the API call entirely, which matters
// when a batch is restarted after a partial failure.
type CachedCompleter struct {
	inner Completer
	store cache.Cache
	ttl   time.Duration
	model string
}

// NewCachedCompleter wraps inner with a response cache. The model name is
// part of every cache key so a persisted cache survives model switches.
func NewCachedCompleter(inner Completer, store cache.Cache, ttl time.Duration, model string) *CachedCompleter {
	return &CachedCompleter{inner: inner, store: store, ttl: ttl, model: model}
}

// Name returns the wrapped provider name
func (c *CachedCompleter) Name() string {
	return c.inner.Name()
}

// Complete serves from the cache when possible, otherwise delegates and
// stores the response. Cache write failures are ignored: a completion that
// cost tokens must never be dropped because the cache is unhappy.
func (c *CachedCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	key := cache.CompletionKey(c.inner.Name(), c.model, req.Temperature, req.MaxTokens, req.System, req.Prompt)

	if data, found := c.store.Get(key); found {
		var resp CompletionResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
		_ = c.store.Delete(key)
	}

	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = c.store.Set(key, data, c.ttl)
	}

	return resp, nil
}
