package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CompletionKey generates a cache key for one completion call. The key
// covers everything that influences the response text, so identical inputs
// within the TTL are served without a second API call.
func CompletionKey(provider, model string, temperature float32, maxTokens int, system, prompt string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%.3f\x00%d\x00%s\x00%s", provider, model, temperature, maxTokens, system, prompt)))
	return "qlassifai:v1:" + hex.EncodeToString(hash[:])
}
