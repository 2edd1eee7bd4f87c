package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const SuggestionKeyPrefix = "suggest:advanced"

// SuggestionCacheRepository stores rendered advanced-suggestion responses.
type SuggestionCacheRepository struct {
	Client *redis.Client
}

func SuggestionKey(viewerID uint64) string {
	return fmt.Sprintf("%s:%d", SuggestionKeyPrefix, viewerID)
}

// Get returns the cached bytes. ok is false on a miss.
func (r *SuggestionCacheRepository) Get(ctx context.Context, viewerID uint64) ([]byte, bool, error) {
	b, err := r.Client.Get(ctx, SuggestionKey(viewerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *SuggestionCacheRepository) Set(ctx context.Context, viewerID uint64, body []byte, ttl time.Duration) error {
	return r.Client.Set(ctx, SuggestionKey(viewerID), body, ttl).Err()
}

// Delete drops the entries of every viewer in ids.
func (r *SuggestionCacheRepository) Delete(ctx context.Context, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = SuggestionKey(id)
	}
	return r.Client.Del(ctx, keys...).Err()
}
