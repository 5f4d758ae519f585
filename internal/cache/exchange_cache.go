package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"docanalyst/internal/model"
)

// ExchangeCache keeps a document's recent exchanges in Redis. A short-lived
// dirty marker is set while a new exchange may still be in flight so readers
// go to the database instead of serving a stale list.
type ExchangeCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewExchangeCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *ExchangeCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &ExchangeCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *ExchangeCache) GetExchanges(ctx context.Context, documentID uint) ([]model.Exchange, bool, error) {
	raw, err := c.client.Get(ctx, c.historyKey(documentID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get exchanges failed: %w", err)
	}

	var exchanges []model.Exchange
	if err := json.Unmarshal([]byte(raw), &exchanges); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached exchanges failed: %w", err)
	}
	return exchanges, true, nil
}

func (c *ExchangeCache) SetExchanges(ctx context.Context, documentID uint, exchanges []model.Exchange) error {
	payload, err := json.Marshal(exchanges)
	if err != nil {
		return fmt.Errorf("marshal exchanges cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(documentID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set exchanges failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached list and marks the document dirty.
func (c *ExchangeCache) Invalidate(ctx context.Context, documentID uint) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.dirtyKey(documentID), "1", c.dirtyMarkerTTL)
	pipe.Del(ctx, c.historyKey(documentID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate exchanges failed: %w", err)
	}
	return nil
}

func (c *ExchangeCache) IsDirty(ctx context.Context, documentID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(documentID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *ExchangeCache) historyKey(documentID uint) string {
	return fmt.Sprintf("analysis:exchanges:%d", documentID)
}

func (c *ExchangeCache) dirtyKey(documentID uint) string {
	return fmt.Sprintf("analysis:exchanges:dirty:%d", documentID)
}
