package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/model"
)

func newTestCache(t *testing.T) (*ExchangeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewExchangeCache(client, time.Minute, 5*time.Second), mr
}

func TestExchangeCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetExchanges(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	answer := "Covered."
	require.NoError(t, c.SetExchanges(ctx, 7, []model.Exchange{
		{ID: 1, DocumentID: 7, Question: "q", Answer: &answer, Evidence: []string{}, Outcome: "fallback"},
		{ID: 2, DocumentID: 7, Question: "q2", Outcome: "failed"},
	}))
	assert.Equal(t, time.Minute, mr.TTL("analysis:exchanges:7"))

	got, ok, err := c.GetExchanges(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Answer)
	assert.Equal(t, "Covered.", *got[0].Answer)
	assert.Nil(t, got[1].Answer)
}

func TestExchangeCache_InvalidateMarksDirty(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetExchanges(ctx, 7, []model.Exchange{{ID: 1, DocumentID: 7}}))
	require.NoError(t, c.SetExchanges(ctx, 8, []model.Exchange{{ID: 2, DocumentID: 8}}))

	require.NoError(t, c.Invalidate(ctx, 7))

	assert.False(t, mr.Exists("analysis:exchanges:7"))
	assert.True(t, mr.Exists("analysis:exchanges:8"))

	dirty, err := c.IsDirty(ctx, 7)
	require.NoError(t, err)
	assert.True(t, dirty)
	dirty, err = c.IsDirty(ctx, 8)
	require.NoError(t, err)
	assert.False(t, dirty)

	mr.FastForward(6 * time.Second)
	dirty, err = c.IsDirty(ctx, 7)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestExchangeCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("analysis:exchanges:9", "not json"))

	_, ok, err := c.GetExchanges(context.Background(), 9)
	assert.Error(t, err)
	assert.False(t, ok)
}
