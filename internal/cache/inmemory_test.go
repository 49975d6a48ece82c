package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/logger"
)

func newTestCache(enabled bool) *InMemoryCache {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	cfg.Cache.TTL = time.Minute
	return NewInMemoryCache(cfg, logger.NewNopLogger())
}

func TestInMemoryCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	c.Set(ctx, GenerateKey(PrefixNumbering, "view"), 42, 0)
	v, ok := c.Get(ctx, GenerateKey(PrefixNumbering, "view"))
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	c.Delete(ctx, GenerateKey(PrefixNumbering, "view"))
	_, ok = c.Get(ctx, GenerateKey(PrefixNumbering, "view"))
	assert.False(t, ok)
}

func TestInMemoryCacheDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	c.Set(ctx, GenerateKey(PrefixNumbering, "a"), 1, 0)
	c.Set(ctx, GenerateKey(PrefixNumbering, "b"), 2, 0)
	c.Set(ctx, "other:a", 3, 0)

	c.DeleteByPrefix(ctx, PrefixNumbering)

	_, ok := c.Get(ctx, GenerateKey(PrefixNumbering, "a"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixNumbering, "b"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, "other:a")
	assert.True(t, ok)
}

func TestInMemoryCacheDisabled(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(false)

	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "numbering:v1::view", GenerateKey(PrefixNumbering, "view"))
}
