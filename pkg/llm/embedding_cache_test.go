package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	texts []string
	err   error
}

func (c *countingEmbedder) Name() string { return "counting" }

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts = append(c.texts, texts...)
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func newCached(t *testing.T, inner EmbeddingProvider) (*CachedEmbeddingProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCachedEmbeddingProvider(inner, rdb, nil), mr
}

func TestCachedEmbedSingle(t *testing.T) {
	inner := &countingEmbedder{}
	cached, _ := newCached(t, inner)
	ctx := context.Background()

	first, err := cached.EmbedSingle(ctx, "migraine")
	require.NoError(t, err)
	second, err := cached.EmbedSingle(ctx, "migraine")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "counting", cached.Name())
}

func TestCachedEmbed_OnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached, _ := newCached(t, inner)
	ctx := context.Background()

	_, err := cached.EmbedSingle(ctx, "a")
	require.NoError(t, err)
	inner.texts = nil

	out, err := cached.Embed(ctx, []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, out)
	assert.Equal(t, []string{"bb", "ccc"}, inner.texts)

	inner.texts = nil
	_, err = cached.Embed(ctx, []string{"a", "bb"})
	require.NoError(t, err)
	assert.Empty(t, inner.texts)
}

func TestCachedEmbed_CorruptEntryIsReplaced(t *testing.T) {
	inner := &countingEmbedder{}
	cached, mr := newCached(t, inner)
	ctx := context.Background()

	require.NoError(t, mr.Set(cached.cacheKey("x"), "not-json"))
	vec, err := cached.EmbedSingle(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedEmbed_ProviderError(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	cached, _ := newCached(t, inner)

	_, err := cached.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestCachedEmbed_RedisDownFallsThrough(t *testing.T) {
	inner := &countingEmbedder{}
	cached, mr := newCached(t, inner)
	mr.Close()

	vec, err := cached.EmbedSingle(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)
}

func TestClearCache(t *testing.T) {
	inner := &countingEmbedder{}
	cached, mr := newCached(t, inner)
	ctx := context.Background()

	_, err := cached.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, mr.Set("other:key", "keep"))

	n, err := cached.ClearCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("other:key"))
}

func TestCachedEmbed_NilRedis(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbeddingProvider(inner, nil, nil)
	_, err := cached.EmbedSingle(context.Background(), "a")
	require.NoError(t, err)
	_, err = cached.EmbedSingle(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

type pingEmbedder struct {
	countingEmbedder
	err error
}

func (p *pingEmbedder) Ping(context.Context) error { return p.err }

func TestCachedPing_ForwardsToProvider(t *testing.T) {
	down := &pingEmbedder{err: errors.New("ollama down")}
	c, _ := newCached(t, down)
	assert.EqualError(t, c.Ping(context.Background()), "ollama down")

	c, _ = newCached(t, &pingEmbedder{})
	assert.NoError(t, c.Ping(context.Background()))

	c, _ = newCached(t, &countingEmbedder{})
	assert.NoError(t, c.Ping(context.Background()))
}
