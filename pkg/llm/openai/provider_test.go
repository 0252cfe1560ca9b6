package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/astramed/pkg/llm"
	"github.com/kart-io/astramed/pkg/utils/httpclient"
)

const testAPIKey = "test-key"

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	return NewProviderWithConfig(cfg)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(map[string]any{"api_key": testAPIKey, "chat_model": "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())

	_, err = NewProvider(map[string]any{})
	assert.Error(t, err)
}

func TestProviderEmbed_ReordersByIndex(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.4,0.5],"index":1},{"embedding":[0.1,0.2],"index":0}]}`))
	})

	embeddings, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.4, 0.5}, embeddings[1])
}

func TestProviderEmbed_Missing(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1],"index":0}]}`))
	})

	_, err := p.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestProviderChat_Temperature(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.5, req["temperature"])
		assert.Equal(t, "gpt-4o-mini", req["model"])
		msgs := req["messages"].([]any)
		assert.Len(t, msgs, 2)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"bonjour"}}]}`))
	})

	out, err := p.Generate(context.Background(), "q", "sys", llm.WithTemperature(0.5))
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)
}

func TestProviderChat_OmitsTemperatureByDefault(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, has := req["temperature"]
		assert.False(t, has)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}})
	require.NoError(t, err)
}

func TestProviderChat_Errors(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	_, err := p.Generate(context.Background(), "q", "")
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)

	empty := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err = empty.Generate(context.Background(), "q", "")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestProviderPing(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4o-mini"}]}`))
	})
	require.NoError(t, p.Ping(context.Background()))

	down := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	})
	err := down.Ping(context.Background())
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}
