package astramed

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/astramed/internal/astramed/biz"
	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/pkg/llm"
	astramedopts "github.com/kart-io/astramed/pkg/options/astramed"
	llmopts "github.com/kart-io/astramed/pkg/options/llm"
	httpopts "github.com/kart-io/astramed/pkg/options/server/http"
	sqliteopts "github.com/kart-io/astramed/pkg/options/sqlite"
	tracingopts "github.com/kart-io/astramed/pkg/options/tracing"
	errs "github.com/kart-io/astramed/pkg/utils/errors"
)

type stubProvider struct{}

func (stubProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubProvider) EmbedSingle(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (stubProvider) Chat(context.Context, []llm.Message, ...llm.GenerateOption) (string, error) {
	return "Buvez de l'eau régulièrement.", nil
}

func (stubProvider) Generate(context.Context, string, string, ...llm.GenerateOption) (string, error) {
	return "Buvez de l'eau régulièrement.", nil
}

func (stubProvider) Name() string { return "stub" }

type unreachableProvider struct{ stubProvider }

func (unreachableProvider) Ping(context.Context) error {
	return stderrors.New("dial tcp 127.0.0.1:11434: connect: connection refused")
}

func init() {
	llm.RegisterProvider("stub", func(map[string]any) (llm.Provider, error) {
		return stubProvider{}, nil
	})
	llm.RegisterProvider("stub-unreachable", func(map[string]any) (llm.Provider, error) {
		return unreachableProvider{}, nil
	})
}

const testCorpus = `documents:
  - question: Quels sont les symptômes du diabète ?
    answer: Soif intense et fatigue.
    source: Fiche diabète
    focus_area: Diabète
    embedding: [1, 0]
  - question: Comment soigner un rhume ?
    answer: Repos et hydratation.
    embedding: [0, 1]
`

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0o600))

	httpOpts := httpopts.NewOptions()
	httpOpts.Mode = "test"
	httpOpts.Addr = "127.0.0.1:0"

	embedding := llmopts.NewEmbeddingOptions()
	embedding.Provider = "stub"
	chat := llmopts.NewChatOptions()
	chat.Provider = "stub"

	opts := astramedopts.NewOptions()
	opts.Store = astramedopts.StoreMemory
	opts.CorpusPath = path
	opts.Feedback = astramedopts.FeedbackMemory

	return &Config{
		HTTPOptions:      httpOpts,
		TracingOptions:   tracingopts.NewOptions(),
		EmbeddingOptions: embedding,
		ChatOptions:      chat,
		AstraMedOptions:  opts,
		ShutdownTimeout:  time.Second,
	}
}

func TestNewServer_MemoryBackends(t *testing.T) {
	srv, err := newTestConfig(t).NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	h := srv.Handler()

	body := `{"question":"Quels sont les symptômes du diabète ?","similarity_threshold":0.5}`
	req := httptest.NewRequest(http.MethodPost, "/answer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var res model.ResponseResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.TypeMedical, res.Type)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, "Soif intense et fatigue.", res.Answers[0].Message)
	assert.Equal(t, "Fiche diabète", res.Answers[0].Metadata.Source)
	assert.Contains(t, res.GeneratedResponse, strings.TrimSpace(biz.LocaleFR.Disclaimer))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "astramed_")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewServer_Feedback(t *testing.T) {
	srv, err := newTestConfig(t).NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"question":"q","rating":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Feedback enregistré")
}

func TestNewServer_MetricsDisabled(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AstraMedOptions.MetricsEnabled = false
	srv, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewServer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
		want   string
	}{
		{"unknown embedding provider", func(cfg *Config) { cfg.EmbeddingOptions.Provider = "nope" }, "embedding provider"},
		{"unknown chat provider", func(cfg *Config) { cfg.ChatOptions.Provider = "nope" }, "chat provider"},
		{"missing corpus", func(cfg *Config) { cfg.AstraMedOptions.CorpusPath = "/nonexistent/corpus.yaml" }, "load corpus"},
		{"unknown store", func(cfg *Config) { cfg.AstraMedOptions.Store = "faiss" }, "unknown vector store"},
		{"unknown sink", func(cfg *Config) { cfg.AstraMedOptions.Feedback = "kafka" }, "unknown feedback sink"},
		{"unknown strategy", func(cfg *Config) { cfg.AstraMedOptions.Router.Strategy = "agent" }, "unknown router strategy"},
		{"embedding backend unreachable", func(cfg *Config) { cfg.EmbeddingOptions.Provider = "stub-unreachable" }, "embedding provider unreachable"},
		{"chat backend unreachable", func(cfg *Config) { cfg.ChatOptions.Provider = "stub-unreachable" }, "chat provider unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			tt.modify(cfg)
			_, err := cfg.NewServer(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewServer_UnreachableLLMIsFatal(t *testing.T) {
	for _, role := range []string{"embedding", "chat"} {
		t.Run(role, func(t *testing.T) {
			cfg := newTestConfig(t)
			if role == "embedding" {
				cfg.EmbeddingOptions.Provider = "stub-unreachable"
			} else {
				cfg.ChatOptions.Provider = "stub-unreachable"
			}

			srv, err := cfg.NewServer(context.Background())
			require.Error(t, err)
			assert.Nil(t, srv)
			assert.ErrorIs(t, err, errs.ErrLLMUnavailable)
			assert.Contains(t, err.Error(), "connection refused")
		})
	}
}

func TestNewServer_Swagger(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AstraMedOptions.SwaggerEnabled = true
	srv, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/answer")
}

func TestNewServer_EmbeddingAndLLMStrategies(t *testing.T) {
	for _, s := range []string{astramedopts.StrategyEmbedding, astramedopts.StrategyLLM} {
		t.Run(s, func(t *testing.T) {
			cfg := newTestConfig(t)
			cfg.AstraMedOptions.Router.Strategy = s
			srv, err := cfg.NewServer(context.Background())
			require.NoError(t, err)
			_ = srv.Close(context.Background())
		})
	}
}

func TestNewServer_SQLiteFeedback(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AstraMedOptions.Feedback = astramedopts.FeedbackSQLite
	cfg.SQLiteOptions = sqliteTestOptions()
	srv, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	require.NoError(t, srv.Service().SubmitFeedback(context.Background(), &model.FeedbackRecord{Question: "q", Rating: 1}))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"feedback":"ok"`)
}

func sqliteTestOptions() *sqliteopts.Options {
	o := sqliteopts.NewOptions()
	o.Path = ":memory:"
	return o
}
