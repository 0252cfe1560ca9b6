package biz

import (
	"context"
	"sync"

	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/pkg/llm"
)

type fakeStore struct {
	hits  []store.ScoredDocument
	err   error
	calls int
	lastK int
}

func (f *fakeStore) Search(_ context.Context, _ string, k int) ([]store.ScoredDocument, error) {
	f.calls++
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	out := make([]store.ScoredDocument, len(f.hits))
	copy(out, f.hits)
	return out, nil
}

func (f *fakeStore) Name() string { return "fake" }
func (f *fakeStore) Close() error { return nil }

func hit(answer string, score float64) store.ScoredDocument {
	return store.ScoredDocument{
		Document: model.Document{Content: "q:" + answer, Answer: answer, Source: "src:" + answer, Topic: "topic:" + answer},
		Score:    score,
	}
}

type chatCall struct {
	prompt      string
	system      string
	temperature *float64
	maxTokens   int
}

type fakeChat struct {
	mu    sync.Mutex
	reply string
	err   error
	fn    func(prompt, system string) (string, error)
	calls []chatCall
}

func (f *fakeChat) Generate(ctx context.Context, prompt, system string, opts ...llm.GenerateOption) (string, error) {
	o := llm.ApplyGenerateOptions(opts...)
	f.mu.Lock()
	f.calls = append(f.calls, chatCall{prompt: prompt, system: system, temperature: o.Temperature, maxTokens: o.MaxTokens})
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.fn != nil {
		return f.fn(prompt, system)
	}
	return f.reply, f.err
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	var prompt, system string
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = m.Content
		case llm.RoleUser:
			prompt = m.Content
		}
	}
	return f.Generate(ctx, prompt, system, opts...)
}

func (f *fakeChat) Name() string { return "fake-chat" }

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) Name() string { return "fake-embed" }

type countingStrategy struct {
	route Route
	err   error
	calls int
}

func (s *countingStrategy) Name() string { return "counting" }

func (s *countingStrategy) Decide(context.Context, string) (Route, error) {
	s.calls++
	return s.route, s.err
}
