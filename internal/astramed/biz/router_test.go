package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordStrategy(t *testing.T) {
	s := NewKeywordStrategy()

	tests := []struct {
		query string
		want  Route
	}{
		{"bonjour", RouteGeneral},
		{"Bonjour, comment ça va ?", RouteGeneral},
		{"Merci beaucoup !", RouteGeneral},
		{"Hello, who are you?", RouteGeneral},
		{"symptoms of diabetes", RouteMedical},
		{"Quels sont les symptômes du diabète ?", RouteMedical},
		{"J'ai mal de tête depuis hier", RouteMedical},
		{"What are the side effects of ibuprofen?", RouteMedical},
		{"ما هي أعراض السكري؟", RouteMedical},
		{"I have a COUGH", RouteMedical},
		{"Bonjour, ça va ? Pas mal et toi ?", RouteGeneral},
		{"À votre santé !", RouteGeneral},
		{"Cheers, to your health!", RouteGeneral},
		{"J'adore la gastronomie", RouteGeneral},
		{"Je voudrais du pain", RouteGeneral},
		{"J'aime ton cardigan", RouteGeneral},
		{"J'ai mal au ventre", RouteMedical},
		{"J'ai un problème de santé", RouteMedical},
		{"Mental health advice please", RouteMedical},
		{"I have a headache", RouteMedical},
		{"Is a gastro-entérite contagious?", RouteMedical},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.Decide(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordStrategy_Extra(t *testing.T) {
	s := NewKeywordStrategy("  Mucoviscidose ", "")
	assert.True(t, s.IsMedical("la mucoviscidose est-elle héréditaire"))
	assert.False(t, NewKeywordStrategy().IsMedical("la mucoviscidose"))
}

func TestRouter_SingleDecision(t *testing.T) {
	t.Run("route returned", func(t *testing.T) {
		cs := &countingStrategy{route: RouteGeneral}
		got, err := NewRouter(cs).Route(context.Background(), "  bonjour  ")
		require.NoError(t, err)
		assert.Equal(t, RouteGeneral, got)
		assert.Equal(t, 1, cs.calls)
	})

	t.Run("strategy error is not retried", func(t *testing.T) {
		boom := errors.New("boom")
		cs := &countingStrategy{err: boom}
		_, err := NewRouter(cs).Route(context.Background(), "q")
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "router counting")
		assert.Equal(t, 1, cs.calls)
	})

	t.Run("invalid route is undecided", func(t *testing.T) {
		cs := &countingStrategy{route: "weird"}
		_, err := NewRouter(cs).Route(context.Background(), "q")
		assert.ErrorIs(t, err, ErrUndecided)
		assert.Equal(t, 1, cs.calls)
	})
}

func TestLLMStrategy(t *testing.T) {
	t.Run("parsed route", func(t *testing.T) {
		chat := &fakeChat{reply: "Final Answer: [TYPE: medical] asks about symptoms"}
		s := NewLLMStrategy(chat, nil)

		got, err := s.Decide(context.Background(), "bonjour")
		require.NoError(t, err)
		assert.Equal(t, RouteMedical, got)
		require.Equal(t, 1, chat.callCount())

		call := chat.calls[0]
		assert.Contains(t, call.prompt, "User message: bonjour")
		assert.Equal(t, routerSystemPrompt, call.system)
		require.NotNil(t, call.temperature)
		assert.Equal(t, 0.0, *call.temperature)
		assert.Equal(t, 64, call.maxTokens)
	})

	t.Run("general route", func(t *testing.T) {
		chat := &fakeChat{reply: "Final Answer: [TYPE: general] greeting"}
		got, err := NewLLMStrategy(chat, nil).Decide(context.Background(), "symptoms of diabetes")
		require.NoError(t, err)
		assert.Equal(t, RouteGeneral, got)
	})

	t.Run("model error falls back to keywords", func(t *testing.T) {
		chat := &fakeChat{err: errors.New("503")}
		got, err := NewLLMStrategy(chat, nil).Decide(context.Background(), "symptoms of diabetes")
		require.NoError(t, err)
		assert.Equal(t, RouteMedical, got)
		assert.Equal(t, 1, chat.callCount())
	})

	t.Run("unstructured output falls back", func(t *testing.T) {
		for _, reply := range []string{
			"medical",
			"This is a medical question.",
			"Observation: search_medical_docs",
			"Final Answer: medical",
		} {
			chat := &fakeChat{reply: reply}
			cs := &countingStrategy{route: RouteMedical}
			got, err := NewLLMStrategy(chat, cs).Decide(context.Background(), "bonjour")
			require.NoError(t, err, reply)
			assert.Equal(t, RouteMedical, got, reply)
			assert.Equal(t, 1, cs.calls, reply)
			assert.Equal(t, 1, chat.callCount(), reply)
		}
	})

	t.Run("unstructured output without fallback path uses keywords", func(t *testing.T) {
		chat := &fakeChat{reply: "This looks like small talk."}
		got, err := NewLLMStrategy(chat, nil).Decide(context.Background(), "symptoms of diabetes")
		require.NoError(t, err)
		assert.Equal(t, RouteMedical, got)
	})

	t.Run("blank output falls back", func(t *testing.T) {
		chat := &fakeChat{reply: "  "}
		cs := &countingStrategy{route: RouteGeneral}
		got, err := NewLLMStrategy(chat, cs).Decide(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, RouteGeneral, got)
		assert.Equal(t, 1, cs.calls)
		assert.Equal(t, 1, chat.callCount())
	})
}

func newTestEmbeddingStrategy(t *testing.T, margin float64, fallback Strategy) (*EmbeddingStrategy, *fakeEmbedder) {
	t.Helper()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"med":   {1, 0, 0},
		"gen":   {0, 1, 0},
		"clear": {0.9, 0.1, 0},
		"close": {0.6, 0.58, 0},
		"hello": {0.1, 0.9, 0},
	}}
	s, err := NewEmbeddingStrategy(context.Background(), emb, &EmbeddingStrategyConfig{
		Medical:  []string{"med"},
		General:  []string{"gen"},
		Margin:   margin,
		Fallback: fallback,
	})
	require.NoError(t, err)
	return s, emb
}

func TestEmbeddingStrategy_Margin(t *testing.T) {
	s, _ := newTestEmbeddingStrategy(t, DefaultRouterMargin, nil)

	got, err := s.Decide(context.Background(), "clear")
	require.NoError(t, err)
	assert.Equal(t, RouteMedical, got)

	got, err = s.Decide(context.Background(), "close")
	require.NoError(t, err)
	assert.Equal(t, RouteGeneral, got, "lead below margin")

	got, err = s.Decide(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, RouteGeneral, got)

	zero, _ := newTestEmbeddingStrategy(t, 0, nil)
	got, err = zero.Decide(context.Background(), "close")
	require.NoError(t, err)
	assert.Equal(t, RouteMedical, got)
}

func TestEmbeddingStrategy_EmbedError(t *testing.T) {
	s, emb := newTestEmbeddingStrategy(t, DefaultRouterMargin, NewKeywordStrategy())
	emb.err = errors.New("ollama down")

	got, err := s.Decide(context.Background(), "symptômes de la grippe")
	require.NoError(t, err)
	assert.Equal(t, RouteMedical, got)

	noFallback, emb2 := newTestEmbeddingStrategy(t, DefaultRouterMargin, nil)
	emb2.err = errors.New("ollama down")
	_, err = noFallback.Decide(context.Background(), "q")
	assert.Error(t, err)
}

func TestNewEmbeddingStrategy_Errors(t *testing.T) {
	_, err := NewEmbeddingStrategy(context.Background(), &fakeEmbedder{}, &EmbeddingStrategyConfig{Margin: -0.1})
	assert.Error(t, err)

	_, err = NewEmbeddingStrategy(context.Background(), &fakeEmbedder{err: errors.New("down")}, nil)
	assert.Error(t, err)

	s, err := NewEmbeddingStrategy(context.Background(), &fakeEmbedder{}, nil)
	require.NoError(t, err)
	assert.Len(t, s.medical, len(DefaultMedicalExemplars))
	assert.Len(t, s.general, len(DefaultGeneralExemplars))
}
