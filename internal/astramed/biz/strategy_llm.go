package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/pkg/llm"
)

const routerSystemPrompt = `You are the routing step of a medical assistant. You never answer the question yourself.`

const routerPromptTemplate = `Decide whether the user message needs a search in the medical knowledge base (symptoms, diseases, treatments, diagnostics, medication) or only a general conversational reply (greetings, thanks, small talk, questions about the assistant).

Answer with exactly one line in this format:
Final Answer: [TYPE: general|medical] <short reason>

User message: %s`

// LLMStrategy 通过一次模型调用做路由，只接受 Final Answer: [TYPE: ...] 格式的输出。
// 模型出错或输出不符合格式时使用 fallback，不再调用模型。
type LLMStrategy struct {
	chat     llm.ChatProvider
	fallback Strategy
}

var _ Strategy = (*LLMStrategy)(nil)

// NewLLMStrategy 创建模型路由，fallback 为空时使用关键词策略。
func NewLLMStrategy(chat llm.ChatProvider, fallback Strategy) *LLMStrategy {
	if fallback == nil {
		fallback = NewKeywordStrategy()
	}
	return &LLMStrategy{chat: chat, fallback: fallback}
}

// Name 返回策略名称。
func (s *LLMStrategy) Name() string {
	return "llm"
}

// Decide 调用模型分类。
func (s *LLMStrategy) Decide(ctx context.Context, query string) (Route, error) {
	out, err := s.chat.Generate(ctx, fmt.Sprintf(routerPromptTemplate, query), routerSystemPrompt,
		llm.WithTemperature(0), llm.WithMaxTokens(64))
	if err != nil {
		return decideWithFallback(ctx, s.Name(), s.fallback, query, err)
	}

	// 只接受 Final Answer 结构，自由文本交给 fallback
	res, ok := parseFinalAnswer(out)
	if !ok {
		return decideWithFallback(ctx, s.Name(), s.fallback, query, fmt.Errorf("%w: unstructured output", ErrUndecided))
	}
	switch res.Type {
	case model.TypeMedical:
		return RouteMedical, nil
	default:
		return RouteGeneral, nil
	}
}
