package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/pkg/llm"
)

// SentinelAnswer 记录没有答案时的占位文本，合成时排除。
const SentinelAnswer = "Réponse non disponible."

var (
	// ErrSynthesisFailure 合成调用出错、超时或返回空文本。
	ErrSynthesisFailure = errors.New("synthesis failure")
	// ErrGeneralReplyFailure 通用回复调用失败。
	ErrGeneralReplyFailure = errors.New("general reply failure")
)

const synthesisPromptTemplate = `
Voici trois réponses médicales pertinentes :
%s

Reformule une réponse unique et cohérente en %s, en synthétisant ces informations.
`

const generalSystemPromptTemplate = `Tu es AstraMed, un assistant médical virtuel bienveillant et empathique.
Tu réponds aux salutations et aux questions générales de façon chaleureuse et concise.
Tu ne poses jamais de diagnostic et tu ne prescris aucun traitement.
Tu recommandes toujours de consulter un professionnel de santé pour toute question médicale.
Réponds en %s.`

// Synthesizer 负责调用模型生成最终回答。
type Synthesizer struct {
	chat      llm.ChatProvider
	maxTokens int
}

// NewSynthesizer 创建合成器，maxTokens <= 0 表示使用供应商默认值。
func NewSynthesizer(chat llm.ChatProvider, maxTokens int) *Synthesizer {
	return &Synthesizer{chat: chat, maxTokens: maxTokens}
}

// UsableAnswers 返回前 TopK 条候选中非占位的答案文本。
func UsableAnswers(candidates []model.Document) []string {
	if len(candidates) > TopK {
		candidates = candidates[:TopK]
	}
	out := make([]string, 0, len(candidates))
	for _, d := range candidates {
		a := strings.TrimSpace(d.Answer)
		if a == "" || a == SentinelAnswer {
			continue
		}
		out = append(out, d.Answer)
	}
	return out
}

// SynthesisPrompt 构造合并候选答案的提示词。
func SynthesisPrompt(answers []string, language string) string {
	return fmt.Sprintf(synthesisPromptTemplate, strings.Join(answers, "\n"), LanguageName(language))
}

// Synthesize 把候选答案合并为一条回答。没有可用答案时返回本地化的固定文本，不调用模型。
func (s *Synthesizer) Synthesize(ctx context.Context, candidates []model.Document, language string, temperature float64) (string, error) {
	answers := UsableAnswers(candidates)
	if len(answers) == 0 {
		return ResolveLocale(language).SynthesisFallback, nil
	}

	out, err := s.chat.Generate(ctx, SynthesisPrompt(answers, language), "", s.options(temperature)...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailure, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailure, llm.ErrEmptyResponse)
	}

	logger.Debugw("answer synthesized", "provider", s.chat.Name(), "answers", len(answers), "length", len(out))
	return out, nil
}

// GeneralReply 以固定人设回复非医疗问题，不使用检索结果。
func (s *Synthesizer) GeneralReply(ctx context.Context, query, language string, temperature float64) (string, error) {
	system := fmt.Sprintf(generalSystemPromptTemplate, LanguageName(language))
	out, err := s.chat.Generate(ctx, query, system, s.options(temperature)...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneralReplyFailure, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %w", ErrGeneralReplyFailure, llm.ErrEmptyResponse)
	}
	return out, nil
}

func (s *Synthesizer) options(temperature float64) []llm.GenerateOption {
	opts := []llm.GenerateOption{llm.WithTemperature(temperature)}
	if s.maxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(s.maxTokens))
	}
	return opts
}
