package biz

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/astramed/internal/astramed/metrics"
	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/internal/pkg/textutil"
	"github.com/kart-io/astramed/pkg/infra/tracing"
	"github.com/kart-io/astramed/pkg/utils/errors"
	"github.com/kart-io/astramed/pkg/utils/id"
)

const tracerName = "astramed/biz"

// 候选答案元数据的默认值。
const (
	UnknownSource    = "Inconnue"
	UnspecifiedTopic = "Non spécifié"
)

// Service 定义问答服务接口。
type Service interface {
	// Answer 回答一个问题。
	Answer(ctx context.Context, req *model.QueryRequest) (*model.ResponseResult, error)
	// SubmitFeedback 保存用户反馈。
	SubmitFeedback(ctx context.Context, rec *model.FeedbackRecord) error
}

// ServiceConfig 问答服务配置。
type ServiceConfig struct {
	// RouterEnabled 为 false 时所有问题都走检索。
	RouterEnabled bool
}

// AnswerService 组合 Router、Retriever 和 Synthesizer 提供完整的问答服务。
type AnswerService struct {
	router      *Router
	retriever   *Retriever
	synthesizer *Synthesizer
	feedback    store.FeedbackSink
	metrics     *metrics.Metrics
	now         func() time.Time
}

var _ Service = (*AnswerService)(nil)

// NewAnswerService 创建问答服务实例。router 为空或配置关闭时不做路由。
func NewAnswerService(
	retriever *Retriever,
	synthesizer *Synthesizer,
	router *Router,
	feedback store.FeedbackSink,
	m *metrics.Metrics,
	config *ServiceConfig,
) *AnswerService {
	if config == nil || !config.RouterEnabled {
		router = nil
	}
	if feedback == nil {
		feedback = store.LogFeedbackSink{}
	}
	return &AnswerService{
		router:      router,
		retriever:   retriever,
		synthesizer: synthesizer,
		feedback:    feedback,
		metrics:     m,
		now:         time.Now,
	}
}

// Answer 执行路由、检索与合成。
func (s *AnswerService) Answer(ctx context.Context, req *model.QueryRequest) (*model.ResponseResult, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "astramed.answer")
	defer span.End()

	if err := validateQuery(req); err != nil {
		return nil, err
	}
	question := strings.TrimSpace(req.Question)
	loc := ResolveLocale(req.Language)
	tracing.AddSpanAttributes(ctx,
		attribute.String("astramed.language", loc.Code),
		attribute.Float64("astramed.threshold", req.SimilarityThreshold),
	)

	// 1. 路由
	route := RouteMedical
	if s.router != nil {
		var err error
		if route, err = s.route(ctx, question); err != nil {
			return nil, s.fail(ctx, start, err, errors.ErrRouterFailed)
		}
	}

	// 2. 分派
	var (
		result *model.ResponseResult
		err    error
	)
	switch route {
	case RouteGeneral:
		result, err = s.answerGeneral(ctx, question, req)
	default:
		result, err = s.answerMedical(ctx, question, req, loc)
	}
	if err != nil {
		return nil, s.fail(ctx, start, err, nil)
	}

	s.metrics.ObserveAnswer(string(result.Type), time.Since(start))
	tracing.AddSpanAttributes(ctx,
		attribute.String("astramed.type", string(result.Type)),
		attribute.Int("astramed.candidates", len(result.Answers)),
	)
	tracing.SetSpanOK(ctx)
	logger.Infow("answer served",
		"type", string(result.Type),
		"route", string(route),
		"candidates", len(result.Answers),
		"session_id", req.SessionID,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *AnswerService) route(ctx context.Context, question string) (Route, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "astramed.route")
	defer span.End()

	route, err := s.router.Route(ctx, question)
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", err
	}
	name := s.router.Strategy().Name()
	s.metrics.IncRoute(name, string(route))
	tracing.AddSpanAttributes(ctx, attribute.String("astramed.route", string(route)), attribute.String("astramed.strategy", name))
	return route, nil
}

func (s *AnswerService) answerGeneral(ctx context.Context, question string, req *model.QueryRequest) (*model.ResponseResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "astramed.synthesize")
	defer span.End()
	span.SetAttributes(attribute.String("astramed.mode", "general"))

	reply, err := s.synthesizer.GeneralReply(ctx, question, req.Language, req.Temperature)
	if err != nil {
		s.metrics.IncSynthesisFailure()
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return &model.ResponseResult{
		Type:              model.TypeGeneral,
		GeneratedResponse: reply,
		Answers:           []model.Answer{},
	}, nil
}

func (s *AnswerService) answerMedical(ctx context.Context, question string, req *model.QueryRequest, loc *Locale) (*model.ResponseResult, error) {
	candidates, err := s.retrieve(ctx, question, req.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCandidates(len(candidates))

	if len(candidates) == 0 {
		return &model.ResponseResult{
			Type:              model.TypeMedical,
			GeneratedResponse: EnsureDisclaimer(loc.NoEvidence, loc),
			Answers:           []model.Answer{},
		}, nil
	}

	sctx, span := tracing.StartSpan(ctx, tracerName, "astramed.synthesize")
	span.SetAttributes(attribute.String("astramed.mode", "medical"))
	text, err := s.synthesizer.Synthesize(sctx, candidates, req.Language, req.Temperature)
	if err != nil {
		s.metrics.IncSynthesisFailure()
		tracing.RecordError(sctx, err)
	}
	span.End()
	if err != nil {
		return nil, err
	}

	return &model.ResponseResult{
		Type:              model.TypeMedical,
		GeneratedResponse: EnsureDisclaimer(text, loc),
		Answers:           BuildAnswers(candidates),
	}, nil
}

func (s *AnswerService) retrieve(ctx context.Context, question string, threshold float64) ([]model.Document, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "astramed.retrieve")
	defer span.End()

	docs, err := s.retriever.Retrieve(ctx, question, threshold)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("astramed.candidates", len(docs)))
	return docs, nil
}

// fail 记录失败并把错误映射为 errno。fallback 为空时按错误类型推断。
func (s *AnswerService) fail(ctx context.Context, start time.Time, err error, fallback *errors.Errno) error {
	s.metrics.ObserveAnswer("error", time.Since(start))
	tracing.RecordError(ctx, err)

	mapped := mapAnswerError(err, fallback)
	logger.Errorw("answer failed",
		"code", mapped.Code,
		"error", err.Error(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return mapped
}

func mapAnswerError(err error, fallback *errors.Errno) *errors.Errno {
	var e *errors.Errno
	switch {
	case stderrors.As(err, &e):
		return e
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrAnswerTimeout.WithCause(err)
	case stderrors.Is(err, context.Canceled):
		return errors.ErrContextCanceled.WithCause(err)
	case fallback != nil:
		return fallback.WithCause(err)
	case stderrors.Is(err, ErrSynthesisFailure):
		return errors.ErrSynthesisFailed.WithCause(err)
	case stderrors.Is(err, ErrGeneralReplyFailure):
		return errors.ErrGeneralReplyFailed.WithCause(err)
	default:
		return errors.ErrRetrievalFailed.WithCause(err)
	}
}

func validateQuery(req *model.QueryRequest) error {
	switch {
	case req == nil:
		return errors.ErrInvalidQuery
	case strings.TrimSpace(req.Question) == "":
		return errors.ErrInvalidQuery.WithMessage("question must not be blank")
	case math.IsNaN(req.SimilarityThreshold) || req.SimilarityThreshold < 0 || req.SimilarityThreshold > 1:
		return errors.ErrInvalidQuery.WithMessage("similarity_threshold must be between 0 and 1")
	case math.IsNaN(req.Temperature) || req.Temperature < 0 || req.Temperature > 2:
		return errors.ErrInvalidQuery.WithMessage("temperature must be between 0 and 2")
	}
	return nil
}

// BuildAnswers 把候选文档转换为响应中的答案列表。
func BuildAnswers(candidates []model.Document) []model.Answer {
	out := make([]model.Answer, 0, len(candidates))
	for _, d := range candidates {
		a := model.Answer{
			Message: d.Answer,
			Metadata: model.AnswerMetadata{
				Source:          d.Source,
				SimilarityScore: textutil.Round(d.Score, 4),
				FocusArea:       d.Topic,
			},
		}
		if strings.TrimSpace(a.Message) == "" {
			a.Message = SentinelAnswer
		}
		if strings.TrimSpace(a.Metadata.Source) == "" {
			a.Metadata.Source = UnknownSource
		}
		if strings.TrimSpace(a.Metadata.FocusArea) == "" {
			a.Metadata.FocusArea = UnspecifiedTopic
		}
		out = append(out, a)
	}
	return out
}

// SubmitFeedback 校验反馈，分配 ULID 和时间戳后写入反馈存储。
func (s *AnswerService) SubmitFeedback(ctx context.Context, rec *model.FeedbackRecord) error {
	switch {
	case rec == nil:
		return errors.ErrInvalidFeedback
	case strings.TrimSpace(rec.Question) == "":
		return errors.ErrInvalidFeedback.WithMessage("question must not be blank")
	case rec.Rating != model.RatingNegative && rec.Rating != model.RatingPositive:
		return errors.ErrInvalidFeedback.WithMessage("rating must be 0 or 1")
	}

	now := s.now()
	rec.ID = id.NewULIDAt(now)
	rec.CreatedAt = now.UTC()

	if err := s.feedback.Save(ctx, rec); err != nil {
		logger.Errorw("feedback save failed", "sink", s.feedback.Name(), "id", rec.ID, "error", err.Error())
		if stderrors.Is(err, context.DeadlineExceeded) {
			return errors.ErrAnswerTimeout.WithCause(err)
		}
		return errors.ErrFeedbackUnavailable.WithCause(err)
	}

	s.metrics.IncFeedback(rec.Rating)
	logger.Infow("feedback stored", "sink", s.feedback.Name(), "id", rec.ID, "rating", rec.Rating)
	return nil
}
