// Package evaluator 离线评估问答管线的回答质量。
//
// 对每个样本做 k=1 最近邻检索：距离 (1 - 相似度) 低于阈值时基于参考答案
// 重新表述 (combined_response)，否则直接调用模型 (llm_response)。回答与
// 参考答案的相关度用句向量的归一化欧氏距离计算。
//
//	ev := evaluator.New(index, chat, embedder, evaluator.DefaultConfig())
//	report, err := ev.Evaluate(ctx, dataset.Sample(records, 10, dataset.DefaultSeed))
package evaluator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/internal/pkg/dataset"
	"github.com/kart-io/astramed/internal/pkg/textutil"
	"github.com/kart-io/astramed/pkg/infra/pool"
	"github.com/kart-io/astramed/pkg/llm"
)

// ResponseType 评估回答的生成路径。
type ResponseType string

const (
	// TypeCombined 基于检索到的参考答案重新表述。
	TypeCombined ResponseType = "combined_response"
	// TypeLLM 无检索依据的直接生成。
	TypeLLM ResponseType = "llm_response"
	// TypeFailed 检索或生成失败，相关度记 0。
	TypeFailed ResponseType = "failed"
)

const (
	combinedSystemPrompt = `Tu es AstraMed, votre assistant médical.
Voici une réponse de référence : %s

Reformule une réponse concise et précise.

Question: %s`

	llmSystemPrompt = `Tu es AstraMed, un assistant médical virtuel.
Réponds de manière claire et précise.
Question: %s`
)

// Neighbor 最近邻检索结果。
type Neighbor struct {
	Question   string
	Answer     string
	Source     string
	FocusArea  string
	Similarity float64
}

// Index 提供 k=1 最近邻检索。索引为空时返回 (nil, nil)。
type Index interface {
	Nearest(ctx context.Context, query string) (*Neighbor, error)
}

// Config 评估参数。
type Config struct {
	// Cutoff 距离阈值，距离越低匹配越好。
	Cutoff float64 `json:"cutoff" yaml:"cutoff"`
	// Temperature 生成温度。
	Temperature float64 `json:"temperature" yaml:"temperature"`
	// SimulatedLatency 每个样本额外等待的时间，计入延迟。
	SimulatedLatency time.Duration `json:"simulated_latency" yaml:"simulated_latency"`
	// Concurrency 并发评估的样本数。
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// DefaultConfig 返回默认评估参数。
func DefaultConfig() Config {
	return Config{
		Cutoff:      0.2,
		Temperature: 0.5,
		Concurrency: 1,
	}
}

// Evaluator 离线评估器，不持有任何服务端状态。
type Evaluator struct {
	index    Index
	chat     llm.ChatProvider
	embedder llm.EmbeddingProvider
	cfg      Config
}

// New 创建评估器。embedder 只用于计算相关度，可与检索使用的模型不同。
func New(index Index, chat llm.ChatProvider, embedder llm.EmbeddingProvider, cfg Config) *Evaluator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Evaluator{index: index, chat: chat, embedder: embedder, cfg: cfg}
}

// Evaluate 评估所有样本。结果行保持样本顺序；单个样本失败不会中断评估，
// 只有 ctx 取消时返回错误。
func (e *Evaluator) Evaluate(ctx context.Context, samples []dataset.Record) (*Report, error) {
	start := time.Now()
	rows := make([]Row, len(samples))

	if e.cfg.Concurrency == 1 || len(samples) <= 1 {
		for i, s := range samples {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rows[i] = e.evaluateOne(ctx, i, s)
		}
	} else if err := e.evaluateParallel(ctx, samples, rows); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := NewReport(rows)
	report.Duration = time.Since(start)
	logger.Infow("evaluation finished",
		"samples", report.Total,
		"failures", report.Failures,
		"mean_relevance", report.MeanRelevance,
		"mean_latency_ms", report.MeanLatencyMS,
	)
	return report, nil
}

func (e *Evaluator) evaluateParallel(ctx context.Context, samples []dataset.Record, rows []Row) error {
	p, err := pool.NewPool("evaluator", pool.EvalPool, pool.WorkerPoolConfig(e.cfg.Concurrency))
	if err != nil {
		return err
	}
	defer p.Release()

	var wg sync.WaitGroup
	for i, s := range samples {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			rows[i] = e.evaluateOne(ctx, i, s)
		})
		if err != nil {
			wg.Done()
			if ctx.Err() != nil {
				break
			}
			rows[i] = failedRow(i, s, fmt.Errorf("submit: %w", err))
		}
	}
	wg.Wait()
	return nil
}

// evaluateOne 生成回答并打分。
func (e *Evaluator) evaluateOne(ctx context.Context, i int, s dataset.Record) Row {
	row := Row{Index: i, Question: s.Question, TrueAnswer: s.Answer}

	start := time.Now()
	resp, err := e.respond(ctx, s.Question, &row)
	if err == nil && e.cfg.SimulatedLatency > 0 {
		err = sleep(ctx, e.cfg.SimulatedLatency)
	}
	row.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		logger.Warnw("evaluation sample failed", "index", i, "error", err.Error())
		failed := failedRow(i, s, err)
		failed.LatencyMS = row.LatencyMS
		return failed
	}
	row.Response = resp

	relevance, err := e.relevance(ctx, &row)
	if err != nil {
		logger.Warnw("relevance scoring failed", "index", i, "error", err.Error())
		return failedRow(i, s, fmt.Errorf("score: %w", err))
	}
	row.Relevance = relevance
	return row
}

// respond 执行检索 + 生成，填充 row 的检索字段。
func (e *Evaluator) respond(ctx context.Context, question string, row *Row) (string, error) {
	nb, err := e.index.Nearest(ctx, question)
	if err != nil {
		return "", fmt.Errorf("nearest neighbour: %w", err)
	}

	row.Distance = 1
	if nb != nil {
		row.Distance = 1 - nb.Similarity
	}

	var system string
	if nb != nil && row.Distance < e.cfg.Cutoff {
		row.Type = TypeCombined
		row.DBAnswer = nb.Answer
		row.Source = nb.Source
		row.FocusArea = nb.FocusArea
		system = fmt.Sprintf(combinedSystemPrompt, nb.Answer, question)
	} else {
		row.Type = TypeLLM
		system = fmt.Sprintf(llmSystemPrompt, question)
	}

	resp, err := e.chat.Generate(ctx, question, system, llm.WithTemperature(e.cfg.Temperature))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == "" {
		return "", fmt.Errorf("generate: %w", llm.ErrEmptyResponse)
	}
	return resp, nil
}

// relevance combined_response 取 (sim(回答, 参考) + (1 - 距离)) / 2，
// llm_response 取 sim(回答, 标准答案)。
func (e *Evaluator) relevance(ctx context.Context, row *Row) (float64, error) {
	reference := row.TrueAnswer
	if row.Type == TypeCombined {
		reference = row.DBAnswer
	}

	vecs, err := e.embedder.Embed(ctx, []string{row.Response, reference})
	if err != nil {
		return 0, err
	}
	if len(vecs) != 2 {
		return 0, llm.ErrEmptyResponse
	}

	sim := textutil.NormalizedEuclideanSimilarity(vecs[0], vecs[1])
	if row.Type == TypeCombined {
		return (sim + (1 - row.Distance)) / 2, nil
	}
	return sim, nil
}

func failedRow(i int, s dataset.Record, err error) Row {
	return Row{
		Index:      i,
		Question:   s.Question,
		TrueAnswer: s.Answer,
		Type:       TypeFailed,
		Error:      err.Error(),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
