package store

import (
	"context"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/internal/model"
)

// LogFeedbackSink 只把反馈写入日志，是默认的反馈存储。
type LogFeedbackSink struct{}

var _ FeedbackSink = LogFeedbackSink{}

// Save 记录反馈。
func (LogFeedbackSink) Save(_ context.Context, rec *model.FeedbackRecord) error {
	logger.Infow("feedback received",
		"id", rec.ID,
		"session_id", rec.SessionID,
		"question", rec.Question,
		"rating", rec.Rating,
		"comments", rec.Comments,
	)
	return nil
}

// Name 返回存储名称。
func (LogFeedbackSink) Name() string { return "log" }

// Close is a no-op.
func (LogFeedbackSink) Close() error { return nil }

// MemoryFeedbackSink 进程内反馈存储。
type MemoryFeedbackSink struct {
	mu      sync.RWMutex
	records []model.FeedbackRecord
}

var _ FeedbackSink = (*MemoryFeedbackSink)(nil)

// NewMemoryFeedbackSink 创建内存反馈存储。
func NewMemoryFeedbackSink() *MemoryFeedbackSink {
	return &MemoryFeedbackSink{}
}

// Save 保存反馈副本。
func (s *MemoryFeedbackSink) Save(ctx context.Context, rec *model.FeedbackRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = append(s.records, *rec)
	s.mu.Unlock()
	return nil
}

// Records 返回已保存反馈的快照。
func (s *MemoryFeedbackSink) Records() []model.FeedbackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FeedbackRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Name 返回存储名称。
func (s *MemoryFeedbackSink) Name() string { return "memory" }

// Close is a no-op.
func (s *MemoryFeedbackSink) Close() error { return nil }
