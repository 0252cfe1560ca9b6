package store

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/pkg/utils/json"
)

// DefaultFeedbackKey is the Redis list holding feedback records.
const DefaultFeedbackKey = "astramed:feedback"

// RedisFeedbackSink 把反馈 LPUSH 到 Redis 列表，并用 LTRIM 限制长度。
type RedisFeedbackSink struct {
	client *goredis.Client
	key    string
	maxLen int64
}

var _ FeedbackSink = (*RedisFeedbackSink)(nil)

// NewRedisFeedbackSink 创建 Redis 反馈存储。maxLen <= 0 表示不裁剪。
func NewRedisFeedbackSink(client *goredis.Client, key string, maxLen int64) *RedisFeedbackSink {
	if key == "" {
		key = DefaultFeedbackKey
	}
	return &RedisFeedbackSink{client: client, key: key, maxLen: maxLen}
}

// Save 在一个事务管道中执行 LPUSH 和 LTRIM。
func (s *RedisFeedbackSink) Save(ctx context.Context, rec *model.FeedbackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, s.key, data)
		if s.maxLen > 0 {
			pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis feedback: %w", err)
	}
	return nil
}

// Recent 返回最新的 n 条反馈，最新的在前。
func (s *RedisFeedbackSink) Recent(ctx context.Context, n int64) ([]model.FeedbackRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := s.client.LRange(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.FeedbackRecord, 0, len(items))
	for _, item := range items {
		var rec model.FeedbackRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Name 返回存储名称。
func (s *RedisFeedbackSink) Name() string { return "redis" }

// Ping 检查 Redis 连接。
func (s *RedisFeedbackSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 由 redis 组件负责关闭连接。
func (s *RedisFeedbackSink) Close() error { return nil }
