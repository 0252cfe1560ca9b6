package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/astramed/internal/model"
)

// MongoFeedbackSink 把反馈写入 MongoDB 集合，文档 _id 为反馈 ULID。
type MongoFeedbackSink struct {
	coll *mongo.Collection
}

var _ FeedbackSink = (*MongoFeedbackSink)(nil)

// NewMongoFeedbackSink 创建 MongoDB 反馈存储。
func NewMongoFeedbackSink(coll *mongo.Collection) *MongoFeedbackSink {
	return &MongoFeedbackSink{coll: coll}
}

// Save 插入一条反馈。
func (s *MongoFeedbackSink) Save(ctx context.Context, rec *model.FeedbackRecord) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("mongo feedback: %w", err)
	}
	return nil
}

// Name 返回存储名称。
func (s *MongoFeedbackSink) Name() string { return "mongodb" }

// Close 由 mongodb 组件负责断开连接。
func (s *MongoFeedbackSink) Close() error { return nil }
