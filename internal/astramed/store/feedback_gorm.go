package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kart-io/astramed/internal/model"
)

// GormFeedbackSink 把反馈写入关系数据库（sqlite、postgres、mysql）。
type GormFeedbackSink struct {
	db   *gorm.DB
	name string
}

var _ FeedbackSink = (*GormFeedbackSink)(nil)

// NewGormFeedbackSink 创建反馈存储并自动迁移 feedback 表。
func NewGormFeedbackSink(ctx context.Context, name string, db *gorm.DB) (*GormFeedbackSink, error) {
	if err := db.WithContext(ctx).AutoMigrate(&model.FeedbackRecord{}); err != nil {
		return nil, fmt.Errorf("migrate feedback table: %w", err)
	}
	return &GormFeedbackSink{db: db, name: name}, nil
}

// Save 插入一条反馈。
func (s *GormFeedbackSink) Save(ctx context.Context, rec *model.FeedbackRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

// List 按创建时间倒序返回最近的反馈。
func (s *GormFeedbackSink) List(ctx context.Context, limit int) ([]model.FeedbackRecord, error) {
	var out []model.FeedbackRecord
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Name 返回存储名称。
func (s *GormFeedbackSink) Name() string { return s.name }

// Ping 检查数据库连接。
func (s *GormFeedbackSink) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 由 sqldb.Client 负责关闭连接池。
func (s *GormFeedbackSink) Close() error { return nil }
