package model

import "time"

// Feedback ratings.
const (
	RatingNegative = 0
	RatingPositive = 1
)

// FeedbackRequest represents the POST /feedback request body.
type FeedbackRequest struct {
	SessionID string `json:"session_id" validate:"max=128"`
	Question  string `json:"question" validate:"notblank,max=4000"`
	Rating    *int   `json:"rating" validate:"required,oneof=0 1"`
	Comments  string `json:"comments,omitempty" validate:"max=4000"`
}

// FeedbackRecord 用户反馈记录，ID 为接收时分配的 ULID。
type FeedbackRecord struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(26);comment:ULID"`
	SessionID string    `json:"session_id" bson:"session_id" gorm:"type:varchar(128);index;comment:会话ID"`
	Question  string    `json:"question" bson:"question" gorm:"type:text;not null;comment:问题"`
	Rating    int       `json:"rating" bson:"rating" gorm:"not null;comment:评分 1好评 0差评"`
	Comments  string    `json:"comments,omitempty" bson:"comments,omitempty" gorm:"type:text;comment:备注"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" gorm:"index;comment:创建时间"`
}

// TableName returns the table name for GORM.
func (FeedbackRecord) TableName() string {
	return "feedback"
}
