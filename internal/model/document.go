// Package model defines the data models for the AstraMed service.
package model

import "time"

// Document 知识库中的一条问答记录。
// Content 是被嵌入的问题文本，Score 是检索时附加的相似度，不持久化。
type Document struct {
	Content string  `json:"content" yaml:"question"`
	Answer  string  `json:"answer" yaml:"answer"`
	Source  string  `json:"source" yaml:"source,omitempty"`
	Topic   string  `json:"topic" yaml:"focus_area,omitempty"`
	Score   float64 `json:"score" yaml:"-"`
}

// QAEntry represents a row of the pgvector corpus table.
// The embedding column is declared and written with raw SQL.
type QAEntry struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Question  string    `json:"question" gorm:"type:text;not null"`
	Answer    string    `json:"answer" gorm:"type:text"`
	Source    string    `json:"source" gorm:"type:varchar(512)"`
	FocusArea string    `json:"focus_area" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the default table name for QAEntry.
func (QAEntry) TableName() string {
	return "medical_qa"
}

// Corpus is the YAML layout of the in-memory store seed file.
type Corpus struct {
	Documents []CorpusEntry `yaml:"documents"`
}

// CorpusEntry 种子文件中的一条记录，Embedding 可选，缺失时启动阶段计算。
type CorpusEntry struct {
	Document  `yaml:",inline"`
	Embedding []float32 `yaml:"embedding,omitempty,flow"`
}
