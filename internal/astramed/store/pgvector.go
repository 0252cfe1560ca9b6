package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/internal/pkg/textutil"
	"github.com/kart-io/astramed/pkg/llm"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidIdentifier reports whether name can be used as an unquoted SQL table name.
func ValidIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

// PGVectorStore 基于 PostgreSQL pgvector 扩展的向量存储，使用余弦距离 <=>。
type PGVectorStore struct {
	db        *gorm.DB
	embedder  llm.EmbeddingProvider
	table     string
	dimension int
}

var _ Indexer = (*PGVectorStore)(nil)

// NewPGVectorStore 创建 pgvector 存储。table 必须是合法标识符。
func NewPGVectorStore(db *gorm.DB, embedder llm.EmbeddingProvider, table string, dimension int) (*PGVectorStore, error) {
	if table == "" {
		table = model.QAEntry{}.TableName()
	}
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("pgvector: invalid table name %q", table)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("pgvector: dimension must be positive, got %d", dimension)
	}
	return &PGVectorStore{db: db, embedder: embedder, table: table, dimension: dimension}, nil
}

// Name 返回存储名称。
func (s *PGVectorStore) Name() string {
	return "pgvector"
}

// Ping 检查数据库连接。
func (s *PGVectorStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 由 sqldb.Client 负责关闭连接池。
func (s *PGVectorStore) Close() error {
	return nil
}

// EnsureSchema 创建扩展、表和 HNSW 索引。
func (s *PGVectorStore) EnsureSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create extension: %w", err)
	}
	if err := db.Table(s.table).AutoMigrate(&model.QAEntry{}); err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	stmts := []string{
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS embedding vector(%d)", s.table, s.dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)", s.table, s.table),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("pgvector schema: %w", err)
		}
	}
	return nil
}

// Insert 在一个事务中写入一批文档。
func (s *PGVectorStore) Insert(ctx context.Context, docs []model.Document, embeddings [][]float32) error {
	if err := checkBatch(docs, embeddings); err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (question, answer, source, focus_area, created_at, embedding) VALUES (?, ?, ?, ?, NOW(), ?::vector)",
		s.table)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, d := range docs {
			if len(embeddings[i]) != s.dimension {
				return fmt.Errorf("row %d: %w", i, ErrDimensionMismatch)
			}
			if err := tx.Exec(stmt, d.Content, d.Answer, d.Source, d.Topic, VectorLiteral(embeddings[i])).Error; err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}
		return nil
	})
}

// Count 返回表中的记录数。
func (s *PGVectorStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Table(s.table).Count(&n).Error
	return n, err
}

type pgvectorRow struct {
	Question  string
	Answer    string
	Source    string
	FocusArea string
	Distance  float64
}

// Search 嵌入查询并按余弦距离升序返回。
func (s *PGVectorStore) Search(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	vector, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) != s.dimension {
		return nil, ErrDimensionMismatch
	}

	sql := fmt.Sprintf(
		"SELECT question, answer, source, focus_area, embedding <=> ?::vector AS distance FROM %s ORDER BY distance LIMIT ?",
		s.table)
	var rows []pgvectorRow
	if err := s.db.WithContext(ctx).Raw(sql, VectorLiteral(vector), k).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}

	out := make([]ScoredDocument, 0, len(rows))
	for _, r := range rows {
		out = append(out, ScoredDocument{
			Document: model.Document{
				Content: r.Question,
				Answer:  r.Answer,
				Source:  r.Source,
				Topic:   r.FocusArea,
			},
			Score: textutil.CosineDistanceRelevance(r.Distance),
		})
	}
	return out, nil
}

// VectorLiteral formats v in the pgvector text representation, e.g. "[1,2.5,-3]".
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*8 + 2)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
