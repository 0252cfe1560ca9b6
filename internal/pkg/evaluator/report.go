package evaluator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kart-io/astramed/internal/pkg/textutil"
	"github.com/kart-io/astramed/pkg/utils/json"
)

// Row 单个样本的评估结果。
type Row struct {
	Index      int          `json:"index" yaml:"index"`
	Question   string       `json:"question" yaml:"question"`
	TrueAnswer string       `json:"true_answer" yaml:"true_answer"`
	Type       ResponseType `json:"type" yaml:"type"`
	Response   string       `json:"response,omitempty" yaml:"response,omitempty"`
	DBAnswer   string       `json:"db_answer,omitempty" yaml:"db_answer,omitempty"`
	Source     string       `json:"source,omitempty" yaml:"source,omitempty"`
	FocusArea  string       `json:"focus_area,omitempty" yaml:"focus_area,omitempty"`
	Distance   float64      `json:"distance" yaml:"distance"`
	Relevance  float64      `json:"relevance" yaml:"relevance"`
	LatencyMS  float64      `json:"latency_ms" yaml:"latency_ms"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report 汇总评估结果。
type Report struct {
	Total                int           `json:"total" yaml:"total"`
	Failures             int           `json:"failures" yaml:"failures"`
	MeanRelevance        float64       `json:"mean_relevance" yaml:"mean_relevance"`
	MeanLatencyMS        float64       `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	RetrievalSuccessRate float64       `json:"retrieval_success_rate" yaml:"retrieval_success_rate"`
	Duration             time.Duration `json:"duration" yaml:"duration"`
	Rows                 []Row         `json:"rows" yaml:"rows"`
}

// NewReport 计算聚合指标。失败样本的相关度按 0 计入均值，不计入延迟均值；
// 检索成功率为 combined_response 的占比。
func NewReport(rows []Row) *Report {
	r := &Report{Total: len(rows), Rows: rows}
	if len(rows) == 0 {
		return r
	}

	var relevance, latency float64
	var combined, measured int
	for _, row := range rows {
		relevance += row.Relevance
		switch row.Type {
		case TypeFailed:
			r.Failures++
			continue
		case TypeCombined:
			combined++
		}
		latency += row.LatencyMS
		measured++
	}

	r.MeanRelevance = relevance / float64(len(rows))
	r.RetrievalSuccessRate = float64(combined) / float64(len(rows))
	if measured > 0 {
		r.MeanLatencyMS = latency / float64(measured)
	}
	return r
}

// WriteSummary 输出控制台摘要，detailed 条样本附带明细。
func (r *Report) WriteSummary(w io.Writer, detailed int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nRésultats de l'évaluation sur %d exemples :\n", r.Total)
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "Pertinence moyenne: %.4f\n", r.MeanRelevance)
	fmt.Fprintf(&b, "Temps de réponse moyen: %.1f ms\n", r.MeanLatencyMS)
	fmt.Fprintf(&b, "Taux de récupération: %.2f%%\n", r.RetrievalSuccessRate*100)
	fmt.Fprintf(&b, "Échecs: %d\n", r.Failures)

	if detailed > len(r.Rows) {
		detailed = len(r.Rows)
	}
	for _, row := range r.Rows[:detailed] {
		fmt.Fprintf(&b, "\nExemple %d:\n", row.Index+1)
		fmt.Fprintf(&b, "  Question: %s\n", textutil.TruncateString(row.Question, 120))
		fmt.Fprintf(&b, "  Type de réponse: %s\n", row.Type)
		fmt.Fprintf(&b, "  Distance: %.4f\n", row.Distance)
		fmt.Fprintf(&b, "  Pertinence: %.4f\n", row.Relevance)
		if row.Error != "" {
			fmt.Fprintf(&b, "  Erreur: %s\n", row.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Marshal 按格式 (json|yaml) 序列化报告。
func (r *Report) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(r)
	case "json", "":
		return json.MarshalIndent(r, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteFile 写入报告，格式由扩展名决定 (.yaml/.yml 为 YAML，其余为 JSON)。
func (r *Report) WriteFile(path string) error {
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	data, err := r.Marshal(format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
