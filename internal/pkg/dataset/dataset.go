// Package dataset 读取 MedQuAD 格式的问答数据集并做可复现抽样。
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

// Required dataset columns (MedQuAD layout).
const (
	ColumnQuestion  = "question"
	ColumnAnswer    = "answer"
	ColumnSource    = "source"
	ColumnFocusArea = "focus_area"
)

// DefaultSeed 固定随机种子，保证抽样可复现。
const DefaultSeed int64 = 42

// Record 数据集中的一条问答。
type Record struct {
	Question  string `json:"question" yaml:"question"`
	Answer    string `json:"answer" yaml:"answer"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	FocusArea string `json:"focus_area,omitempty" yaml:"focus_area,omitempty"`
}

// LoadCSV 读取带表头的 CSV。question 与 answer 列必需，source 与
// focus_area 可选；列顺序不限，无关列被忽略。
func LoadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range []string{ColumnQuestion, ColumnAnswer} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("dataset is missing required column %q", col)
		}
	}

	field := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rec := Record{
			Question:  field(row, ColumnQuestion),
			Answer:    field(row, ColumnAnswer),
			Source:    field(row, ColumnSource),
			FocusArea: field(row, ColumnFocusArea),
		}
		if rec.Question == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadCSVFile 从文件读取数据集。
func LoadCSVFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Sample 以固定种子无放回抽取 n 条记录；n 大于等于数据集大小时返回
// 打乱后的全集。输入切片不会被修改。
func Sample(records []Record, n int, seed int64) []Record {
	if n <= 0 || len(records) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(records))
	if n > len(perm) {
		n = len(perm)
	}

	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = records[perm[i]]
	}
	return out
}
