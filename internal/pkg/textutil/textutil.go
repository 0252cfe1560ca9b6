// Package textutil 提供向量相似度与文本归一化工具函数。
package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CosineSimilarity 计算两个向量的余弦相似度。
// 返回值范围为 [-1, 1]；长度不一致或零向量返回 0。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Norm 返回向量的欧几里得范数。
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// EuclideanDistance 计算两个向量的欧氏距离，长度不一致返回 +Inf。
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// NormalizedEuclideanSimilarity 返回 max(0, 1 - ‖a-b‖ / (‖a‖+‖b‖))。
// 两个零向量视为完全相同。
func NormalizedEuclideanSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	maxDistance := Norm(a) + Norm(b)
	if maxDistance == 0 {
		return 1
	}
	return math.Max(0, 1-EuclideanDistance(a, b)/maxDistance)
}

// Clamp01 将 x 限制在 [0, 1]，NaN 返回 0。
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// CosineRelevance 将余弦相似度转换为 [0, 1] 相关度，负相关视为 0。
func CosineRelevance(cos float64) float64 {
	return Clamp01(cos)
}

// SquaredL2Relevance 将单位向量间的平方 L2 距离转换为 [0, 1] 相关度。
// 单位向量的欧氏距离上限为 sqrt(2)。
func SquaredL2Relevance(squared float64) float64 {
	if squared < 0 {
		squared = 0
	}
	return Clamp01(1 - math.Sqrt(squared)/math.Sqrt2)
}

// CosineDistanceRelevance 将余弦距离 (1 - cos) 转换为 [0, 1] 相关度。
func CosineDistanceRelevance(d float64) float64 {
	return Clamp01(1 - d)
}

// Round 四舍五入到指定小数位。
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold 转为小写并去除变音符号，用于关键词匹配 ("Diabète" -> "diabete")。
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}
