package biz

import (
	"regexp"
	"strings"

	"github.com/kart-io/astramed/internal/model"
)

// ParseFailureMessage 无法解析模型输出时返回的固定文本。
const ParseFailureMessage = "response generation failed."

// 能力标记：转录中出现即表示调用了对应能力。
const (
	MarkerMedical = "search_medical_docs"
	MarkerGeneral = "general_response"
)

var (
	// 行首标签，Observation 段落以下一个标签或文本结尾终止
	labelRegex       = regexp.MustCompile(`(?m)^[ \t]*(Thought|Action Input|Action|Observation|Final Answer)[ \t]*:`)
	finalMarkerRegex = regexp.MustCompile(`(?i)Final Answer\s*:`)
	finalAnswerRegex = regexp.MustCompile(`(?is)Final Answer\s*:\s*\[\s*TYPE\s*:\s*(general|medical)\s*\]\s*(.*)`)
	inlineObsRegex   = regexp.MustCompile(`(?i)Observation\s*:`)
	thoughtRegex     = regexp.MustCompile(`(?i)Thought\s*:`)
)

// ParseResult 解析结果。
type ParseResult struct {
	Type              model.ResponseType
	GeneratedResponse string
}

// Parse 从非结构化的模型输出中提取响应类型和文本。
// 依次尝试：Observation 段落、Final Answer 结构、行内 Observation、最后一个非空行。
// 第一个成功的层级生效；医疗类型的结果追加免责声明。
func Parse(raw string, language string) ParseResult {
	res, ok := parseObservations(raw)
	if !ok {
		res, ok = parseFinalAnswer(raw)
	}
	if !ok {
		res, ok = parseInlineObservation(raw)
	}
	if !ok {
		res, ok = parseLastLine(raw)
	}
	if !ok {
		return ParseResult{Type: model.TypeUnknown, GeneratedResponse: ParseFailureMessage}
	}

	if res.Type == model.TypeMedical {
		res.GeneratedResponse = EnsureDisclaimer(res.GeneratedResponse, ResolveLocale(language))
	}
	return res
}

// parseObservations 只考虑第一个 Final Answer 标记之前的行首 Observation 段落。
func parseObservations(raw string) (ParseResult, bool) {
	head := raw
	if loc := finalMarkerRegex.FindStringIndex(raw); loc != nil {
		head = raw[:loc[0]]
	}

	labels := labelRegex.FindAllStringSubmatchIndex(head, -1)
	var body string
	for i, m := range labels {
		if head[m[2]:m[3]] != "Observation" {
			continue
		}
		end := len(head)
		if i+1 < len(labels) {
			end = labels[i+1][0]
		}
		if seg := strings.TrimSpace(head[m[1]:end]); seg != "" {
			body = seg
		}
	}
	if body == "" {
		return ParseResult{}, false
	}
	return ParseResult{Type: markerType(head), GeneratedResponse: body}, true
}

func parseFinalAnswer(raw string) (ParseResult, bool) {
	m := finalAnswerRegex.FindStringSubmatch(raw)
	if m == nil {
		return ParseResult{}, false
	}
	text := strings.TrimSpace(m[2])
	if text == "" {
		return ParseResult{}, false
	}
	return ParseResult{Type: model.ResponseType(strings.ToLower(m[1])), GeneratedResponse: text}, true
}

// parseInlineObservation 取最后一个 Observation: 之后直到 Thought: 或结尾的文本。
func parseInlineObservation(raw string) (ParseResult, bool) {
	all := inlineObsRegex.FindAllStringIndex(raw, -1)
	if len(all) == 0 {
		return ParseResult{}, false
	}
	rest := raw[all[len(all)-1][1]:]
	if loc := thoughtRegex.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	body := strings.TrimSpace(rest)
	if body == "" {
		return ParseResult{}, false
	}
	return ParseResult{Type: markerType(raw), GeneratedResponse: body}, true
}

func parseLastLine(raw string) (ParseResult, bool) {
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return ParseResult{Type: markerType(raw), GeneratedResponse: line}, true
		}
	}
	return ParseResult{}, false
}

// markerType 以最后出现的能力标记判断类型，没有标记时为 general。
func markerType(text string) model.ResponseType {
	med := strings.LastIndex(text, MarkerMedical)
	gen := strings.LastIndex(text, MarkerGeneral)
	if med > gen {
		return model.TypeMedical
	}
	return model.TypeGeneral
}
