package model

// ResponseType 响应类型。
type ResponseType string

const (
	TypeGeneral ResponseType = "general"
	TypeMedical ResponseType = "medical"
	TypeUnknown ResponseType = "unknown"
)

// QueryRequest represents the POST /answer request body.
type QueryRequest struct {
	Question            string  `json:"question" validate:"notblank,nocontrol,max=4000"`
	Temperature         float64 `json:"temperature" validate:"gte=0,lte=2"`
	Language            string  `json:"language" validate:"max=32"`
	SimilarityThreshold float64 `json:"similarity_threshold" validate:"gte=0,lte=1"`
	SessionID           string  `json:"session_id,omitempty" validate:"max=128"`
}

// ResponseResult represents the POST /answer response body.
type ResponseResult struct {
	Type              ResponseType `json:"type"`
	GeneratedResponse string       `json:"generated_response"`
	Answers           []Answer     `json:"answers"`
}

// Answer 一条候选答案及其元数据。
type Answer struct {
	Message  string         `json:"message"`
	Metadata AnswerMetadata `json:"metadata"`
}

// AnswerMetadata 候选答案的来源信息，SimilarityScore 保留 4 位小数。
type AnswerMetadata struct {
	Source          string  `json:"source"`
	SimilarityScore float64 `json:"similarity_score"`
	FocusArea       string  `json:"focus_area"`
}
