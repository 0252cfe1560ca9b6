package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/astramed/internal/model"
	errs "github.com/kart-io/astramed/pkg/utils/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	result    *model.ResponseResult
	err       error
	lastQuery *model.QueryRequest
	feedback  []*model.FeedbackRecord
	fbErr     error
	deadline  bool
}

func (f *fakeService) Answer(ctx context.Context, req *model.QueryRequest) (*model.ResponseResult, error) {
	f.lastQuery = req
	_, f.deadline = ctx.Deadline()
	return f.result, f.err
}

func (f *fakeService) SubmitFeedback(_ context.Context, rec *model.FeedbackRecord) error {
	if f.fbErr != nil {
		return f.fbErr
	}
	f.feedback = append(f.feedback, rec)
	return nil
}

func newEngine(svc *fakeService, checks map[string]Checker) *gin.Engine {
	h := NewAnswerHandler(svc, time.Minute)
	e := gin.New()
	e.POST("/answer", h.Answer)
	e.POST("/feedback", h.Feedback)
	e.GET("/", Root)
	e.GET("/healthz", NewHealthHandler(checks, time.Second).Healthz)
	e.GET("/version", Version)
	return e
}

func do(t *testing.T, e *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestAnswer_OK(t *testing.T) {
	svc := &fakeService{result: &model.ResponseResult{
		Type:              model.TypeMedical,
		GeneratedResponse: "Réponse.",
		Answers: []model.Answer{{
			Message:  "A",
			Metadata: model.AnswerMetadata{Source: "NIH", SimilarityScore: 0.81, FocusArea: "Diabetes"},
		}},
	}}
	e := newEngine(svc, nil)

	w, body := do(t, e, http.MethodPost, "/answer",
		`{"question":"symptômes du diabète","temperature":0.5,"language":"Français","similarity_threshold":0.5,"session_id":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "medical", body["type"])
	assert.Equal(t, "Réponse.", body["generated_response"])

	answers := body["answers"].([]any)
	require.Len(t, answers, 1)
	meta := answers[0].(map[string]any)["metadata"].(map[string]any)
	assert.Equal(t, "NIH", meta["source"])
	assert.Equal(t, 0.81, meta["similarity_score"])
	assert.Equal(t, "Diabetes", meta["focus_area"])

	require.NotNil(t, svc.lastQuery)
	assert.Equal(t, "s1", svc.lastQuery.SessionID)
	assert.True(t, svc.deadline)
}

func TestAnswer_EmptyAnswersSerializedAsArray(t *testing.T) {
	svc := &fakeService{result: &model.ResponseResult{Type: model.TypeGeneral, GeneratedResponse: "Bonjour", Answers: []model.Answer{}}}
	w, body := do(t, newEngine(svc, nil), http.MethodPost, "/answer", `{"question":"bonjour"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["answers"])
}

func TestAnswer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{"blank question french", `{"question":"   ","language":"Français"}`, "question", "question ne doit pas être vide"},
		{"blank question english", `{"question":"","language":"English"}`, "question", "question must not be blank"},
		{"threshold too high", `{"question":"q","similarity_threshold":1.5,"language":"en"}`, "similarity_threshold", ""},
		{"temperature negative", `{"question":"q","temperature":-1}`, "temperature", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			w, body := do(t, newEngine(svc, nil), http.MethodPost, "/answer", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, float64(errs.ErrInvalidQuery.Code), body["code"])

			data := body["data"].(map[string]any)
			require.Contains(t, data, tt.field)
			if tt.message != "" {
				assert.Equal(t, tt.message, data[tt.field])
				assert.Equal(t, tt.message, body["message"])
			}
			assert.Nil(t, svc.lastQuery, "service must not be called")
		})
	}
}

func TestAnswer_MalformedJSON(t *testing.T) {
	w, body := do(t, newEngine(&fakeService{}, nil), http.MethodPost, "/answer", `{"question":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(errs.ErrInvalidQuery.Code), body["code"])
}

func TestAnswer_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{errs.ErrSynthesisFailed.WithCause(errors.New("x")), http.StatusInternalServerError},
		{errs.ErrRetrievalFailed, http.StatusServiceUnavailable},
		{errs.ErrAnswerTimeout, http.StatusGatewayTimeout},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w, body := do(t, newEngine(&fakeService{err: tt.err}, nil), http.MethodPost, "/answer", `{"question":"q"}`)
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
		assert.Contains(t, body, "code")
		assert.Contains(t, body, "message")
	}
}

func TestFeedback(t *testing.T) {
	svc := &fakeService{}
	w, body := do(t, newEngine(svc, nil), http.MethodPost, "/feedback",
		`{"session_id":"s1","question":"diabète ?","rating":0,"comments":"pas clair"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, FeedbackSavedMessage, body["message"])

	require.Len(t, svc.feedback, 1)
	assert.Equal(t, model.RatingNegative, svc.feedback[0].Rating)
	assert.Equal(t, "s1", svc.feedback[0].SessionID)
	assert.Equal(t, "pas clair", svc.feedback[0].Comments)
}

func TestFeedback_Invalid(t *testing.T) {
	for _, b := range []string{
		`{"question":"q"}`,
		`{"question":"q","rating":2}`,
		`{"question":" ","rating":1}`,
		`not json`,
	} {
		svc := &fakeService{}
		w, body := do(t, newEngine(svc, nil), http.MethodPost, "/feedback", b)
		assert.Equal(t, http.StatusBadRequest, w.Code, b)
		assert.Equal(t, float64(errs.ErrInvalidFeedback.Code), body["code"], b)
		assert.Empty(t, svc.feedback)
	}
}

func TestFeedback_SinkDown(t *testing.T) {
	svc := &fakeService{fbErr: errs.ErrFeedbackUnavailable}
	w, _ := do(t, newEngine(svc, nil), http.MethodPost, "/feedback", `{"question":"q","rating":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRoot(t *testing.T) {
	w, body := do(t, newEngine(&fakeService{}, nil), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AstraMed API is running", body["status"])
}

func TestHealthz(t *testing.T) {
	ok := CheckerFunc(func(context.Context) error { return nil })
	down := CheckerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	w, body := do(t, newEngine(&fakeService{}, map[string]Checker{"store": ok, "feedback": nil}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusOK, body["status"])
	assert.Equal(t, map[string]any{"store": "ok", "feedback": "ok"}, body["checks"])

	w, body = do(t, newEngine(&fakeService{}, map[string]Checker{"store": down, "feedback": ok}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, StatusDegraded, body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "error: dial tcp: refused", checks["store"])
	assert.Equal(t, "ok", checks["feedback"])
}

func TestVersion(t *testing.T) {
	w, body := do(t, newEngine(&fakeService{}, nil), http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body)
}

func TestValidationLang(t *testing.T) {
	assert.Equal(t, "fr", validationLang(""))
	assert.Equal(t, "fr", validationLang("Français"))
	assert.Equal(t, "en", validationLang("English"))
	assert.Equal(t, "en", validationLang("Arabic"))
}
