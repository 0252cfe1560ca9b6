package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/kart-io/astramed/internal/astramed/handler"
	"github.com/kart-io/astramed/internal/model"
)

type nopService struct{}

func (nopService) Answer(context.Context, *model.QueryRequest) (*model.ResponseResult, error) {
	return &model.ResponseResult{Type: model.TypeGeneral, GeneratedResponse: "ok", Answers: []model.Answer{}}, nil
}

func (nopService) SubmitFeedback(context.Context, *model.FeedbackRecord) error { return nil }

func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "astramed_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	e := gin.New()
	Register(e, handler.NewAnswerHandler(nopService{}, time.Second), handler.NewHealthHandler(nil, 0), reg)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/version", "", http.StatusOK},
		{http.MethodPost, "/answer", `{"question":"bonjour"}`, http.StatusOK},
		{http.MethodPost, "/feedback", `{"question":"q","rating":1}`, http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		e.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, tt.path)
		if tt.path == "/metrics" {
			assert.Contains(t, w.Body.String(), "astramed_test_total 1")
		}
	}
}

func TestRegister_NoMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	Register(e, handler.NewAnswerHandler(nopService{}, 0), handler.NewHealthHandler(nil, 0), nil)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
