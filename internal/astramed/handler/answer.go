// Package handler provides HTTP handlers for the AstraMed service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/internal/astramed/biz"
	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/pkg/infra/middleware"
	"github.com/kart-io/astramed/pkg/utils/errors"
	"github.com/kart-io/astramed/pkg/utils/response"
	"github.com/kart-io/astramed/pkg/utils/validator"
)

// FeedbackSavedMessage 反馈保存成功时返回的文本。
const FeedbackSavedMessage = "Feedback enregistré avec succès."

// AnswerHandler handles AstraMed question answering requests.
type AnswerHandler struct {
	service biz.Service
	timeout time.Duration
}

// NewAnswerHandler creates a new AnswerHandler. timeout <= 0 关闭处理器级超时，
// 只依赖中间件。
func NewAnswerHandler(service biz.Service, timeout time.Duration) *AnswerHandler {
	return &AnswerHandler{service: service, timeout: timeout}
}

// FeedbackResponse is returned after feedback is stored.
type FeedbackResponse struct {
	Message string `json:"message"`
}

// Answer handles POST /answer.
func (h *AnswerHandler) Answer(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrInvalidQuery.WithMessage("invalid request body: "+err.Error()))
		return
	}
	if verrs := validator.StructWithLang(&req, validationLang(req.Language)); verrs.HasErrors() {
		response.FailWithData(c, errors.ErrInvalidQuery.WithMessage(verrs.First()), verrs.Fields())
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.service.Answer(ctx, &req)
	if err != nil {
		// 客户端已断开时不再写响应
		if c.Request.Context().Err() == context.Canceled {
			logger.Warnw("client went away", "request_id", middleware.GetRequestID(c))
			c.Abort()
			return
		}
		response.Fail(c, err)
		return
	}

	response.OK(c, result)
}

// Feedback handles POST /feedback.
func (h *AnswerHandler) Feedback(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrInvalidFeedback.WithMessage("invalid request body: "+err.Error()))
		return
	}
	if verrs := validator.StructWithLang(&req, validator.LangFR); verrs.HasErrors() {
		response.FailWithData(c, errors.ErrInvalidFeedback.WithMessage(verrs.First()), verrs.Fields())
		return
	}

	rec := &model.FeedbackRecord{
		SessionID: req.SessionID,
		Question:  req.Question,
		Rating:    *req.Rating,
		Comments:  req.Comments,
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.SubmitFeedback(ctx, rec); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, FeedbackResponse{Message: FeedbackSavedMessage})
}

func (h *AnswerHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// validationLang 只有 fr 和 en 两种校验消息，其余语言使用英文。
func validationLang(language string) string {
	if biz.ResolveLocale(language) == biz.LocaleFR {
		return validator.LangFR
	}
	return validator.LangEN
}

// Root handles GET /.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "AstraMed API is running"})
}
