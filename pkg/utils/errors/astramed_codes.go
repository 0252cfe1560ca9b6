package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// AstraMed 服务代码: 21 (业务服务范围 20-79)

var (
	// 请求参数错误 (类别 01)
	ErrInvalidQuery = Register(New(MakeCode(ServiceAstraMed, CategoryRequest, 1),
		http.StatusBadRequest, codes.InvalidArgument, "Invalid query request", "查询请求无效"))
	ErrInvalidFeedback = Register(New(MakeCode(ServiceAstraMed, CategoryRequest, 2),
		http.StatusBadRequest, codes.InvalidArgument, "Invalid feedback", "反馈无效"))

	// 生成失败 (类别 07)
	ErrSynthesisFailed = Register(New(MakeCode(ServiceAstraMed, CategoryInternal, 1),
		http.StatusInternalServerError, codes.Internal, "Answer synthesis failed", "答案生成失败"))
	ErrGeneralReplyFailed = Register(New(MakeCode(ServiceAstraMed, CategoryInternal, 2),
		http.StatusInternalServerError, codes.Internal, "General reply failed", "通用回复生成失败"))

	// 上游依赖错误 (类别 10)
	ErrRetrievalFailed = Register(New(MakeCode(ServiceAstraMed, CategoryNetwork, 1),
		http.StatusServiceUnavailable, codes.Unavailable, "Vector store unavailable", "向量库不可用"))
	ErrFeedbackUnavailable = Register(New(MakeCode(ServiceAstraMed, CategoryNetwork, 2),
		http.StatusServiceUnavailable, codes.Unavailable, "Feedback storage unavailable", "反馈存储不可用"))
	ErrRouterFailed = Register(New(MakeCode(ServiceAstraMed, CategoryNetwork, 3),
		http.StatusServiceUnavailable, codes.Unavailable, "Query router unavailable", "查询路由不可用"))

	// 超时 (类别 11)
	ErrAnswerTimeout = Register(New(MakeCode(ServiceAstraMed, CategoryTimeout, 1),
		http.StatusGatewayTimeout, codes.DeadlineExceeded, "Answer generation timeout", "答案生成超时"))

	// 大模型调用错误
	ErrLLMUnavailable = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryNetwork, 1),
		http.StatusBadGateway, codes.Unavailable, "Language model unavailable", "大模型服务不可用"))
)
