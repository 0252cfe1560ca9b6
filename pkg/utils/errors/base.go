package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(New(0, http.StatusOK, codes.OK, "Success", "成功"))

// ============================================================================
// Request Errors (Category: 01)
// ============================================================================

var (
	ErrBadRequest = Register(New(MakeCode(ServiceCommon, CategoryRequest, 0),
		http.StatusBadRequest, codes.InvalidArgument, "Bad request", "请求错误"))
	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1),
		http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "参数无效"))
	ErrValidationFailed = Register(New(MakeCode(ServiceCommon, CategoryRequest, 4),
		http.StatusBadRequest, codes.InvalidArgument, "Validation failed", "验证失败"))
	ErrRequestTooLarge = Register(New(MakeCode(ServiceCommon, CategoryRequest, 5),
		http.StatusRequestEntityTooLarge, codes.InvalidArgument, "Request body too large", "请求体过大"))
	ErrMethodNotAllowed = Register(New(MakeCode(ServiceCommon, CategoryRequest, 6),
		http.StatusMethodNotAllowed, codes.Unimplemented, "Method not allowed", "请求方法不允许"))
)

// ============================================================================
// Resource Errors (Category: 04)
// ============================================================================

var (
	ErrNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 0),
		http.StatusNotFound, codes.NotFound, "Resource not found", "资源不存在"))
	ErrRouteNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 4),
		http.StatusNotFound, codes.NotFound, "Route not found", "路由不存在"))
)

// ============================================================================
// Internal Errors (Category: 07)
// ============================================================================

var (
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 0),
		http.StatusInternalServerError, codes.Internal, "Internal server error", "服务器内部错误"))
	ErrPanic = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2),
		http.StatusInternalServerError, codes.Internal, "Internal panic", "服务器内部异常"))
)

// ============================================================================
// Infrastructure Errors (Category: 08-11)
// ============================================================================

var (
	ErrDatabase = Register(New(MakeCode(ServiceInfraDB, CategoryDatabase, 0),
		http.StatusInternalServerError, codes.Internal, "Database error", "数据库错误"))
	ErrCache = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 0),
		http.StatusInternalServerError, codes.Internal, "Cache error", "缓存错误"))
	ErrServiceUnavailable = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 1),
		http.StatusServiceUnavailable, codes.Unavailable, "Service unavailable", "服务不可用"))
	ErrTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 0),
		http.StatusGatewayTimeout, codes.DeadlineExceeded, "Operation timeout", "操作超时"))
	ErrContextCanceled = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 3),
		499, codes.Canceled, "Request canceled", "请求已取消"))
)

// ============================================================================
// Configuration Errors (Category: 12)
// ============================================================================

var ErrConfigInvalid = Register(New(MakeCode(ServiceCommon, CategoryConfig, 2),
	http.StatusInternalServerError, codes.Internal, "Invalid configuration", "配置无效"))
