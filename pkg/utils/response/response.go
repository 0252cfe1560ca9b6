// Package response provides the JSON envelopes written by AstraMed handlers.
//
// Successful AstraMed payloads are written as plain DTOs so the public
// contract stays flat. Errors always use the {code, message} envelope.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/astramed/pkg/utils/errors"
)

// HeaderRequestID is the header carrying the request identifier.
const HeaderRequestID = "X-Request-ID"

// Response is the unified error response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Data contains optional details (validation errors)
	Data interface{} `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is the response timestamp (Unix milliseconds)
	Timestamp int64 `json:"timestamp,omitempty"`

	httpCode int
}

// Err creates an error response from an Errno type.
func Err(e *errors.Errno) *Response {
	return ErrWithLang(e, "en")
}

// ErrWithLang creates an error response with language-specific message.
func ErrWithLang(e *errors.Errno, lang string) *Response {
	if e == nil {
		e = errors.OK
	}
	return &Response{
		Code:     e.Code,
		Message:  e.Message(lang),
		httpCode: e.HTTPStatus(),
	}
}

// WithData attaches details to the response.
func (r *Response) WithData(data interface{}) *Response {
	r.Data = data
	return r
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// HTTPStatus returns the HTTP status code for this response.
func (r *Response) HTTPStatus() int {
	if r.httpCode != 0 {
		return r.httpCode
	}
	if r.Code == 0 {
		return http.StatusOK
	}
	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	switch errors.GetCategory(r.Code) {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Fail converts err into an Errno and writes the error envelope.
func Fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	r := Err(e).WithRequestID(c.GetHeader(HeaderRequestID))
	r.Timestamp = time.Now().UnixMilli()
	c.AbortWithStatusJSON(r.HTTPStatus(), r)
}

// FailWithData writes the error envelope with details attached.
func FailWithData(c *gin.Context, e *errors.Errno, data interface{}) {
	r := Err(e).WithData(data).WithRequestID(c.GetHeader(HeaderRequestID))
	r.Timestamp = time.Now().UnixMilli()
	c.AbortWithStatusJSON(r.HTTPStatus(), r)
}

// OK writes data with status 200.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}
