// Package middleware provides the gin middlewares shared by AstraMed binaries.
//
// The recommended order, outermost first, is:
//
//	Recovery -> RequestID -> Tracing -> Metrics -> Logger -> BodyLimit -> Timeout
//
// Every middleware is a plain gin.HandlerFunc. Errors are written with the
// {code, message} envelope from pkg/utils/response.
package middleware
