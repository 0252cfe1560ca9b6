package storage

import (
	"errors"
	"fmt"
)

// Common storage errors.
var (
	// ErrNotConnected 客户端未连接或已关闭
	ErrNotConnected = &StorageError{Code: "NOT_CONNECTED", Message: "storage client is not connected"}

	// ErrConnectionFailed 连接后端失败
	ErrConnectionFailed = &StorageError{Code: "CONNECTION_FAILED", Message: "failed to connect to storage backend"}

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = &StorageError{Code: "INVALID_CONFIG", Message: "invalid storage configuration"}

	// ErrClientNotFound 客户端未注册
	ErrClientNotFound = &StorageError{Code: "CLIENT_NOT_FOUND", Message: "storage client not found"}

	// ErrClientAlreadyExists 同名客户端已注册
	ErrClientAlreadyExists = &StorageError{Code: "CLIENT_ALREADY_EXISTS", Message: "storage client already exists"}

	// ErrOperationFailed 通用操作失败
	ErrOperationFailed = &StorageError{Code: "OPERATION_FAILED", Message: "storage operation failed"}
)

// StorageError represents a storage-related error with a code and message.
type StorageError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy with a different message.
func (e *StorageError) WithMessage(msg string) *StorageError {
	return &StorageError{Code: e.Code, Message: msg, Cause: e.Cause}
}

// WithMessagef returns a copy with a formatted message.
func (e *StorageError) WithMessagef(format string, args ...any) *StorageError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithCause returns a copy wrapping cause.
func (e *StorageError) WithCause(cause error) *StorageError {
	return &StorageError{Code: e.Code, Message: e.Message, Cause: cause}
}

// IsStorageError reports whether err wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
