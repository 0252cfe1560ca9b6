package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	tests := []struct {
		service, category, sequence int
		expected                    int
	}{
		{0, 0, 0, 0},
		{0, 1, 1, 1001},
		{21, 1, 1, 2101001},
		{21, 10, 2, 2110002},
		{94, 10, 1, 9410001},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.service, tt.category, tt.sequence), func(t *testing.T) {
			assert.Equal(t, tt.expected, MakeCode(tt.service, tt.category, tt.sequence))
			s, c, q := ParseCode(tt.expected)
			assert.Equal(t, []int{tt.service, tt.category, tt.sequence}, []int{s, c, q})
		})
	}
}

func TestAstraMedCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrInvalidQuery.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrSynthesisFailed.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, ErrRetrievalFailed.HTTPStatus())
	assert.Equal(t, http.StatusGatewayTimeout, ErrAnswerTimeout.HTTPStatus())
	assert.True(t, IsClientError(ErrInvalidFeedback.Code))
	assert.True(t, IsServerError(ErrFeedbackUnavailable.Code))

	e, ok := Lookup(ErrSynthesisFailed.Code)
	require.True(t, ok)
	assert.Same(t, ErrSynthesisFailed, e)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(New(ErrInvalidQuery.Code, 400, codes.InvalidArgument, "dup", "重复"))
	})
}

func TestWithCauseKeepsCode(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := ErrRetrievalFailed.WithCause(cause)

	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrRetrievalFailed.Unwrap(), "original errno must not be mutated")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, fmt.Sprintf("%+v", err), "caused by")
}

func TestWithMessage(t *testing.T) {
	err := ErrInvalidQuery.WithMessagef("field %s is required", "question")
	assert.Equal(t, "field question is required", err.MessageEN)
	assert.Equal(t, ErrInvalidQuery.Code, err.Code)
	assert.Equal(t, "查询请求无效", err.Message("zh"))
	assert.Equal(t, "field question is required", err.Message("fr"))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("answer: %w", ErrSynthesisFailed)
	assert.Equal(t, ErrSynthesisFailed.Code, FromError(wrapped).Code)
	assert.Equal(t, ErrTimeout.Code, FromError(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrInternal.Code, FromError(stderrors.New("boom")).Code)

	assert.True(t, IsCode(wrapped, ErrSynthesisFailed.Code))
	assert.Equal(t, -1, GetCode(stderrors.New("plain")))
}
