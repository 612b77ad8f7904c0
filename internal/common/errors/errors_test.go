package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = stderrors.New("SEARCH_TIMEOUT")

func TestStandardError_UnwrapKeepsSentinel(t *testing.T) {
	cause := fmt.Errorf("%w: context deadline exceeded", errSentinel)
	err := NewSearchTimeoutError("google", cause)

	assert.True(t, stderrors.Is(err, errSentinel))
	assert.Equal(t, "StandardError[SEARCH_TIMEOUT]: Search provider 'google' timeout", err.Error())
	assert.Equal(t, "SEARCH_TIMEOUT: context deadline exceeded", err.Details)
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)

	original := NewLLMTimeoutError("generation", stderrors.New("slow"))
	wrapped := fmt.Errorf("answer: %w", original)
	assert.Same(t, original, Normalize(wrapped))
}

func TestCodeOfAndRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
		category  string
	}{
		{"nil", nil, "", false, "UNKNOWN"},
		{"search failed", NewSearchFailedError("you", stderrors.New("503")), ErrCodeSearchFailed, true, "SEARCH"},
		{"llm request failed", NewLLMRequestFailedError("classification", stderrors.New("500")), ErrCodeLLMRequestFailed, true, "LLM"},
		{"llm invalid", NewLLMResponseInvalidError("rejection", stderrors.New("no choices")), ErrCodeLLMResponseInvalid, false, "LLM"},
		{"classification", NewClassificationFailedError("timeout"), ErrCodeClassificationFailed, false, "CLASSIFICATION"},
		{"invalid question", NewInvalidQuestionError("blank"), ErrCodeInvalidQuestion, false, "VALIDATION"},
		{"pipeline", NewPipelineFailedError("gather", stderrors.New("cancelled")), ErrCodePipelineFailed, false, "PIPELINE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))
		})
	}
}

func TestToLogFields(t *testing.T) {
	fields := NewPipelineFailedError("generate", stderrors.New("panic: nil map")).ToLogFields()

	require.Equal(t, "PIPELINE_FAILED", fields["errorCode"])
	assert.Equal(t, "PIPELINE", fields["errorCategory"])
	assert.Equal(t, "panic: nil map", fields["errorDetails"])
	assert.Equal(t, "generate", fields["stage"])
	assert.Equal(t, false, fields["retryable"])
}
