// Package errors provides standardized error codes for the question pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSearchFailed  ErrorCode = "SEARCH_FAILED"
	ErrCodeSearchTimeout ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRequestFailed   ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMResponseInvalid ErrorCode = "LLM_RESPONSE_INVALID"

	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeInvalidQuestion      ErrorCode = "INVALID_QUESTION"
	ErrCodePipelineFailed       ErrorCode = "PIPELINE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is keeps working on
// provider sentinels.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSearchFailedError wraps a transport, status or decode failure from a
// search provider.
func NewSearchFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   fmt.Sprintf("Search provider '%s' failed", provider),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSearchTimeoutError is returned when a provider exceeds its timeout.
func NewSearchTimeoutError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   fmt.Sprintf("Search provider '%s' timeout", provider),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewLLMTimeoutError(purpose string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   fmt.Sprintf("LLM %s request timeout", purpose),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"purpose": purpose},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewLLMRequestFailedError(purpose string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMRequestFailed,
		Message:   fmt.Sprintf("LLM %s request failed", purpose),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"purpose": purpose},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewLLMResponseInvalidError(purpose string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMResponseInvalid,
		Message:   fmt.Sprintf("LLM %s response malformed", purpose),
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"purpose": purpose},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewClassificationFailedError marks a relevance check that fell back to
// "not in domain".
func NewClassificationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationFailed,
		Message:   "Relevance classification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidQuestionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuestion,
		Message:   "Question is missing or blank",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPipelineFailedError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelineFailed,
		Message:   fmt.Sprintf("Pipeline stage '%s' failed", stage),
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"stage": stage},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Helpers
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// CodeOf returns the error code for err, or "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// IsRetryable reports whether the error is marked retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Normalize(err).Retryable
}

// GetErrorCategory groups codes for log and metric labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeSearchFailed, ErrCodeSearchTimeout:
		return "SEARCH"
	case ErrCodeLLMTimeout, ErrCodeLLMRequestFailed, ErrCodeLLMResponseInvalid:
		return "LLM"
	case ErrCodeClassificationFailed:
		return "CLASSIFICATION"
	case ErrCodeInvalidQuestion:
		return "VALIDATION"
	case ErrCodePipelineFailed:
		return "PIPELINE"
	default:
		return "UNKNOWN"
	}
}

// ToLogFields renders the error for the structured logger.
func (e *StandardError) ToLogFields() map[string]interface{} {
	fields := map[string]interface{}{
		"errorCode":     string(e.Code),
		"errorMessage":  e.Message,
		"errorDetails":  e.Details,
		"retryable":     e.Retryable,
		"errorCategory": GetErrorCategory(e.Code),
	}
	for k, v := range e.Metadata {
		fields[k] = v
	}
	return fields
}
