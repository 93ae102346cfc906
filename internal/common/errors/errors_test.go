package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		retries int
	}{
		{ErrCodeStateSaveFailed, 3},
		{ErrCodeCRMPushFailed, 3},
		{ErrCodeSessionLockTimeout, 2},
		{ErrCodeGenerationTimeout, 1},
		{ErrCodeInvalidInbound, 0},
		{ErrCodeDuplicateLead, 0},
		{ErrCodeInternal, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
			assert.Equal(t, tt.retries > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeLeadValidationFailed:     "VALIDATION",
		ErrCodeInvalidInbound:           "VALIDATION",
		ErrCodeContactNotEligible:       "ELIGIBILITY",
		ErrCodeGenerationTimeout:        "AI",
		ErrCodeTransitionUnresolved:     "FLOW",
		ErrCodeSessionLockTimeout:       "CONCURRENCY",
		ErrCodeIndexWriteFailed:         "SEARCH",
		ErrCodeNotificationSendFailed:   "INTEGRATION",
		ErrCodeLeadSaveFailed:           "PERSISTENCE",
		ErrCodeDatabaseConnectionFailed: "PERSISTENCE",
		ErrCodeInternal:                 "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewStateSaveFailedError("sess-1", errors.New("connection reset"))
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "STATE_SAVE_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Contains(t, bpmnErr.Details, "sess-1")

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "STATE_SAVE_FAILED", vars["errorCode"])
	assert.Equal(t, "STATE_SAVE_FAILED", vars["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryableHasNoRetries(t *testing.T) {
	stdErr := NewStateSaveFailedError("sess-1", errors.New("boom"))
	stdErr.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
}

func TestAsStandardError(t *testing.T) {
	wrapped := fmt.Errorf("worker: %w", NewInvalidInboundError("missing phone"))
	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidInbound, stdErr.Code)
	assert.False(t, stdErr.Retryable)

	_, ok = AsStandardError(errors.New("plain"))
	assert.False(t, ok)
}

func TestBPMNMappingCoversCodes(t *testing.T) {
	for code := range BPMNErrorMapping {
		assert.NotEmpty(t, GetErrorCategory(code))
	}
	assert.Len(t, BPMNErrorMapping, 18)
}
