package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	c := testClient()
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return int64(42), nil
	}, "create_instance:lead-follow-up")

	require.NoError(t, err)
	assert.Equal(t, int64(42), result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_PermanentErrorNotRetried(t *testing.T) {
	c := testClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("rpc error: code = NotFound desc = no process with id lead-follow-up")
	}, "create_instance:lead-follow-up")

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeProcessStartFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecuteWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	c := testClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("context deadline exceeded")
	}, "create_instance:lead-follow-up")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "PROCESS_START_FAILED")
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := testClient()
	c.config.RetryConfig.BaseDelay = time.Second
	c.config.RetryConfig.MaxDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("connection reset by peer")
	}, "create_instance:lead-follow-up")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"connection refused", true},
		{"rpc error: code = DeadlineExceeded desc = Timeout", true},
		{"code = Unavailable", true},
		{"broken pipe", true},
		{"no process with id", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryableZeebeError(errors.New(tt.msg)))
		})
	}
}
