package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephinoo/agent-bg/internal/common/logger"
)

func testConfig(url string) *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.APIKey = "sk-test"
	cfg.Timeout = 2 * time.Second
	return cfg
}

func completion(text string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
	})
	return string(data)
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req completionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "Eres Sofia", req.Messages[0].Content)
			assert.Equal(t, "user", req.Messages[1].Role)
		}
		assert.Equal(t, 200, req.MaxTokens)

		_, _ = w.Write([]byte(completion("  ¡Hola! ¿Cuáles son tus ingresos?  ")))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	text, err := client.Complete(context.Background(), "Eres Sofia", "Genera la respuesta")

	require.NoError(t, err)
	assert.Equal(t, "¡Hola! ¿Cuáles son tus ingresos?", text)
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(completion("listo")))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	text, err := client.Complete(context.Background(), "s", "u")

	require.NoError(t, err)
	assert.Equal(t, "listo", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestComplete_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	_, err := client.Complete(context.Background(), "s", "u")

	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComplete_EmptyChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	_, err := client.Complete(context.Background(), "s", "u")

	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Contains(t, err.Error(), "EMPTY_COMPLETION")
}

func TestComplete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, "s", "u")

	assert.ErrorIs(t, err, ErrLLMTimeout)
}

func TestSend_SuccessIsNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completion(" Perfecto. ")))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	text, retry, err := client.send(context.Background(), []byte(`{}`))

	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, "Perfecto.", text)
}
