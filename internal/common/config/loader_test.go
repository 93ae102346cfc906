package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  postgres:
    host: localhost
    database: agent
    user: agent
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "whole_word", cfg.Conversation.MatchMode)
	assert.Equal(t, "session_start", cfg.Conversation.PropensityStrategy)
	assert.Equal(t, 500, cfg.Conversation.ResponseMaxChars)
	assert.Equal(t, 75, cfg.Conversation.LeadCompletenessThreshold)
	assert.Equal(t, 30*time.Minute, GetDuration(cfg.Conversation.StateCacheTTL))
	assert.Equal(t, "gpt-4o-mini", cfg.APIs.GenAI.Model)
	assert.Equal(t, "lead-follow-up", cfg.LeadProcess.ProcessID)
	assert.Equal(t, "conversation-transcripts", cfg.Database.Elasticsearch.TranscriptIndex)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, `
database:
  postgres:
    host: db
    database: agent
    user: agent
    password: ${TEST_PG_PASSWORD}
conversation:
  match_mode: substring
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, "substring", cfg.Conversation.MatchMode)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "password=s3cret")
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing postgres host", "database:\n  postgres:\n    database: a\n    user: a\n", "database.postgres.host"},
		{"bad match mode", "database:\n  postgres:\n    host: h\n    database: a\n    user: a\nconversation:\n  match_mode: fuzzy\n", "match_mode"},
		{"camunda without broker", "database:\n  postgres:\n    host: h\n    database: a\n    user: a\ncamunda:\n  enabled: true\n", "broker_address"},
		{"lead process without camunda", "database:\n  postgres:\n    host: h\n    database: a\n    user: a\nlead_process:\n  enabled: true\n", "lead_process"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"process-inbound-message": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.Equal(t, 2, GetWorkerConfig(cfg, "process-inbound-message").MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "process-inbound-message"))
	assert.True(t, IsWorkerEnabled(cfg, "other"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "other").MaxJobsActive)
}
