package sendchatmessage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
)

type fakeGateway struct {
	accept   bool
	address  string
	text     string
	mediaURL string
	flow     string
	flowData map[string]interface{}
}

func (f *fakeGateway) SendMedia(ctx context.Context, address, text, mediaURL string) bool {
	f.address, f.text, f.mediaURL = address, text, mediaURL
	return f.accept
}

func (f *fakeGateway) TriggerFlow(ctx context.Context, address, flow string, data map[string]interface{}) bool {
	f.address, f.flow, f.flowData = address, flow, data
	return f.accept
}

func TestParseVariables(t *testing.T) {
	tests := []struct {
		name        string
		variables   map[string]interface{}
		expectError bool
	}{
		{name: "message", variables: map[string]interface{}{"phone": "+593991234567", "message": "Hola Ana"}},
		{name: "message with media", variables: map[string]interface{}{"phone": "+593991234567", "message": "Tu oferta", "mediaUrl": "https://cdn.example.com/oferta.png"}},
		{name: "flow", variables: map[string]interface{}{"phone": "+593991234567", "flow": "AGENT_FLOW", "flowData": map[string]interface{}{"leadId": "lead-001"}}},
		{name: "neither message nor flow", variables: map[string]interface{}{"phone": "+593991234567"}, expectError: true},
		{name: "empty message", variables: map[string]interface{}{"phone": "+593991234567", "message": ""}, expectError: true},
		{name: "unknown flow", variables: map[string]interface{}{"phone": "+593991234567", "flow": "SURVEY_FLOW"}, expectError: true},
		{name: "media not a url", variables: map[string]interface{}{"phone": "+593991234567", "message": "hola", "mediaUrl": "oferta.png"}, expectError: true},
		{name: "missing phone", variables: map[string]interface{}{"message": "hola"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := ParseVariables(tt.variables)

			if tt.expectError {
				stdErr, ok := apperrors.AsStandardError(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.ErrCodeInvalidInbound, stdErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "+593991234567", input.Phone)
		})
	}
}

func TestExecute_SendsMessage(t *testing.T) {
	gw := &fakeGateway{accept: true}
	svc := NewService(DefaultConfig(), gw, logger.NewTestLogger(t))
	sentAt := time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return sentAt }

	output, err := svc.Execute(context.Background(), &Input{
		Phone:    "0991234567",
		Message:  "  Hola Ana, tu asesor te llamará hoy.  ",
		MediaURL: "https://cdn.example.com/oferta.png",
	})

	require.NoError(t, err)
	assert.Equal(t, "+593991234567", gw.address)
	assert.Equal(t, "Hola Ana, tu asesor te llamará hoy.", gw.text)
	assert.Equal(t, "https://cdn.example.com/oferta.png", gw.mediaURL)
	assert.Empty(t, gw.flow)
	assert.Equal(t, &Output{Delivered: true, Phone: "+593991234567", Channel: "whatsapp", SentAt: sentAt}, output)
}

func TestExecute_TriggersFlow(t *testing.T) {
	gw := &fakeGateway{accept: true}
	svc := NewService(DefaultConfig(), gw, logger.NewTestLogger(t))

	output, err := svc.Execute(context.Background(), &Input{
		Phone:    "+593991234567",
		Flow:     "AGENT_FLOW",
		FlowData: map[string]interface{}{"leadId": "lead-001"},
	})

	require.NoError(t, err)
	assert.True(t, output.Delivered)
	assert.Equal(t, "AGENT_FLOW", gw.flow)
	assert.Equal(t, "lead-001", gw.flowData["leadId"])
	assert.Empty(t, gw.text)
}

func TestExecute_TruncatesLongMessages(t *testing.T) {
	gw := &fakeGateway{accept: true}
	cfg := DefaultConfig()
	cfg.MaxMessageChars = 5
	svc := NewService(cfg, gw, logger.NewTestLogger(t))

	_, err := svc.Execute(context.Background(), &Input{Phone: "+593991234567", Message: "¡Ñandú feliz!"})

	require.NoError(t, err)
	assert.Equal(t, "¡Ñand", gw.text)
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name          string
		input         *Input
		expectedCode  apperrors.ErrorCode
		expectedRetry bool
	}{
		{
			name:         "phone without digits",
			input:        &Input{Phone: "n/a", Message: "hola"},
			expectedCode: apperrors.ErrCodeInvalidInbound,
		},
		{
			name:          "gateway rejects",
			input:         &Input{Phone: "+593991234567", Message: "hola"},
			expectedCode:  apperrors.ErrCodeNotificationSendFailed,
			expectedRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(DefaultConfig(), &fakeGateway{accept: false}, logger.NewTestLogger(t))

			output, err := svc.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Equal(t, tt.expectedRetry, stdErr.Retryable)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxMessageChars = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "max_message_chars"))
}
