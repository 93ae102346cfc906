package sessionmetrics

import (
	"context"
	"time"

	"github.com/josephinoo/agent-bg/internal/conversation/orchestrator"
)

type Input struct {
	Phone string `json:"phone"`
}

type Output struct {
	Found               bool       `json:"sessionFound"`
	SessionID           string     `json:"sessionId,omitempty"`
	CurrentStep         string     `json:"currentStep,omitempty"`
	ProgressPercentage  int        `json:"progressPercentage"`
	DataCompleteness    int        `json:"dataCompleteness"`
	MessageCount        int        `json:"messageCount"`
	IntentConfirmed     *bool      `json:"intentConfirmed"`
	DetectedIntent      string     `json:"detectedIntent,omitempty"`
	LeadGenerated       bool       `json:"leadGenerated"`
	ConversationStarted *time.Time `json:"conversationStarted,omitempty"`
}

// MetricsReader is satisfied by *orchestrator.Service.
type MetricsReader interface {
	SessionMetrics(ctx context.Context, address string) (*orchestrator.Snapshot, error)
}
