package processinboundmessage

import (
	"context"

	"github.com/josephinoo/agent-bg/internal/conversation/orchestrator"
)

type Input struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	// DeliverReply sends the response through the chat gateway before completing the job.
	DeliverReply bool `json:"deliverReply,omitempty"`
}

type Output struct {
	Status          string                 `json:"conversationStatus"`
	Response        string                 `json:"conversationResponse"`
	Step            string                 `json:"conversationStep"`
	SessionID       string                 `json:"sessionId,omitempty"`
	IntentConfirmed *bool                  `json:"intentConfirmed"`
	CollectedData   map[string]interface{} `json:"collectedData"`
	LeadGenerated   bool                   `json:"leadGenerated"`
	ReplyDelivered  bool                   `json:"replyDelivered"`
}

// InboundHandler is satisfied by *orchestrator.Service.
type InboundHandler interface {
	HandleInbound(ctx context.Context, address, text string) orchestrator.InboundResponse
}

// Sender is satisfied by *gateway.Client.
type Sender interface {
	Send(ctx context.Context, address, text string) bool
}
