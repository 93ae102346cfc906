package sendchatmessage

import (
	"context"
	"time"
)

// Input is either a plain message (optionally with media) or a gateway flow trigger.
type Input struct {
	Phone    string                 `json:"phone"`
	Message  string                 `json:"message,omitempty"`
	MediaURL string                 `json:"mediaUrl,omitempty"`
	Flow     string                 `json:"flow,omitempty"`
	FlowData map[string]interface{} `json:"flowData,omitempty"`
}

type Output struct {
	Delivered bool      `json:"delivered"`
	Phone     string    `json:"phone"`
	Channel   string    `json:"channel"`
	SentAt    time.Time `json:"sentAt"`
}

// Gateway is satisfied by *gateway.Client.
type Gateway interface {
	SendMedia(ctx context.Context, address, text, mediaURL string) bool
	TriggerFlow(ctx context.Context, address, flow string, data map[string]interface{}) bool
}
