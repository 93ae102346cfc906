// Package gateway delivers outbound chat messages through the BuilderBot HTTP API.
package gateway

import (
	"context"
	"strings"
	"time"

	commonhttp "github.com/josephinoo/agent-bg/internal/common/http"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/metrics"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	DefaultBaseURL = "http://localhost:3008"
	DefaultTimeout = 10 * time.Second

	FlowRegister = "REGISTER_FLOW"
	FlowAgent    = "AGENT_FLOW"
)

var flowEndpoints = map[string]string{
	FlowRegister: "/v1/register",
	FlowAgent:    "/trigger-agent",
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *commonhttp.Client
	logger  logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    commonhttp.NewClient(cfg.Timeout),
		logger:  logger.ForComponent(log, "chat-gateway"),
	}
}

// Send delivers text to address and reports whether the gateway accepted it.
func (c *Client) Send(ctx context.Context, address, text string) bool {
	return c.SendMedia(ctx, address, text, "")
}

// SendMedia is Send with an optional media attachment URL.
func (c *Client) SendMedia(ctx context.Context, address, text, mediaURL string) bool {
	payload := map[string]interface{}{
		"number":  address,
		"message": text,
	}
	if mediaURL != "" {
		payload["urlMedia"] = mediaURL
	}

	if err := c.http.PostJSON(ctx, c.baseURL+"/send-message", nil, payload, nil); err != nil {
		metrics.OutboundMessages.WithLabelValues("failed").Inc()
		c.logger.Error("Outbound message not delivered", map[string]interface{}{
			"phone": models.MaskPhone(address),
			"error": err.Error(),
		})
		return false
	}

	metrics.OutboundMessages.WithLabelValues("sent").Inc()
	c.logger.Debug("Outbound message delivered", map[string]interface{}{
		"phone":  models.MaskPhone(address),
		"length": len(text),
	})
	return true
}

// TriggerFlow starts a named gateway flow for address. Unknown flow names use
// the registration endpoint.
func (c *Client) TriggerFlow(ctx context.Context, address, flow string, data map[string]interface{}) bool {
	endpoint, ok := flowEndpoints[flow]
	if !ok {
		endpoint = flowEndpoints[FlowRegister]
	}

	payload := make(map[string]interface{}, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["number"] = address
	payload["name"] = flow

	if err := c.http.PostJSON(ctx, c.baseURL+endpoint, nil, payload, nil); err != nil {
		c.logger.Error("Gateway flow not triggered", map[string]interface{}{
			"phone": models.MaskPhone(address),
			"flow":  flow,
			"error": err.Error(),
		})
		return false
	}
	return true
}
