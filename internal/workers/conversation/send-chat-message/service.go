package sendchatmessage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/models"
)

const channelWhatsApp = "whatsapp"

var errGatewayRejected = errors.New("gateway did not accept the message")

type Service struct {
	config  *Config
	gateway Gateway
	logger  logger.Logger
	now     func() time.Time
}

func NewService(config *Config, gateway Gateway, log logger.Logger) *Service {
	return &Service{
		config:  config,
		gateway: gateway,
		logger:  log,
		now:     time.Now,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	phone := models.NormalizePhone(input.Phone)
	if phone == "" {
		return nil, apperrors.NewInvalidInboundError(fmt.Sprintf("phone %q has no digits", input.Phone))
	}

	var delivered bool
	if input.Flow != "" {
		delivered = s.gateway.TriggerFlow(ctx, phone, input.Flow, input.FlowData)
	} else {
		delivered = s.gateway.SendMedia(ctx, phone, s.truncate(input.Message), input.MediaURL)
	}
	if !delivered {
		return nil, apperrors.NewNotificationSendFailedError(channelWhatsApp, errGatewayRejected)
	}

	s.logger.Info("Chat message sent", map[string]interface{}{
		"phone": models.MaskPhone(phone),
		"flow":  input.Flow,
		"media": input.MediaURL != "",
	})
	return &Output{
		Delivered: true,
		Phone:     phone,
		Channel:   channelWhatsApp,
		SentAt:    s.now(),
	}, nil
}

func (s *Service) truncate(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if s.config.MaxMessageChars > 0 && len(runes) > s.config.MaxMessageChars {
		return string(runes[:s.config.MaxMessageChars])
	}
	return text
}
