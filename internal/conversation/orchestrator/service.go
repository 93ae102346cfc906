package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	StatusSuccess        = "success"
	StatusChatStarted    = "chat_started"
	StatusNoCampaign     = "no_campaign"
	StatusError          = "error"
	StatusInvalidRequest = "invalid_request"

	StepNotEligible = "not_eligible"

	MessageNoCampaign     = "Gracias por contactarnos. En este momento atendemos consultas específicas de nuestros clientes en campañas activas."
	MessageTechnicalIssue = "Disculpa, tengo problemas técnicos en este momento. ¿Podrías intentar más tarde?"
	MessageInvalidRequest = "No pude procesar tu mensaje. ¿Podrías intentarlo nuevamente?"
)

// InboundResponse is the only shape HandleInbound and StartChat return.
type InboundResponse struct {
	Status          string                 `json:"status"`
	ResponseText    string                 `json:"response"`
	Step            string                 `json:"step"`
	SessionID       string                 `json:"session_id,omitempty"`
	IntentConfirmed *bool                  `json:"intent_confirmed"`
	CollectedData   map[string]interface{} `json:"collected_data"`
	LeadGenerated   bool                   `json:"lead_generated"`
}

// ChatProfile is what the campaign side knows about a contact before the chat starts.
type ChatProfile struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ProductType     string `json:"product_type"`
	CustomerSegment string `json:"customer_segment"`
}

type ServiceConfig struct {
	LockTimeout time.Duration
}

// Service is the inbound entry point. It resolves the contact, serializes
// turns per phone number and never returns an error to its caller.
type Service struct {
	cfg      ServiceConfig
	engine   *Engine
	store    Store
	contacts ContactDirectory
	indexer  TranscriptIndexer
	local    *KeyedMutex
	shared   Locker
	logger   logger.Logger
}

type ServiceOption func(*Service)

// WithSharedLock adds a lock held across service instances, taken after the local one.
func WithSharedLock(l Locker) ServiceOption {
	return func(s *Service) { s.shared = l }
}

func WithIndexer(ix TranscriptIndexer) ServiceOption {
	return func(s *Service) { s.indexer = ix }
}

func NewService(cfg ServiceConfig, engine *Engine, store Store, contacts ContactDirectory, log logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		contacts: contacts,
		local:    NewKeyedMutex(),
		logger:   logger.ForComponent(log, "conversation-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Engine() *Engine {
	return s.engine
}

// HandleInbound processes one message from address.
func (s *Service) HandleInbound(ctx context.Context, address, text string) (resp InboundResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while handling inbound message", map[string]interface{}{
				"phone": models.MaskPhone(address),
				"panic": fmt.Sprint(r),
			})
			resp = errorResponse("")
		}
	}()

	phone := models.NormalizePhone(address)
	if phone == "" || strings.TrimSpace(text) == "" {
		stdErr := apperrors.NewInvalidInboundError("phone and message are required")
		s.logger.Warn("Rejected inbound message", map[string]interface{}{"errorCode": string(stdErr.Code)})
		return InboundResponse{Status: StatusInvalidRequest, ResponseText: MessageInvalidRequest, Step: string(models.StepError)}
	}

	contact, err := s.contacts.LookupContact(ctx, phone)
	if err != nil {
		s.fail(apperrors.NewContactLookupFailedError(err), phone)
		return errorResponse("")
	}
	if contact == nil {
		s.logger.Info("Contact not in an active campaign", map[string]interface{}{
			"phone":     models.MaskPhone(phone),
			"errorCode": string(apperrors.ErrCodeContactNotEligible),
		})
		return InboundResponse{Status: StatusNoCampaign, ResponseText: MessageNoCampaign, Step: StepNotEligible}
	}

	release, err := s.lock(ctx, phone)
	if err != nil {
		s.fail(apperrors.NewSessionLockTimeoutError(models.MaskPhone(phone), err), phone)
		return errorResponse("")
	}
	defer release()

	state, err := s.store.LoadState(ctx, phone)
	if err != nil {
		s.fail(apperrors.NewStateLoadFailedError(models.MaskPhone(phone), err), phone)
		return errorResponse("")
	}
	if state == nil || state.CurrentStep.IsTerminal() || state.CampaignID != contact.CampaignID {
		state = s.engine.NewState(contact)
	}

	turn := s.engine.ProcessWithContact(ctx, state, contact, text)
	s.index(ctx, turn)

	return InboundResponse{
		Status:          StatusSuccess,
		ResponseText:    turn.Response,
		Step:            string(turn.State.CurrentStep),
		SessionID:       turn.State.SessionID,
		IntentConfirmed: turn.State.IntentConfirmed,
		CollectedData:   turn.State.CollectedData.ToMap(),
		LeadGenerated:   turn.State.LeadGenerated,
	}
}

// StartChat registers the contact in the campaign and opens a new session with
// the greeting. Sending the greeting is left to the caller.
func (s *Service) StartChat(ctx context.Context, address, campaignID string, profile ChatProfile) (resp InboundResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while starting chat", map[string]interface{}{
				"phone": models.MaskPhone(address),
				"panic": fmt.Sprint(r),
			})
			resp = errorResponse("")
		}
	}()

	phone := models.NormalizePhone(address)
	if phone == "" || strings.TrimSpace(campaignID) == "" {
		return InboundResponse{Status: StatusInvalidRequest, ResponseText: MessageInvalidRequest, Step: string(models.StepError)}
	}

	product, ok := models.ParseProduct(profile.ProductType)
	if !ok {
		product = s.engine.cfg.DefaultProduct
	}
	contact := &models.Contact{
		CampaignID:      campaignID,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		Phone:           phone,
		ProductType:     product,
		CustomerSegment: models.ParseSegment(profile.CustomerSegment),
	}
	if err := s.contacts.UpsertContact(ctx, contact); err != nil {
		s.fail(apperrors.NewDatabaseConnectionFailedError(err), phone)
		return errorResponse("")
	}

	release, err := s.lock(ctx, phone)
	if err != nil {
		s.fail(apperrors.NewSessionLockTimeoutError(models.MaskPhone(phone), err), phone)
		return errorResponse("")
	}
	defer release()

	state := s.engine.NewState(contact)
	greeting := s.engine.Greeting(state)
	state.AppendMessage(models.RoleAssistant, greeting, state.CurrentStep, state.CreatedAt)

	if err := s.store.SaveState(ctx, state); err != nil {
		s.fail(apperrors.NewStateSaveFailedError(state.SessionID, err), phone)
		return errorResponse(state.SessionID)
	}
	if _, err := s.store.AppendMessage(ctx, state.SessionID, models.RoleAssistant, greeting, state.CurrentStep); err != nil {
		s.logger.Warn("Greeting message not logged", map[string]interface{}{
			"sessionId": state.SessionID,
			"error":     err.Error(),
		})
	}

	s.logger.Info("Chat started", map[string]interface{}{
		"sessionId":   state.SessionID,
		"campaignId":  campaignID,
		"phone":       models.MaskPhone(phone),
		"productType": string(product),
	})
	return InboundResponse{
		Status:        StatusChatStarted,
		ResponseText:  greeting,
		Step:          string(state.CurrentStep),
		SessionID:     state.SessionID,
		CollectedData: state.CollectedData.ToMap(),
	}
}

// SessionMetrics returns the progress snapshot of the stored session for address.
func (s *Service) SessionMetrics(ctx context.Context, address string) (*Snapshot, error) {
	state, err := s.store.LoadState(ctx, models.NormalizePhone(address))
	if err != nil || state == nil {
		return nil, err
	}
	snap := s.engine.Metrics(state)
	return &snap, nil
}

func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	if s.cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LockTimeout)
		defer cancel()
	}

	releaseLocal, err := s.local.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.shared == nil {
		return releaseLocal, nil
	}

	releaseShared, err := s.shared.Acquire(ctx, key)
	if err != nil {
		releaseLocal()
		return nil, err
	}
	return func() {
		releaseShared()
		releaseLocal()
	}, nil
}

func (s *Service) index(ctx context.Context, t *Turn) {
	if s.indexer == nil {
		return
	}
	entry := models.TranscriptEntry{
		SessionID:    t.State.SessionID,
		CampaignID:   t.State.CampaignID,
		Phone:        models.MaskPhone(t.State.Phone),
		ProductType:  t.State.ProductType,
		PreviousStep: t.PreviousStep,
		Step:         t.State.CurrentStep,
		Intent:       t.Intent,
		UserText:     t.Text,
		ResponseText: t.Response,
		Fallback:     t.Fallback,
		Completeness: t.State.Progress.DataCompleteness,
		Timestamp:    t.State.UpdatedAt,
	}
	if err := s.indexer.IndexTurn(ctx, entry); err != nil {
		s.logger.Warn("Transcript indexing failed", map[string]interface{}{
			"sessionId": t.State.SessionID,
			"errorCode": string(apperrors.ErrCodeIndexWriteFailed),
			"error":     err.Error(),
		})
	}
}

func (s *Service) fail(stdErr *apperrors.StandardError, phone string) {
	s.logger.Error("Inbound message failed", map[string]interface{}{
		"phone":     models.MaskPhone(phone),
		"errorCode": string(stdErr.Code),
		"category":  apperrors.GetErrorCategory(stdErr.Code),
		"details":   stdErr.Details,
	})
}

func errorResponse(sessionID string) InboundResponse {
	return InboundResponse{
		Status:       StatusError,
		ResponseText: MessageTechnicalIssue,
		Step:         string(models.StepError),
		SessionID:    sessionID,
	}
}
