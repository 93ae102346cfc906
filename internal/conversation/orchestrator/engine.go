// Package orchestrator runs one inbound message through the conversation
// pipeline: analyze, generate, finalize.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/metrics"
	"github.com/josephinoo/agent-bg/internal/conversation/extract"
	"github.com/josephinoo/agent-bg/internal/conversation/flow"
	"github.com/josephinoo/agent-bg/internal/conversation/intent"
	"github.com/josephinoo/agent-bg/internal/conversation/lexicon"
	"github.com/josephinoo/agent-bg/internal/conversation/offers"
	"github.com/josephinoo/agent-bg/internal/conversation/prompts"
	"github.com/josephinoo/agent-bg/internal/conversation/propensity"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	DefaultLeadCompletenessThreshold = 75
	DefaultGenerationTimeout         = 15 * time.Second
)

type Config struct {
	ResponseMaxChars          int
	LeadCompletenessThreshold int
	GenerationTimeout         time.Duration
	MatchMode                 lexicon.MatchMode
	DefaultProduct            models.ProductType
}

func DefaultConfig() Config {
	return Config{
		ResponseMaxChars:          DefaultResponseMaxChars,
		LeadCompletenessThreshold: DefaultLeadCompletenessThreshold,
		GenerationTimeout:         DefaultGenerationTimeout,
		MatchMode:                 lexicon.MatchWholeWord,
		DefaultProduct:            models.ProductCreditCard,
	}
}

// Turn is the outcome of one pipeline run. State is a copy; the caller's
// state is never mutated.
type Turn struct {
	State        *models.ConversationState
	Contact      *models.Contact
	Text         string
	PreviousStep models.Step
	Intent       models.Intent
	Extracted    []string
	Offer        *offers.Offer
	Response     string
	Fallback     bool
	StateSaved   bool
	LeadEmitted  bool
	LeadErr      error
}

// Engine holds no per-session state and is safe for concurrent use across
// sessions. Callers serialize turns of the same session.
type Engine struct {
	cfg          Config
	store        Store
	generator    Generator
	classifier   *intent.Classifier
	extractor    *extract.Extractor
	prompts      *prompts.Builder
	sessionScore propensity.Strategy
	leadScore    propensity.Strategy
	leads        LeadSink
	recorder     TurnRecorder
	now          func() time.Time
	logger       logger.Logger
}

type Option func(*Engine)

func WithLeadSink(sink LeadSink) Option {
	return func(e *Engine) { e.leads = sink }
}

func WithRecorder(r TurnRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPropensity overrides the strategies used at session start and at lead emission.
func WithPropensity(sessionStart, leadIntent propensity.Strategy) Option {
	return func(e *Engine) {
		if sessionStart != nil {
			e.sessionScore = sessionStart
		}
		if leadIntent != nil {
			e.leadScore = leadIntent
		}
	}
}

// WithLexicon swaps the keyword tables used by the classifier and the extractor.
func WithLexicon(lex *lexicon.Set) Option {
	return func(e *Engine) {
		e.classifier = intent.NewClassifier(lex, e.cfg.MatchMode)
		e.extractor = extract.NewExtractor(lex, e.cfg.MatchMode)
	}
}

func WithPromptBuilder(b *prompts.Builder) Option {
	return func(e *Engine) { e.prompts = b }
}

// NewEngine builds an engine. A nil generator serves the rendered step
// templates directly.
func NewEngine(cfg Config, store Store, generator Generator, log logger.Logger, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.ResponseMaxChars <= 0 {
		cfg.ResponseMaxChars = def.ResponseMaxChars
	}
	if cfg.LeadCompletenessThreshold <= 0 {
		cfg.LeadCompletenessThreshold = def.LeadCompletenessThreshold
	}
	if cfg.MatchMode == "" {
		cfg.MatchMode = def.MatchMode
	}
	if cfg.DefaultProduct == "" {
		cfg.DefaultProduct = def.DefaultProduct
	}

	log = logger.ForComponent(log, "conversation-engine")
	e := &Engine{
		cfg:          cfg,
		store:        store,
		generator:    generator,
		classifier:   intent.NewClassifier(nil, cfg.MatchMode),
		extractor:    extract.NewExtractor(nil, cfg.MatchMode),
		prompts:      prompts.NewBuilder(nil, nil, log),
		sessionScore: propensity.NewSessionStart(),
		leadScore:    propensity.NewLeadIntent(),
		now:          time.Now,
		logger:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewState opens a conversation at GREETING for contact.
func (e *Engine) NewState(c *models.Contact) *models.ConversationState {
	now := e.now()
	product := c.ProductType
	if product == "" {
		product = e.cfg.DefaultProduct
	}
	segment := c.CustomerSegment
	if segment == "" {
		segment = models.SegmentStandard
	}

	s := &models.ConversationState{
		SessionID:       models.NewSessionID(c.Phone, now),
		ContactID:       c.ContactID,
		CampaignID:      c.CampaignID,
		Phone:           c.Phone,
		UserName:        c.DisplayName(),
		ProductType:     product,
		CustomerSegment: segment,
		CurrentStep:     models.StepGreeting,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.PropensityScore = e.sessionScore.Score(propensity.ProfileFor(c, segment, s.CollectedData))
	s.Progress = flow.ComputeProgress(s.CurrentStep, s.CollectedData)
	return s
}

// Greeting renders the opening message for a new state.
func (e *Engine) Greeting(s *models.ConversationState) string {
	text := e.prompts.StepPrompt(prompts.ContextFor(s, models.StepGreeting), nil)
	return Clean(text, e.cfg.ResponseMaxChars)
}

// Process runs one message without contact details.
func (e *Engine) Process(ctx context.Context, state *models.ConversationState, text string) *Turn {
	return e.ProcessWithContact(ctx, state, nil, text)
}

// ProcessWithContact runs one message. The contact feeds the lead propensity
// score and the lead record.
func (e *Engine) ProcessWithContact(ctx context.Context, state *models.ConversationState, contact *models.Contact, text string) *Turn {
	start := time.Now()
	t := &Turn{
		State:        state.Clone(),
		Contact:      contact,
		Text:         text,
		PreviousStep: state.CurrentStep,
		StateSaved:   true,
	}

	e.timed("analyze", func() { e.analyze(ctx, t) })
	e.timed("generate", func() { e.generate(ctx, t) })
	e.timed("finalize", func() { e.finalize(ctx, t) })

	elapsed := time.Since(start)
	metrics.TurnsProcessed.WithLabelValues(string(t.State.CurrentStep), string(t.Intent)).Inc()
	metrics.TurnDuration.WithLabelValues("total").Observe(elapsed.Seconds())
	if e.recorder != nil {
		e.recorder.RecordTurn(ctx, string(t.State.CurrentStep), turnStatus(t), elapsed)
	}

	e.logger.Info("Turn processed", map[string]interface{}{
		"sessionId":    t.State.SessionID,
		"phone":        models.MaskPhone(t.State.Phone),
		"previousStep": string(t.PreviousStep),
		"step":         string(t.State.CurrentStep),
		"intent":       string(t.Intent),
		"extracted":    t.Extracted,
		"fallback":     t.Fallback,
		"stateSaved":   t.StateSaved,
		"leadEmitted":  t.LeadEmitted,
		"duration":     elapsed.Milliseconds(),
	})
	return t
}

func (e *Engine) analyze(ctx context.Context, t *Turn) {
	s := t.State
	if err := e.store.SaveState(ctx, s); err != nil {
		e.persistenceFailed(apperrors.NewStateSaveFailedError(s.SessionID, err), "ensure_state")
	}

	t.Intent = e.classifier.Classify(t.Text, s.CurrentStep)
	t.Extracted = e.extractor.ForStep(s.CurrentStep, t.Text, &s.CollectedData)
	if s.CurrentStep == models.StepCollectIncome && len(t.Extracted) == 0 {
		if v, ok := extract.FirstNumber(t.Text); ok {
			s.CollectedData.SetMonthlyIncome(v)
			t.Extracted = []string{models.FieldMonthlyIncome}
		}
	}

	s.DetectedIntent = t.Intent
	s.IntentConfirmed = t.Intent.Confirmation()
	s.AppendMessage(models.RoleUser, t.Text, s.CurrentStep, e.now())
	e.logMessage(ctx, s, models.RoleUser, t.Text)
}

func (e *Engine) generate(ctx context.Context, t *Turn) {
	s := t.State
	next := flow.Next(t.PreviousStep, t.Intent, s.CollectedData)

	switch {
	case t.Intent == models.IntentNegative && t.PreviousStep != models.StepGreeting:
		t.Response = e.prompts.NegativeClosing(s.UserName)
	case next == models.StepError:
		stdErr := apperrors.NewTransitionUnresolvedError(string(t.PreviousStep), string(t.Intent))
		e.logger.Error("Turn fell through the transition table", map[string]interface{}{
			"sessionId":     s.SessionID,
			"step":          string(t.PreviousStep),
			"intent":        string(t.Intent),
			"collectedData": s.CollectedData.ToMap(),
			"errorCode":     string(stdErr.Code),
		})
		t.Response = e.prompts.RawTemplate(models.StepError)
	default:
		t.Response = e.respond(ctx, t, next)
	}

	t.Response = Clean(t.Response, e.cfg.ResponseMaxChars)
	s.CurrentStep = next
	s.AppendMessage(models.RoleAssistant, t.Response, next, e.now())
	e.logMessage(ctx, s, models.RoleAssistant, t.Response)
}

func (e *Engine) respond(ctx context.Context, t *Turn, next models.Step) string {
	s := t.State
	pctx := prompts.ContextFor(s, next)

	var extras map[string]string
	if next == models.StepPresentOffer {
		offer, err := e.prompts.Offers().Calculate(s.ProductType, s.CollectedData.Income())
		if err != nil {
			e.logger.Warn("Offer calculation failed", map[string]interface{}{
				"sessionId":   s.SessionID,
				"productType": string(s.ProductType),
				"error":       err.Error(),
			})
		} else {
			t.Offer = &offer
			extras = map[string]string{"offer_details": offers.Describe(offer)}
		}
	}

	stepPrompt := e.prompts.StepPrompt(pctx, extras)
	if e.generator == nil {
		return stepPrompt
	}

	gctx := ctx
	if e.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, e.cfg.GenerationTimeout)
		defer cancel()
	}

	text, err := e.generator.Complete(gctx, e.prompts.SystemPrompt(pctx), e.prompts.GenerationRequest(stepPrompt))
	if err == nil && strings.TrimSpace(text) != "" {
		return text
	}

	reason, fields := "empty", map[string]interface{}{
		"sessionId": s.SessionID,
		"step":      string(next),
	}
	if err != nil {
		stdErr := apperrors.NewGenerationFailedError(err)
		reason = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(gctx.Err(), context.DeadlineExceeded) {
			stdErr = apperrors.NewGenerationTimeoutError(err)
			reason = "timeout"
		}
		fields["errorCode"] = string(stdErr.Code)
		fields["error"] = err.Error()
	}
	fields["reason"] = reason
	metrics.GenerationFallbacks.WithLabelValues(reason).Inc()
	e.logger.Warn("Generation failed, using step template", fields)

	t.Fallback = true
	return e.prompts.RawTemplate(next)
}

func (e *Engine) finalize(ctx context.Context, t *Turn) {
	s := t.State
	s.Progress = flow.ComputeProgress(s.CurrentStep, s.CollectedData)
	s.UpdatedAt = e.now()

	if err := e.store.SaveState(ctx, s); err != nil {
		t.StateSaved = false
		e.persistenceFailed(apperrors.NewStateSaveFailedError(s.SessionID, err), "save_state")
	}

	if e.leadDue(s) {
		e.emitLead(ctx, t)
	}
}

func (e *Engine) leadDue(s *models.ConversationState) bool {
	return s.CurrentStep == models.StepClosePositive &&
		s.IntentConfirmed != nil && *s.IntentConfirmed &&
		s.Progress.DataCompleteness >= e.cfg.LeadCompletenessThreshold &&
		!s.LeadGenerated
}

func (e *Engine) emitLead(ctx context.Context, t *Turn) {
	s := t.State
	s.PropensityScore = e.leadScore.Score(propensity.ProfileFor(t.Contact, s.CustomerSegment, s.CollectedData))

	leadID, err := e.store.SaveLead(ctx, s)
	if err != nil {
		t.LeadErr = err
		e.persistenceFailed(apperrors.NewLeadSaveFailedError(s.SessionID, err), "save_lead")
		return
	}

	s.LeadGenerated = true
	s.LeadID = leadID
	t.LeadEmitted = true
	metrics.LeadsEmitted.WithLabelValues(string(s.ProductType)).Inc()
	if e.recorder != nil {
		e.recorder.RecordLead(ctx, string(s.ProductType))
	}
	e.logger.Info("Lead generated", map[string]interface{}{
		"sessionId":       s.SessionID,
		"leadId":          leadID,
		"productType":     string(s.ProductType),
		"propensityScore": s.PropensityScore,
	})

	if err := e.store.SaveState(ctx, s); err != nil {
		t.StateSaved = false
		e.persistenceFailed(apperrors.NewStateSaveFailedError(s.SessionID, err), "save_state")
	}

	if e.leads == nil {
		return
	}
	lead := models.NewLead(leadID, s, e.now())
	if t.Contact != nil {
		lead.LastName = t.Contact.LastName
		lead.Email = t.Contact.Email
	}
	if err := e.leads.Publish(ctx, lead); err != nil {
		e.logger.Warn("Lead dispatch failed", map[string]interface{}{
			"sessionId": s.SessionID,
			"leadId":    leadID,
			"error":     err.Error(),
		})
	}
}

func (e *Engine) logMessage(ctx context.Context, s *models.ConversationState, role models.Role, text string) {
	if _, err := e.store.AppendMessage(ctx, s.SessionID, role, text, s.CurrentStep); err != nil {
		e.persistenceFailed(apperrors.NewMessageLogFailedError(s.SessionID, err), "append_message")
	}
}

func (e *Engine) persistenceFailed(stdErr *apperrors.StandardError, operation string) {
	metrics.PersistenceFailures.WithLabelValues(operation).Inc()
	e.logger.Warn("Persistence call failed", map[string]interface{}{
		"operation": operation,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
}

func (e *Engine) timed(stage string, fn func()) {
	start := time.Now()
	fn()
	metrics.TurnDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func turnStatus(t *Turn) string {
	switch {
	case !t.StateSaved:
		return "state_not_saved"
	case t.Fallback:
		return "fallback"
	case t.State.CurrentStep == models.StepError:
		return "error"
	}
	return "ok"
}

// Snapshot is the progress summary of a conversation.
type Snapshot struct {
	SessionID           string        `json:"session_id"`
	CurrentStep         models.Step   `json:"current_step"`
	ProgressPercentage  int           `json:"progress_percentage"`
	DataCompleteness    int           `json:"data_completeness"`
	MessageCount        int           `json:"message_count"`
	IntentConfirmed     *bool         `json:"intent_confirmed"`
	DetectedIntent      models.Intent `json:"detected_intent,omitempty"`
	LeadGenerated       bool          `json:"lead_generated"`
	ConversationStarted *time.Time    `json:"conversation_started"`
}

func (e *Engine) Metrics(s *models.ConversationState) Snapshot {
	p := flow.ComputeProgress(s.CurrentStep, s.CollectedData)
	snap := Snapshot{
		SessionID:          s.SessionID,
		CurrentStep:        s.CurrentStep,
		ProgressPercentage: p.ProgressPercentage,
		DataCompleteness:   p.DataCompleteness,
		MessageCount:       len(s.Messages),
		IntentConfirmed:    s.IntentConfirmed,
		DetectedIntent:     s.DetectedIntent,
		LeadGenerated:      s.LeadGenerated,
	}
	if len(s.Messages) > 0 {
		first := s.Messages[0].Timestamp
		snap.ConversationStarted = &first
	}
	return snap
}
