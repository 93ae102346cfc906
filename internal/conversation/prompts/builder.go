package prompts

import (
	"fmt"
	"math"
	"strings"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/conversation/flow"
	"github.com/josephinoo/agent-bg/internal/conversation/offers"
	"github.com/josephinoo/agent-bg/internal/models"
)

// Context is the slice of conversation state the builder needs.
type Context struct {
	UserName        string
	Product         models.ProductType
	Segment         models.Segment
	Step            models.Step
	Data            models.CollectedData
	PropensityScore float64
}

// ContextFor derives the prompt context of state at step.
func ContextFor(s *models.ConversationState, step models.Step) Context {
	return Context{
		UserName:        s.UserName,
		Product:         s.ProductType,
		Segment:         s.CustomerSegment,
		Step:            step,
		Data:            s.CollectedData,
		PropensityScore: s.PropensityScore,
	}
}

// Builder renders prompts from an immutable catalog. It is safe for concurrent use.
type Builder struct {
	catalog *Catalog
	offers  *offers.Catalog
	logger  logger.Logger
}

func NewBuilder(catalog *Catalog, offerCatalog *offers.Catalog, log logger.Logger) *Builder {
	if catalog == nil {
		catalog = SpanishCatalog()
	}
	if offerCatalog == nil {
		offerCatalog = offers.DefaultCatalog()
	}
	return &Builder{
		catalog: catalog,
		offers:  offerCatalog,
		logger:  logger.ForComponent(log, "prompt-builder"),
	}
}

func (b *Builder) Offers() *offers.Catalog {
	return b.offers
}

// SystemPrompt builds the persona prompt with the segment adaptation.
func (b *Builder) SystemPrompt(ctx Context) string {
	seg := b.catalog.Segment(ctx.Segment)
	vars := map[string]string{
		"user_name":                displayName(ctx.UserName),
		"product_type_display":     ctx.Product.Display(),
		"customer_segment_display": ctx.Segment.Display(),
		"current_step_display":     ctx.Step.Display(),
		"collected_data_summary":   b.summarize(ctx.Data),
		"propensity_score":         fmt.Sprintf("%d", int(math.Round(ctx.PropensityScore*100))),
		"tone":                     seg.Tone,
		"language":                 seg.Language,
		"focus":                    seg.Focus,
	}
	text, missing := Template{Text: b.catalog.Persona}.Render(vars)
	if len(missing) > 0 {
		b.logger.Warn("persona template has unresolved variables", map[string]interface{}{
			"missing": missing,
		})
	}
	return text
}

// StepPrompt renders the template of ctx.Step. extras override computed variables.
// A template with missing variables is returned raw.
func (b *Builder) StepPrompt(ctx Context, extras map[string]string) string {
	tmpl, ok := b.catalog.Template(ctx.Step)
	if !ok {
		b.logger.Warn("no template for step", map[string]interface{}{"step": string(ctx.Step)})
		return ""
	}

	vars := b.stepVars(ctx)
	for k, v := range extras {
		vars[k] = v
	}

	text, missing := tmpl.Render(vars)
	if len(missing) > 0 {
		b.logger.Warn("step template variables missing", map[string]interface{}{
			"step":    string(ctx.Step),
			"missing": missing,
		})
	}
	return text
}

// RawTemplate is the un-rendered copy of step.
func (b *Builder) RawTemplate(step models.Step) string {
	tmpl, _ := b.catalog.Template(step)
	return tmpl.Text
}

// GenerationRequest wraps a rendered step prompt as the user turn for the generator.
func (b *Builder) GenerationRequest(stepPrompt string) string {
	text, _ := b.catalog.GenerationRequest.Render(map[string]string{"step_prompt": stepPrompt})
	return text
}

// NegativeClosing is the canned goodbye sent when the contact declines.
func (b *Builder) NegativeClosing(userName string) string {
	text, _ := b.catalog.NegativeClosing.Render(map[string]string{"user_name": displayName(userName)})
	return text
}

// OfferDetails sizes and describes the offer for ctx.
func (b *Builder) OfferDetails(ctx Context) (string, error) {
	o, err := b.offers.Calculate(ctx.Product, ctx.Data.Income())
	if err != nil {
		return "", err
	}
	return offers.Describe(o), nil
}

func (b *Builder) stepVars(ctx Context) map[string]string {
	seg := b.catalog.Segment(ctx.Segment)
	vars := map[string]string{
		"user_name":            displayName(ctx.UserName),
		"product_type_display": ctx.Product.Display(),
		"segment_greeting":     seg.Greeting,
	}
	if ctx.Data.MonthlyIncome != nil {
		vars[models.FieldMonthlyIncome] = offers.FormatMoney(*ctx.Data.MonthlyIncome)
	}
	if ctx.Data.RequestedAmount != nil {
		vars[models.FieldRequestedAmount] = offers.FormatMoney(*ctx.Data.RequestedAmount)
	}

	cfg, cfgErr := b.offers.Config(ctx.Product)

	switch ctx.Step {
	case models.StepCollectIncome:
		vars["confirmation_phrase"] = seg.Confirmation
		if cfgErr == nil {
			vars["income_context"] = cfg.IncomeContext
		}
	case models.StepCollectAmount:
		vars["employment_acknowledgment"] = b.catalog.EmploymentAcknowledgments[ctx.Data.EmploymentType]
		if cfgErr == nil {
			vars["amount_question"] = cfg.AmountQuestion
		}
	case models.StepPresentOffer:
		if details, err := b.OfferDetails(ctx); err == nil {
			vars["offer_details"] = details
		}
	case models.StepAwaitingDecision:
		vars["decision_prompt"] = b.decisionPrompt(ctx)
	case models.StepHandleObjection:
		if cfgErr == nil {
			vars["objection_topic"] = cfg.ObjectionTopic
			vars["objection_response"] = cfg.ObjectionResponse
		}
	case models.StepRequestClarification:
		vars["clarification_examples"] = b.clarificationExamples(ctx.Data)
	}
	return vars
}

func (b *Builder) decisionPrompt(ctx Context) string {
	o, err := b.offers.Calculate(ctx.Product, ctx.Data.Income())
	if err != nil || offers.Headline(o) == "" {
		return "Ya tienes toda la información de la propuesta."
	}
	return fmt.Sprintf("Te resumo la propuesta: %s.", offers.Headline(o))
}

func (b *Builder) clarificationExamples(d models.CollectedData) string {
	c := b.catalog.Clarifications
	switch {
	case !flow.IncomeValid(d):
		return c.Income
	case !flow.EmploymentValid(d):
		return c.Employment
	case !flow.AmountValid(d):
		return c.Amount
	}
	return c.Decision
}

func (b *Builder) summarize(d models.CollectedData) string {
	var parts []string
	if d.MonthlyIncome != nil {
		parts = append(parts, "Ingresos mensuales: $"+offers.FormatMoney(*d.MonthlyIncome))
	}
	if d.EmploymentType != "" {
		label := b.catalog.EmploymentLabels[d.EmploymentType]
		if label == "" {
			label = d.EmploymentType
		}
		parts = append(parts, "Tipo de empleo: "+label)
	}
	if d.RequestedAmount != nil {
		parts = append(parts, "Monto solicitado: $"+offers.FormatMoney(*d.RequestedAmount))
	}
	if len(parts) == 0 {
		return b.catalog.NoDataSummary
	}
	return strings.Join(parts, ", ")
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return models.DefaultUserName
	}
	return name
}
