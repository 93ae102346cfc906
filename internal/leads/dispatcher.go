// Package leads fans a persisted lead out to the CRM, the notification
// channels and the follow-up workflow.
package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonaws "github.com/josephinoo/agent-bg/internal/common/aws"
	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/metrics"
	"github.com/josephinoo/agent-bg/internal/common/zoho"
	"github.com/josephinoo/agent-bg/internal/conversation/offers"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	SinkCRM     = "crm"
	SinkSNS     = "sns"
	SinkSES     = "ses"
	SinkProcess = "process"

	EventLeadCreated   = "lead.created"
	DefaultSinkTimeout = 10 * time.Second
	zohoLeadSource     = "WhatsApp"
)

type CRM interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
	SearchLeadsByPhone(ctx context.Context, phone string) ([]zoho.Lead, error)
}

type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Mailer interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

type Config struct {
	SNSTopicARN  string
	FromEmail    string
	AdvisorEmail string
	ProcessID    string
	SinkTimeout  time.Duration
	// Async runs the fan-out in the background after validation.
	Async bool
}

// Dispatcher implements the lead sink of the conversation engine. Only
// configured sinks are called; a failing sink never stops the others.
type Dispatcher struct {
	cfg       Config
	crm       CRM
	publisher Publisher
	mailer    Mailer
	processes ProcessStarter
	logger    logger.Logger
	wg        sync.WaitGroup
}

type Option func(*Dispatcher)

func WithCRM(c CRM) Option { return func(d *Dispatcher) { d.crm = c } }
func WithPublisher(p Publisher) Option { return func(d *Dispatcher) { d.publisher = p } }
func WithMailer(m Mailer) Option { return func(d *Dispatcher) { d.mailer = m } }
func WithProcessStarter(p ProcessStarter) Option { return func(d *Dispatcher) { d.processes = p } }

func NewDispatcher(cfg Config, log logger.Logger, opts ...Option) *Dispatcher {
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = DefaultSinkTimeout
	}
	d := &Dispatcher{
		cfg:    cfg,
		logger: logger.ForComponent(log, "lead-dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate checks lead against the lead schema.
func Validate(lead *models.Lead) error {
	result, err := leadSchema.Validate(lead)
	if err != nil {
		return apperrors.NewLeadValidationFailedError(err.Error())
	}
	if !result.Valid {
		return apperrors.NewLeadValidationFailedError(result.Error())
	}
	return nil
}

func (d *Dispatcher) Publish(ctx context.Context, lead *models.Lead) error {
	if err := Validate(lead); err != nil {
		metrics.LeadDispatches.WithLabelValues("validation", "rejected").Inc()
		return err
	}

	if d.cfg.Async {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.fanOut(context.WithoutCancel(ctx), lead); err != nil {
				d.logger.Warn("Lead fan-out incomplete", map[string]interface{}{
					"leadId": lead.ID,
					"error":  err.Error(),
				})
			}
		}()
		return nil
	}
	return d.fanOut(ctx, lead)
}

// Wait blocks until background fan-outs have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) fanOut(ctx context.Context, lead *models.Lead) error {
	var errs []error
	run := func(sink string, fn func(context.Context) error) {
		sinkCtx, cancel := context.WithTimeout(ctx, d.cfg.SinkTimeout)
		defer cancel()

		if err := fn(sinkCtx); err != nil {
			metrics.LeadDispatches.WithLabelValues(sink, "failed").Inc()
			d.logger.Warn("Lead sink failed", map[string]interface{}{
				"sink":   sink,
				"leadId": lead.ID,
				"error":  err.Error(),
			})
			errs = append(errs, err)
			return
		}
		metrics.LeadDispatches.WithLabelValues(sink, "delivered").Inc()
	}

	if d.crm != nil {
		run(SinkCRM, func(ctx context.Context) error { return d.pushCRM(ctx, lead) })
	}
	if d.publisher != nil && d.cfg.SNSTopicARN != "" {
		run(SinkSNS, func(ctx context.Context) error { return d.publishEvent(ctx, lead) })
	}
	if d.mailer != nil && d.cfg.AdvisorEmail != "" {
		run(SinkSES, func(ctx context.Context) error { return d.notifyAdvisor(ctx, lead) })
	}
	if d.processes != nil && d.cfg.ProcessID != "" {
		run(SinkProcess, func(ctx context.Context) error { return d.startFollowUp(ctx, lead) })
	}

	d.logger.Info("Lead dispatched", map[string]interface{}{
		"leadId":   lead.ID,
		"failures": len(errs),
	})
	return errors.Join(errs...)
}

func (d *Dispatcher) pushCRM(ctx context.Context, lead *models.Lead) error {
	existing, err := d.crm.SearchLeadsByPhone(ctx, lead.Phone)
	if err != nil {
		d.logger.Warn("CRM duplicate search failed", map[string]interface{}{
			"leadId": lead.ID,
			"error":  err.Error(),
		})
	} else if len(existing) > 0 {
		d.logger.Info("Lead already present in CRM", map[string]interface{}{
			"leadId":    lead.ID,
			"crmLeadId": existing[0].ID,
		})
		return nil
	}

	crmID, err := d.crm.CreateLead(ctx, toZohoLead(lead))
	if err != nil {
		return apperrors.NewCRMPushFailedError(err)
	}
	d.logger.Info("Lead pushed to CRM", map[string]interface{}{
		"leadId":    lead.ID,
		"crmLeadId": crmID,
	})
	return nil
}

func (d *Dispatcher) publishEvent(ctx context.Context, lead *models.Lead) error {
	input, err := commonaws.PublishEvent(d.cfg.SNSTopicARN, EventLeadCreated, subjectFor(lead), lead)
	if err != nil {
		return apperrors.NewNotificationSendFailedError(SinkSNS, err)
	}
	if _, err := d.publisher.Publish(ctx, input); err != nil {
		return apperrors.NewNotificationSendFailedError(SinkSNS, err)
	}
	return nil
}

func (d *Dispatcher) notifyAdvisor(ctx context.Context, lead *models.Lead) error {
	input := commonaws.TextEmail(d.cfg.FromEmail, d.cfg.AdvisorEmail, subjectFor(lead), advisorEmailBody(lead))
	if _, err := d.mailer.SendEmail(ctx, input); err != nil {
		return apperrors.NewNotificationSendFailedError(SinkSES, err)
	}
	return nil
}

func (d *Dispatcher) startFollowUp(ctx context.Context, lead *models.Lead) error {
	vars := map[string]interface{}{
		"leadId":          lead.ID,
		"sessionId":       lead.SessionID,
		"campaignId":      lead.CampaignID,
		"phone":           lead.Phone,
		"productType":     string(lead.ProductType),
		"priority":        lead.Priority,
		"status":          lead.Status,
		"propensityScore": lead.PropensityScore,
	}
	if lead.RequestedAmount != nil {
		vars["requestedAmount"] = *lead.RequestedAmount
	}
	if lead.MonthlyIncome != nil {
		vars["monthlyIncome"] = *lead.MonthlyIncome
	}

	key, err := d.processes.StartProcess(ctx, d.cfg.ProcessID, vars)
	if err != nil {
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			return stdErr
		}
		return apperrors.NewProcessStartFailedError(d.cfg.ProcessID, err)
	}
	d.logger.Info("Lead follow-up process started", map[string]interface{}{
		"leadId":             lead.ID,
		"processInstanceKey": key,
	})
	return nil
}

func toZohoLead(lead *models.Lead) *zoho.Lead {
	lastName := strings.TrimSpace(lead.LastName)
	if lastName == "" {
		lastName = lead.FirstName
	}
	if lastName == "" {
		lastName = models.DefaultUserName
	}
	status, rating := "Not Contacted", "Warm"
	if lead.Status == models.LeadStatusQualified {
		status = "Pre-Qualified"
	}
	if lead.Priority == models.LeadPriorityHigh {
		rating = "Hot"
	}
	return &zoho.Lead{
		FirstName:       lead.FirstName,
		LastName:        lastName,
		Email:           lead.Email,
		Mobile:          lead.Phone,
		Source:          zohoLeadSource,
		Status:          status,
		Rating:          rating,
		ProductType:     string(lead.ProductType),
		MonthlyIncome:   lead.MonthlyIncome,
		EmploymentType:  lead.EmploymentType,
		RequestedAmount: lead.RequestedAmount,
		PropensityScore: lead.PropensityScore,
		ExternalID:      lead.ID,
		Description:     "Sesión " + lead.SessionID,
	}
}

func subjectFor(lead *models.Lead) string {
	name := strings.TrimSpace(lead.FirstName + " " + lead.LastName)
	if name == "" {
		name = models.DefaultUserName
	}
	return fmt.Sprintf("Nuevo lead %s: %s - %s", lead.Priority, lead.ProductType.Display(), name)
}

func advisorEmailBody(lead *models.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Se generó un nuevo lead desde el canal %s.\n\n", lead.Channel)
	fmt.Fprintf(&b, "Cliente: %s %s\n", lead.FirstName, lead.LastName)
	fmt.Fprintf(&b, "Teléfono: %s\n", lead.Phone)
	if lead.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	}
	fmt.Fprintf(&b, "Producto: %s\n", lead.ProductType.Display())
	if lead.MonthlyIncome != nil {
		fmt.Fprintf(&b, "Ingreso mensual: $%s\n", offers.FormatMoney(*lead.MonthlyIncome))
	}
	if lead.EmploymentType != "" {
		fmt.Fprintf(&b, "Situación laboral: %s\n", lead.EmploymentType)
	}
	if lead.RequestedAmount != nil {
		fmt.Fprintf(&b, "Monto solicitado: $%s\n", offers.FormatMoney(*lead.RequestedAmount))
	}
	fmt.Fprintf(&b, "Propensión: %.0f%%\n", lead.PropensityScore*100)
	fmt.Fprintf(&b, "Prioridad: %s\n", lead.Priority)
	fmt.Fprintf(&b, "\nLead: %s\nSesión: %s\n", lead.ID, lead.SessionID)
	return b.String()
}
