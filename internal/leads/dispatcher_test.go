package leads

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/zoho"
	"github.com/josephinoo/agent-bg/internal/models"
)

type fakeCRM struct {
	mu        sync.Mutex
	existing  []zoho.Lead
	searchErr error
	createErr error
	created   []*zoho.Lead
}

func (f *fakeCRM) CreateLead(ctx context.Context, lead *zoho.Lead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, lead)
	return "zoho-1", nil
}

func (f *fakeCRM) SearchLeadsByPhone(ctx context.Context, phone string) ([]zoho.Lead, error) {
	return f.existing, f.searchErr
}

type fakePublisher struct {
	mu     sync.Mutex
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

type fakeMailer struct {
	mu     sync.Mutex
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeMailer) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("mail-1")}, nil
}

type fakeStarter struct {
	mu        sync.Mutex
	processID string
	vars      map[string]interface{}
	err       error
}

func (f *fakeStarter) StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processID = processID
	f.vars = variables
	if f.err != nil {
		return 0, f.err
	}
	return 2251799813685249, nil
}

func validLead() *models.Lead {
	confirmed := true
	state := &models.ConversationState{
		SessionID:       "session_593991234567_20250314_103000",
		ContactID:       "user-001",
		CampaignID:      "camp-001",
		Phone:           "+593991234567",
		UserName:        "Ana",
		ProductType:     models.ProductPersonalCredit,
		IntentConfirmed: &confirmed,
		PropensityScore: 0.82,
	}
	state.CollectedData.SetMonthlyIncome(3000)
	state.CollectedData.EmploymentType = models.EmploymentEmployee
	state.CollectedData.SetRequestedAmount(12500.5)

	lead := models.NewLead("lead-001", state, time.Date(2025, 3, 14, 10, 40, 0, 0, time.UTC))
	lead.LastName = "Pérez"
	lead.Email = "ana@example.com"
	return lead
}

func testConfig() Config {
	return Config{
		SNSTopicARN:  "arn:aws:sns:us-east-1:123456789012:leads",
		FromEmail:    "noreply@banco.example",
		AdvisorEmail: "asesores@banco.example",
		ProcessID:    "lead-follow-up",
		SinkTimeout:  time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(l *models.Lead)
		wantErr bool
	}{
		{name: "valid lead", mutate: func(l *models.Lead) {}},
		{name: "missing optional amounts", mutate: func(l *models.Lead) { l.RequestedAmount = nil; l.EmploymentType = "" }},
		{name: "local phone format", mutate: func(l *models.Lead) { l.Phone = "0991234567" }, wantErr: true},
		{name: "unknown product", mutate: func(l *models.Lead) { l.ProductType = "mortgage" }, wantErr: true},
		{name: "score out of range", mutate: func(l *models.Lead) { l.PropensityScore = 1.4 }, wantErr: true},
		{name: "no processing consent", mutate: func(l *models.Lead) { l.DataProcessingConsent = false }, wantErr: true},
		{name: "unknown employment", mutate: func(l *models.Lead) { l.EmploymentType = "astronaut" }, wantErr: true},
		{name: "negative income", mutate: func(l *models.Lead) { v := -1.0; l.MonthlyIncome = &v }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := validLead()
			tt.mutate(lead)

			err := Validate(lead)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeLeadValidationFailed, stdErr.Code)
		})
	}
}

func TestPublish_FansOutToEverySink(t *testing.T) {
	crm := &fakeCRM{}
	pub := &fakePublisher{}
	mail := &fakeMailer{}
	starter := &fakeStarter{}
	d := NewDispatcher(testConfig(), logger.NewTestLogger(t),
		WithCRM(crm), WithPublisher(pub), WithMailer(mail), WithProcessStarter(starter))

	err := d.Publish(context.Background(), validLead())

	require.NoError(t, err)

	require.Len(t, crm.created, 1)
	assert.Equal(t, "Pérez", crm.created[0].LastName)
	assert.Equal(t, "+593991234567", crm.created[0].Mobile)
	assert.Equal(t, "Pre-Qualified", crm.created[0].Status)
	assert.Equal(t, "Hot", crm.created[0].Rating)
	assert.Equal(t, "lead-001", crm.created[0].ExternalID)

	require.Len(t, pub.inputs, 1)
	assert.Equal(t, "lead.created", awssdk.ToString(pub.inputs[0].MessageAttributes["event_type"].StringValue))
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(pub.inputs[0].Message)), &event))
	assert.Equal(t, "lead-001", event["lead_id"])

	require.Len(t, mail.inputs, 1)
	assert.Equal(t, []string{"asesores@banco.example"}, mail.inputs[0].Destination.ToAddresses)
	body := awssdk.ToString(mail.inputs[0].Message.Body.Text.Data)
	assert.Contains(t, body, "Monto solicitado: $12,500.5")
	assert.Contains(t, body, "Ingreso mensual: $3,000")
	assert.Contains(t, body, "Propensión: 82%")
	assert.Contains(t, awssdk.ToString(mail.inputs[0].Message.Subject.Data), "Créditos Personales - Ana Pérez")

	assert.Equal(t, "lead-follow-up", starter.processID)
	assert.Equal(t, "lead-001", starter.vars["leadId"])
	assert.Equal(t, 12500.5, starter.vars["requestedAmount"])
}

func TestPublish_InvalidLeadReachesNoSink(t *testing.T) {
	crm := &fakeCRM{}
	pub := &fakePublisher{}
	d := NewDispatcher(testConfig(), logger.NewTestLogger(t), WithCRM(crm), WithPublisher(pub))
	lead := validLead()
	lead.Phone = ""

	err := d.Publish(context.Background(), lead)

	require.Error(t, err)
	assert.Empty(t, crm.created)
	assert.Empty(t, pub.inputs)
}

func TestPublish_FailingSinkDoesNotStopOthers(t *testing.T) {
	crm := &fakeCRM{createErr: errors.New("zoho 500")}
	pub := &fakePublisher{err: errors.New("throttled")}
	mail := &fakeMailer{}
	starter := &fakeStarter{}
	d := NewDispatcher(testConfig(), logger.NewTestLogger(t),
		WithCRM(crm), WithPublisher(pub), WithMailer(mail), WithProcessStarter(starter))

	err := d.Publish(context.Background(), validLead())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRM_PUSH_FAILED")
	assert.Contains(t, err.Error(), "NOTIFICATION_SEND_FAILED")
	assert.Len(t, mail.inputs, 1)
	assert.Equal(t, "lead-follow-up", starter.processID)
}

func TestPublish_ExistingCRMLeadIsNotDuplicated(t *testing.T) {
	crm := &fakeCRM{existing: []zoho.Lead{{ID: "zoho-existing"}}}
	d := NewDispatcher(Config{}, logger.NewTestLogger(t), WithCRM(crm))

	err := d.Publish(context.Background(), validLead())

	require.NoError(t, err)
	assert.Empty(t, crm.created)
}

func TestPublish_CRMSearchFailureStillCreates(t *testing.T) {
	crm := &fakeCRM{searchErr: errors.New("search unavailable")}
	d := NewDispatcher(Config{}, logger.NewTestLogger(t), WithCRM(crm))

	err := d.Publish(context.Background(), validLead())

	require.NoError(t, err)
	assert.Len(t, crm.created, 1)
}

func TestPublish_UnconfiguredSinksAreSkipped(t *testing.T) {
	pub := &fakePublisher{}
	mail := &fakeMailer{}
	starter := &fakeStarter{}
	d := NewDispatcher(Config{}, logger.NewTestLogger(t),
		WithPublisher(pub), WithMailer(mail), WithProcessStarter(starter))

	err := d.Publish(context.Background(), validLead())

	require.NoError(t, err)
	assert.Empty(t, pub.inputs)
	assert.Empty(t, mail.inputs)
	assert.Empty(t, starter.processID)
}

func TestPublish_ProcessStartError(t *testing.T) {
	starter := &fakeStarter{err: errors.New("no process with id lead-follow-up")}
	d := NewDispatcher(testConfig(), logger.NewTestLogger(t), WithProcessStarter(starter))

	err := d.Publish(context.Background(), validLead())

	require.Error(t, err)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeProcessStartFailed, stdErr.Code)
}

func TestPublish_Async(t *testing.T) {
	pub := &fakePublisher{}
	cfg := testConfig()
	cfg.Async = true
	d := NewDispatcher(cfg, logger.NewTestLogger(t), WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	err := d.Publish(ctx, validLead())
	cancel()
	d.Wait()

	require.NoError(t, err)
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.inputs, 1)
}

func TestToZohoLead_Defaults(t *testing.T) {
	lead := validLead()
	lead.LastName = ""
	lead.Status = models.LeadStatusNew
	lead.Priority = models.LeadPriorityMedium

	z := toZohoLead(lead)

	assert.Equal(t, "Ana", z.LastName)
	assert.Equal(t, "Not Contacted", z.Status)
	assert.Equal(t, "Warm", z.Rating)
	assert.Equal(t, "WhatsApp", z.Source)
}
