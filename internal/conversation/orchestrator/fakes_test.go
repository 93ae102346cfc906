package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/models"
)

type testLogger struct {
	mu    *sync.Mutex
	warns *[]string
	errs  *[]string
}

func newTestLogger() testLogger {
	return testLogger{mu: &sync.Mutex{}, warns: &[]string{}, errs: &[]string{}}
}

func (l testLogger) Debug(msg string, fields map[string]interface{}) {}
func (l testLogger) Info(msg string, fields map[string]interface{})  {}
func (l testLogger) Warn(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.warns = append(*l.warns, msg)
}
func (l testLogger) Error(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.errs = append(*l.errs, msg)
}
func (l testLogger) WithFields(fields map[string]interface{}) logger.Logger { return l }
func (l testLogger) WithError(err error) logger.Logger                      { return l }
func (l testLogger) With(fields map[string]interface{}) logger.Logger       { return l }

type memStore struct {
	mu        sync.Mutex
	states    map[string]*models.ConversationState
	messages  map[string][]models.Message
	leads     map[string]string
	saveCalls int
	leadCalls int

	failSave    bool
	failLoad    bool
	failMessage bool
	failLead    bool
}

func newMemStore() *memStore {
	return &memStore{
		states:   map[string]*models.ConversationState{},
		messages: map[string][]models.Message{},
		leads:    map[string]string{},
	}
}

func (m *memStore) LoadState(ctx context.Context, sessionKey string) (*models.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoad {
		return nil, errors.New("load failed")
	}
	var latest *models.ConversationState
	for _, s := range m.states {
		if s.Phone == sessionKey && (latest == nil || s.UpdatedAt.After(latest.UpdatedAt)) {
			latest = s
		}
	}
	return latest.Clone(), nil
}

func (m *memStore) SaveState(ctx context.Context, state *models.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.failSave {
		return errors.New("save failed")
	}
	m.states[state.SessionID] = state.Clone()
	return nil
}

func (m *memStore) AppendMessage(ctx context.Context, sessionID string, role models.Role, text string, step models.Step) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMessage {
		return "", errors.New("insert failed")
	}
	m.messages[sessionID] = append(m.messages[sessionID], models.Message{Role: role, Content: text, Step: step})
	return fmt.Sprintf("msg-%d", len(m.messages[sessionID])), nil
}

func (m *memStore) SaveLead(ctx context.Context, state *models.ConversationState) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leadCalls++
	if m.failLead {
		return "", errors.New("lead insert failed")
	}
	if id, ok := m.leads[state.SessionID]; ok {
		return id, nil
	}
	id := fmt.Sprintf("lead-%d", len(m.leads)+1)
	m.leads[state.SessionID] = id
	return id, nil
}

func (m *memStore) stored(sessionID string) *models.ConversationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[sessionID].Clone()
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	reply func(ctx context.Context, system, user string) (string, error)
}

func (g *fakeGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.reply == nil {
		return "Respuesta generada", nil
	}
	return g.reply(ctx, system, user)
}

type recordingSink struct {
	leads []*models.Lead
	err   error
}

func (r *recordingSink) Publish(ctx context.Context, lead *models.Lead) error {
	r.leads = append(r.leads, lead)
	return r.err
}

type fakeDirectory struct {
	contacts map[string]*models.Contact
	upserts  []*models.Contact
	err      error
}

func (d *fakeDirectory) LookupContact(ctx context.Context, phone string) (*models.Contact, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.contacts[phone], nil
}

func (d *fakeDirectory) UpsertContact(ctx context.Context, c *models.Contact) error {
	if d.err != nil {
		return d.err
	}
	c.ContactID = fmt.Sprintf("contact-%d", len(d.upserts)+1)
	d.upserts = append(d.upserts, c)
	return nil
}

type fakeIndexer struct {
	entries []models.TranscriptEntry
	err     error
}

func (f *fakeIndexer) IndexTurn(ctx context.Context, entry models.TranscriptEntry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testContact() *models.Contact {
	score := 750
	return &models.Contact{
		ContactID:       "contact-1",
		CampaignID:      "camp-1",
		ProductType:     models.ProductCreditCard,
		FirstName:       "María",
		LastName:        "Pérez",
		Email:           "maria@example.com",
		Phone:           "+593991234567",
		CustomerSegment: models.SegmentPremium,
		CreditScore:     &score,
	}
}

func stateAt(step models.Step) *models.ConversationState {
	s := &models.ConversationState{
		SessionID:       "session_593991234567_20250314_103000",
		ContactID:       "contact-1",
		CampaignID:      "camp-1",
		Phone:           "+593991234567",
		UserName:        "María",
		ProductType:     models.ProductCreditCard,
		CustomerSegment: models.SegmentStandard,
		CurrentStep:     step,
		CreatedAt:       fixedNow,
		UpdatedAt:       fixedNow,
	}
	return s
}

func qualifiedState(step models.Step) *models.ConversationState {
	s := stateAt(step)
	s.CollectedData.SetMonthlyIncome(3000)
	s.CollectedData.EmploymentType = models.EmploymentEmployee
	s.CollectedData.SetRequestedAmount(5000)
	return s
}
