// internal/store/postgres/repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/models"
)

var (
	ErrQueryFailed  = errors.New("DATABASE_QUERY_FAILED")
	ErrInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrCorruptState = errors.New("CORRUPT_STATE")
)

const (
	conversationStatusActive    = "active"
	conversationStatusCompleted = "completed"
)

// Repository persists conversation state, the message log and leads, and
// resolves campaign contacts. It satisfies orchestrator.Store and
// orchestrator.ContactDirectory.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger.ForComponent(log, "postgres-repository"),
		now:    time.Now,
	}
}

// LookupContact returns the campaign member for phone in the most recent
// active campaign with budget left, or nil when there is none.
func (r *Repository) LookupContact(ctx context.Context, phone string) (*models.Contact, error) {
	normalized := models.NormalizePhone(phone)
	bare := strings.TrimPrefix(normalized, "+")

	var (
		c               models.Contact
		productType     string
		segment         sql.NullString
		email           sql.NullString
		currentProducts []string
		creditScore     sql.NullInt64
		monthlyIncome   sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT cu.user_id, cu.campaign_id, c.name, c.product_type,
		       cu.first_name, cu.last_name, cu.email, cu.phone,
		       cu.customer_segment, cu.current_products,
		       cu.credit_score, cu.monthly_income
		FROM campaign_users cu
		JOIN campaigns c ON c.campaign_id = cu.campaign_id
		WHERE (cu.phone = $1 OR cu.phone = $2)
		  AND c.status = 'active'
		  AND c.start_date <= NOW()
		  AND (c.end_date IS NULL OR c.end_date >= NOW())
		  AND c.budget_spent < c.budget_total
		ORDER BY c.created_at DESC
		LIMIT 1
	`, normalized, bare).Scan(
		&c.ContactID, &c.CampaignID, &c.CampaignName, &productType,
		&c.FirstName, &c.LastName, &email, &c.Phone,
		&segment, pq.Array(&currentProducts),
		&creditScore, &monthlyIncome,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: contact lookup failed: %v", ErrQueryFailed, err)
	}

	if p, ok := models.ParseProduct(productType); ok {
		c.ProductType = p
	} else {
		c.ProductType = models.ProductCreditCard
	}
	c.CustomerSegment = models.ParseSegment(segment.String)
	c.Email = email.String
	c.CurrentProducts = currentProducts
	if creditScore.Valid {
		v := int(creditScore.Int64)
		c.CreditScore = &v
	}
	if monthlyIncome.Valid {
		v := monthlyIncome.Float64
		c.MonthlyIncome = &v
	}
	return &c, nil
}

// UpsertContact registers contact in its campaign and fills in ContactID.
func (r *Repository) UpsertContact(ctx context.Context, contact *models.Contact) error {
	if contact.ContactID == "" {
		contact.ContactID = uuid.New().String()
	}
	if contact.CustomerSegment == "" {
		contact.CustomerSegment = models.SegmentStandard
	}

	var userID string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO campaign_users (
			user_id, campaign_id, first_name, last_name, email, phone,
			customer_segment, current_products, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (campaign_id, phone) DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), campaign_users.first_name),
			last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), campaign_users.last_name),
			customer_segment = EXCLUDED.customer_segment
		RETURNING user_id
	`,
		contact.ContactID,
		contact.CampaignID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		string(contact.CustomerSegment),
		pq.Array(contact.CurrentProducts),
		r.now(),
	).Scan(&userID)
	if err != nil {
		return fmt.Errorf("%w: contact upsert failed: %v", ErrInsertFailed, err)
	}
	contact.ContactID = userID
	return nil
}

// LoadState returns the most recent conversation for the phone number, or nil.
func (r *Repository) LoadState(ctx context.Context, phone string) (*models.ConversationState, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT state
		FROM conversation_logs
		WHERE phone_number = $1
		ORDER BY last_activity_at DESC
		LIMIT 1
	`, phone).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: state load failed: %v", ErrQueryFailed, err)
	}

	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &state, nil
}

// SaveState upserts the conversation row keyed by session id.
func (r *Repository) SaveState(ctx context.Context, state *models.ConversationState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal state: %v", ErrInsertFailed, err)
	}
	collectedJSON, err := json.Marshal(state.CollectedData.ToMap())
	if err != nil {
		return fmt.Errorf("%w: failed to marshal collected data: %v", ErrInsertFailed, err)
	}

	status := conversationStatusActive
	if state.CurrentStep.IsTerminal() {
		status = conversationStatusCompleted
	}
	lastActivity := state.UpdatedAt
	if lastActivity.IsZero() {
		lastActivity = r.now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversation_logs (
			session_id, user_id, campaign_id, status, current_step,
			product_type, phone_number, intent_confirmed, collected_data,
			total_messages, state, started_at, last_activity_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO UPDATE SET
			status = EXCLUDED.status,
			current_step = EXCLUDED.current_step,
			intent_confirmed = EXCLUDED.intent_confirmed,
			collected_data = EXCLUDED.collected_data,
			total_messages = EXCLUDED.total_messages,
			state = EXCLUDED.state,
			last_activity_at = EXCLUDED.last_activity_at
	`,
		state.SessionID,
		nullString(state.ContactID),
		nullString(state.CampaignID),
		status,
		string(state.CurrentStep),
		string(state.ProductType),
		state.Phone,
		nullBool(state.IntentConfirmed),
		collectedJSON,
		len(state.Messages),
		stateJSON,
		state.CreatedAt,
		lastActivity,
	)
	if err != nil {
		return fmt.Errorf("%w: state upsert failed: %v", ErrInsertFailed, err)
	}
	return nil
}

// AppendMessage adds one entry to the message log and returns its id.
func (r *Repository) AppendMessage(ctx context.Context, sessionID string, role models.Role, text string, step models.Step) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (
			message_id, session_id, sender, message_text, agent_step, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, id, sessionID, string(role), text, string(step), r.now())
	if err != nil {
		return "", fmt.Errorf("%w: message insert failed: %v", ErrInsertFailed, err)
	}
	return id, nil
}

// SaveLead stores the lead for a closed session. A session produces at most
// one lead; a repeated call returns the existing id.
func (r *Repository) SaveLead(ctx context.Context, state *models.ConversationState) (string, error) {
	var existing string
	err := r.db.QueryRowContext(ctx, `
		SELECT lead_id FROM leads WHERE session_id = $1
	`, state.SessionID).Scan(&existing)
	switch {
	case err == nil:
		r.logger.Info("Lead already exists for session", map[string]interface{}{
			"sessionId": state.SessionID,
			"leadId":    existing,
		})
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("%w: duplicate check failed: %v", ErrQueryFailed, err)
	}

	lead := models.NewLead(uuid.New().String(), state, r.now())
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO leads (
			lead_id, user_id, campaign_id, session_id, first_name, last_name,
			email, phone, product_type, monthly_income, employment_type,
			requested_amount, channel, propensity_score, status, priority,
			marketing_consent, data_processing_consent, whatsapp_consent, created_at
		)
		SELECT $1, $2, $3, $4, $5,
		       COALESCE(cu.last_name, ''), COALESCE(cu.email, ''),
		       $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		FROM (SELECT 1) AS one
		LEFT JOIN campaign_users cu ON cu.user_id = $2
	`,
		lead.ID,
		nullString(lead.ContactID),
		nullString(lead.CampaignID),
		lead.SessionID,
		lead.FirstName,
		lead.Phone,
		string(lead.ProductType),
		nullFloat(lead.MonthlyIncome),
		lead.EmploymentType,
		nullFloat(lead.RequestedAmount),
		lead.Channel,
		lead.PropensityScore,
		lead.Status,
		lead.Priority,
		lead.MarketingConsent,
		lead.DataProcessingConsent,
		lead.WhatsAppConsent,
		lead.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%w: lead insert failed: %v", ErrInsertFailed, err)
	}
	return lead.ID, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
