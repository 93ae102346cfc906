// internal/models/conversation.go
package models

import "time"

const (
	FieldMonthlyIncome   = "monthly_income"
	FieldEmploymentType  = "employment_type"
	FieldRequestedAmount = "requested_amount"
)

// RequiredFields lists the qualification fields in collection order.
func RequiredFields() []string {
	return []string{FieldMonthlyIncome, FieldEmploymentType, FieldRequestedAmount}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Step      Step      `json:"step,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectedData holds the qualification fields gathered across turns.
// Fields are only ever overwritten by a newer extraction, never cleared.
type CollectedData struct {
	MonthlyIncome   *float64 `json:"monthly_income,omitempty"`
	EmploymentType  string   `json:"employment_type,omitempty"`
	RequestedAmount *float64 `json:"requested_amount,omitempty"`
}

func (d *CollectedData) SetMonthlyIncome(v float64) {
	d.MonthlyIncome = &v
}

func (d *CollectedData) SetRequestedAmount(v float64) {
	d.RequestedAmount = &v
}

func (d CollectedData) Income() float64 {
	if d.MonthlyIncome == nil {
		return 0
	}
	return *d.MonthlyIncome
}

func (d CollectedData) Amount() float64 {
	if d.RequestedAmount == nil {
		return 0
	}
	return *d.RequestedAmount
}

// PresentCount counts how many of the required fields hold a value.
func (d CollectedData) PresentCount() int {
	n := 0
	if d.MonthlyIncome != nil {
		n++
	}
	if d.EmploymentType != "" {
		n++
	}
	if d.RequestedAmount != nil {
		n++
	}
	return n
}

// ToMap renders the collected fields keyed by their wire names.
func (d CollectedData) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, 3)
	if d.MonthlyIncome != nil {
		out[FieldMonthlyIncome] = *d.MonthlyIncome
	}
	if d.EmploymentType != "" {
		out[FieldEmploymentType] = d.EmploymentType
	}
	if d.RequestedAmount != nil {
		out[FieldRequestedAmount] = *d.RequestedAmount
	}
	return out
}

func (d CollectedData) clone() CollectedData {
	out := CollectedData{EmploymentType: d.EmploymentType}
	if d.MonthlyIncome != nil {
		out.SetMonthlyIncome(*d.MonthlyIncome)
	}
	if d.RequestedAmount != nil {
		out.SetRequestedAmount(*d.RequestedAmount)
	}
	return out
}

// Progress summarizes how far a conversation has advanced.
type Progress struct {
	CurrentStep        Step `json:"current_step"`
	ProgressPercentage int  `json:"progress_percentage"`
	DataCompleteness   int  `json:"data_completeness"`
	IsComplete         bool `json:"is_complete"` // conversation reached a terminal step
	CollectedFields    int  `json:"collected_fields"`
	TotalFields        int  `json:"total_fields"`
}

// ConversationState is the unit of work and persistence for one contact session.
type ConversationState struct {
	SessionID       string        `json:"session_id"`
	ContactID       string        `json:"contact_id"`
	CampaignID      string        `json:"campaign_id"`
	Phone           string        `json:"phone"`
	UserName        string        `json:"user_name"`
	ProductType     ProductType   `json:"product_type"`
	CustomerSegment Segment       `json:"customer_segment"`
	CurrentStep     Step          `json:"current_step"`
	CollectedData   CollectedData `json:"collected_data"`
	Messages        []Message     `json:"messages"`
	IntentConfirmed *bool         `json:"intent_confirmed"`
	DetectedIntent  Intent        `json:"detected_intent,omitempty"`
	PropensityScore float64       `json:"propensity_score"`
	LeadGenerated   bool          `json:"lead_generated"`
	LeadID          string        `json:"lead_id,omitempty"`
	Progress        Progress      `json:"progress"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (s *ConversationState) AppendMessage(role Role, content string, step Step, at time.Time) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Step:      step,
		Timestamp: at,
	})
}

// LastMessage returns the most recent message with the given role.
func (s *ConversationState) LastMessage(role Role) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Clone returns a deep copy so cached or shared states are never aliased.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.CollectedData = s.CollectedData.clone()
	out.Messages = append([]Message(nil), s.Messages...)
	if s.IntentConfirmed != nil {
		v := *s.IntentConfirmed
		out.IntentConfirmed = &v
	}
	return &out
}
