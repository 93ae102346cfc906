// internal/models/lead.go
package models

import "time"

const (
	LeadStatusNew       = "new"
	LeadStatusQualified = "qualified"

	LeadPriorityHigh   = "high"
	LeadPriorityMedium = "medium"

	LeadChannelWhatsApp = "whatsapp"
)

// Lead is the persisted record of a qualified, consenting prospect.
type Lead struct {
	ID                    string      `json:"lead_id"`
	SessionID             string      `json:"session_id"`
	ContactID             string      `json:"contact_id"`
	CampaignID            string      `json:"campaign_id"`
	FirstName             string      `json:"first_name"`
	LastName              string      `json:"last_name"`
	Email                 string      `json:"email"`
	Phone                 string      `json:"phone"`
	ProductType           ProductType `json:"product_type"`
	MonthlyIncome         *float64    `json:"monthly_income"`
	EmploymentType        string      `json:"employment_type"`
	RequestedAmount       *float64    `json:"requested_amount"`
	Channel               string      `json:"channel"`
	PropensityScore       float64     `json:"propensity_score"`
	Status                string      `json:"status"`
	Priority              string      `json:"priority"`
	MarketingConsent      bool        `json:"marketing_consent"`
	DataProcessingConsent bool        `json:"data_processing_consent"`
	WhatsAppConsent       bool        `json:"whatsapp_consent"`
	CreatedAt             time.Time   `json:"created_at"`
}

// NewLead derives the lead record from a closed conversation.
func NewLead(id string, s *ConversationState, at time.Time) *Lead {
	status := LeadStatusNew
	if s.IntentConfirmed != nil && *s.IntentConfirmed {
		status = LeadStatusQualified
	}
	priority := LeadPriorityMedium
	if s.PropensityScore > 0.7 {
		priority = LeadPriorityHigh
	}
	data := s.CollectedData.clone()
	return &Lead{
		ID:                    id,
		SessionID:             s.SessionID,
		ContactID:             s.ContactID,
		CampaignID:            s.CampaignID,
		FirstName:             s.UserName,
		Phone:                 s.Phone,
		ProductType:           s.ProductType,
		MonthlyIncome:         data.MonthlyIncome,
		EmploymentType:        data.EmploymentType,
		RequestedAmount:       data.RequestedAmount,
		Channel:               LeadChannelWhatsApp,
		PropensityScore:       s.PropensityScore,
		Status:                status,
		Priority:              priority,
		MarketingConsent:      true,
		DataProcessingConsent: true,
		WhatsAppConsent:       true,
		CreatedAt:             at,
	}
}
