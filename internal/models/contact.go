// internal/models/contact.go
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultCountryPrefix = "+593"
	DefaultUserName      = "Cliente"
)

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// Contact is a campaign member eligible to be engaged over chat.
type Contact struct {
	ContactID       string      `json:"contact_id"`
	CampaignID      string      `json:"campaign_id"`
	CampaignName    string      `json:"campaign_name,omitempty"`
	ProductType     ProductType `json:"product_type"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Email           string      `json:"email,omitempty"`
	Phone           string      `json:"phone"`
	CustomerSegment Segment     `json:"customer_segment"`
	CurrentProducts []string    `json:"current_products,omitempty"`
	CreditScore     *int        `json:"credit_score,omitempty"`
	MonthlyIncome   *float64    `json:"monthly_income,omitempty"`
}

// DisplayName is the name used when addressing the contact.
func (c *Contact) DisplayName() string {
	if name := strings.TrimSpace(c.FirstName); name != "" {
		return name
	}
	return DefaultUserName
}

// NormalizePhone converts a free-form number into international format.
func NormalizePhone(phone string) string {
	clean := nonPhoneChars.ReplaceAllString(phone, "")
	if clean == "" || strings.HasPrefix(clean, "+") {
		return clean
	}
	prefix := strings.TrimPrefix(DefaultCountryPrefix, "+")
	switch {
	case strings.HasPrefix(clean, prefix):
		return "+" + clean
	case strings.HasPrefix(clean, "0"), strings.HasPrefix(clean, "9"):
		return DefaultCountryPrefix + strings.TrimLeft(clean, "0")
	default:
		return DefaultCountryPrefix + clean
	}
}

// MaskPhone hides the middle digits of a phone number for logging.
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:4] + strings.Repeat("*", len(phone)-8) + phone[len(phone)-4:]
}

// NewSessionID builds the session identifier for a contact address.
func NewSessionID(phone string, at time.Time) string {
	digits := strings.TrimPrefix(NormalizePhone(phone), "+")
	return fmt.Sprintf("session_%s_%s", digits, at.Format("20060102_150405"))
}
