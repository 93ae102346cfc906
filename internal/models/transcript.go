// internal/models/transcript.go
package models

import "time"

// TranscriptEntry is one processed turn as written to the search index.
type TranscriptEntry struct {
	SessionID    string      `json:"session_id"`
	CampaignID   string      `json:"campaign_id"`
	Phone        string      `json:"phone"`
	ProductType  ProductType `json:"product_type"`
	PreviousStep Step        `json:"previous_step"`
	Step         Step        `json:"step"`
	Intent       Intent      `json:"intent"`
	UserText     string      `json:"user_text"`
	ResponseText string      `json:"response_text"`
	Fallback     bool        `json:"fallback"`
	Completeness int         `json:"data_completeness"`
	Timestamp    time.Time   `json:"timestamp"`
}
