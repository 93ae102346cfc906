package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v2"

type CRMClient struct {
	apiKey     string
	oauthToken string
	baseURL    string
	httpClient *http.Client
}

// Lead is the Zoho Leads module record. Custom fields carry the
// qualification data gathered in the conversation.
type Lead struct {
	ID              string   `json:"id,omitempty"`
	FirstName       string   `json:"First_Name,omitempty"`
	LastName        string   `json:"Last_Name"`
	Email           string   `json:"Email,omitempty"`
	Mobile          string   `json:"Mobile,omitempty"`
	Source          string   `json:"Lead_Source,omitempty"`
	Status          string   `json:"Lead_Status,omitempty"`
	Rating          string   `json:"Rating,omitempty"`
	ProductType     string   `json:"Product_Type,omitempty"`
	MonthlyIncome   *float64 `json:"Monthly_Income,omitempty"`
	EmploymentType  string   `json:"Employment_Type,omitempty"`
	RequestedAmount *float64 `json:"Requested_Amount,omitempty"`
	PropensityScore float64  `json:"Propensity_Score,omitempty"`
	ExternalID      string   `json:"External_Lead_ID,omitempty"`
	Description     string   `json:"Description,omitempty"`
}

type upsertResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, apiKey, oauthToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CRMClient{
		apiKey:     apiKey,
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *CRMClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

// CreateLead inserts lead and returns the CRM record id.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	payload := map[string]interface{}{
		"data": []Lead{*lead},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Leads", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to create lead (status %d): %s", resp.StatusCode, string(body))
	}

	var createResp upsertResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(createResp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if createResp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead creation failed: %s", createResp.Data[0].Message)
	}

	return createResp.Data[0].Details.ID, nil
}

// SearchLeadsByPhone returns the CRM leads registered with the given mobile number.
func (c *CRMClient) SearchLeadsByPhone(ctx context.Context, phone string) ([]Lead, error) {
	endpoint := fmt.Sprintf("%s/Leads/search?phone=%s", c.baseURL, url.QueryEscape(phone))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Zoho answers an empty search with 204 and no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to search leads (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []Lead `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Data, nil
}
