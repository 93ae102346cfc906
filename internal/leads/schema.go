package leads

import (
	"encoding/json"

	"github.com/josephinoo/agent-bg/internal/common/validation"
	"github.com/josephinoo/agent-bg/internal/models"
)

// leadSchema is the contract every lead must satisfy before it leaves the service.
var leadSchema = validation.MustCompile(buildLeadSchema())

func buildLeadSchema() string {
	products := make([]string, 0, len(models.AllProducts()))
	for _, p := range models.AllProducts() {
		products = append(products, string(p))
	}
	employment := append([]interface{}{nil}, toInterfaces(models.EmploymentTypes())...)
	nullableAmount := map[string]interface{}{"type": []string{"number", "null"}, "minimum": 0}

	schema := map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"required": []string{
			"lead_id", "session_id", "phone", "product_type",
			"channel", "status", "priority", "propensity_score",
			"data_processing_consent",
		},
		"properties": map[string]interface{}{
			"lead_id":          map[string]interface{}{"type": "string", "minLength": 1},
			"session_id":       map[string]interface{}{"type": "string", "minLength": 1},
			"phone":            map[string]interface{}{"type": "string", "pattern": `^\+[0-9]{8,15}$`},
			"product_type":     map[string]interface{}{"type": "string", "enum": products},
			"monthly_income":   nullableAmount,
			"requested_amount": nullableAmount,
			"employment_type": map[string]interface{}{
				"enum": append(employment, ""),
			},
			"channel":                 map[string]interface{}{"type": "string", "enum": []string{models.LeadChannelWhatsApp}},
			"status":                  map[string]interface{}{"type": "string", "enum": []string{models.LeadStatusNew, models.LeadStatusQualified}},
			"priority":                map[string]interface{}{"type": "string", "enum": []string{models.LeadPriorityHigh, models.LeadPriorityMedium}},
			"propensity_score":        map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			"data_processing_consent": map[string]interface{}{"const": true},
		},
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

func toInterfaces(items []string) []interface{} {
	out := make([]interface{}, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
