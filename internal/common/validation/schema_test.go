package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["phone", "amount"],
	"properties": {
		"phone": {"type": "string", "pattern": "^\\+[0-9]{8,15}$"},
		"amount": {"type": "number", "minimum": 100},
		"channel": {"type": "string", "enum": ["whatsapp"]}
	}
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile(testSchema)

	tests := []struct {
		name           string
		doc            map[string]interface{}
		expectedValid  bool
		expectedFields []string
	}{
		{
			name:          "valid document",
			doc:           map[string]interface{}{"phone": "+593991234567", "amount": 5000, "channel": "whatsapp"},
			expectedValid: true,
		},
		{
			name: "missing required field",
			doc:  map[string]interface{}{"phone": "+593991234567"},
		},
		{
			name:           "pattern and minimum violations",
			doc:            map[string]interface{}{"phone": "0991234567", "amount": 50},
			expectedFields: []string{"amount", "phone"},
		},
		{
			name:           "enum violation",
			doc:            map[string]interface{}{"phone": "+593991234567", "amount": 500, "channel": "email"},
			expectedFields: []string{"channel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.doc)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedValid, result.Valid)
			fields := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
				assert.NotEmpty(t, e.Code)
			}
			if tt.expectedValid {
				assert.Empty(t, fields)
				assert.Empty(t, result.Error())
				return
			}
			assert.NotEmpty(t, result.Error())
			if tt.expectedFields != nil {
				assert.Equal(t, tt.expectedFields, fields)
			} else {
				assert.Len(t, fields, 1)
			}
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(`not json`) })
}

func TestValidateInput(t *testing.T) {
	result, err := ValidateInput(map[string]interface{}{"phone": "+593991234567", "amount": 150.5}, testSchema)

	require.NoError(t, err)
	assert.True(t, result.Valid)
}
