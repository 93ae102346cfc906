package sendchatmessage

import "github.com/josephinoo/agent-bg/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["phone"],
	"properties": {
		"phone": {"type": "string", "minLength": 7, "maxLength": 20},
		"message": {"type": "string", "maxLength": 4096},
		"mediaUrl": {"type": "string", "pattern": "^https?://"},
		"flow": {"type": "string", "enum": ["REGISTER_FLOW", "AGENT_FLOW"]},
		"flowData": {"type": "object"}
	},
	"anyOf": [
		{"required": ["message"], "properties": {"message": {"minLength": 1}}},
		{"required": ["flow"]}
	]
}`)
