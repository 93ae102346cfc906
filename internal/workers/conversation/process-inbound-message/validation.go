package processinboundmessage

import "github.com/josephinoo/agent-bg/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["phone", "message"],
	"properties": {
		"phone": {"type": "string", "minLength": 7, "maxLength": 20},
		"message": {"type": "string", "minLength": 1, "maxLength": 4096},
		"deliverReply": {"type": "boolean"}
	}
}`)
