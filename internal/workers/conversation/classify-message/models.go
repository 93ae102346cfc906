package classifymessage

import "github.com/josephinoo/agent-bg/internal/models"

type Input struct {
	Message       string                `json:"message"`
	Step          string                `json:"step"`
	CollectedData *models.CollectedData `json:"collectedData"`
}

type Output struct {
	Intent          string                 `json:"intent"`
	IntentConfirmed *bool                  `json:"intentConfirmed"`
	NextStep        string                 `json:"nextStep"`
	ExtractedFields []string               `json:"extractedFields"`
	CollectedData   map[string]interface{} `json:"collectedData"`
	Progress        int                    `json:"progressPercentage"`
	Completeness    int                    `json:"dataCompleteness"`
}
