// Package errors provides the error codes of the conversation service and their
// mapping onto BPMN errors for the Zeebe job workers.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInbound      ErrorCode = "INVALID_INBOUND"
	ErrCodeContactNotEligible  ErrorCode = "CONTACT_NOT_ELIGIBLE"
	ErrCodeContactLookupFailed ErrorCode = "CONTACT_LOOKUP_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeStateLoadFailed          ErrorCode = "STATE_LOAD_FAILED"
	ErrCodeStateSaveFailed          ErrorCode = "STATE_SAVE_FAILED"
	ErrCodeMessageLogFailed         ErrorCode = "MESSAGE_LOG_FAILED"
	ErrCodeLeadSaveFailed           ErrorCode = "LEAD_SAVE_FAILED"
	ErrCodeDuplicateLead            ErrorCode = "DUPLICATE_LEAD"

	ErrCodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeGenerationFailed  ErrorCode = "GENERATION_FAILED"

	ErrCodeTransitionUnresolved ErrorCode = "TRANSITION_UNRESOLVED"
	ErrCodeSessionLockTimeout   ErrorCode = "SESSION_LOCK_TIMEOUT"

	ErrCodeLeadValidationFailed   ErrorCode = "LEAD_VALIDATION_FAILED"
	ErrCodeCRMPushFailed          ErrorCode = "CRM_PUSH_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeProcessStartFailed     ErrorCode = "PROCESS_START_FAILED"
	ErrCodeIndexWriteFailed       ErrorCode = "INDEX_WRITE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInboundError(details string) *StandardError {
	return newError(ErrCodeInvalidInbound, "Inbound message is missing required fields", details)
}

func NewContactLookupFailedError(err error) *StandardError {
	return newError(ErrCodeContactLookupFailed, "Contact lookup failed", err.Error())
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error())
}

func NewStateLoadFailedError(sessionKey string, err error) *StandardError {
	return newError(ErrCodeStateLoadFailed, "Conversation state could not be loaded",
		fmt.Sprintf("sessionKey: %s, error: %s", sessionKey, err.Error()))
}

func NewStateSaveFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeStateSaveFailed, "Conversation state could not be saved",
		fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()))
}

func NewMessageLogFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeMessageLogFailed, "Conversation message could not be logged",
		fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()))
}

func NewLeadSaveFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeLeadSaveFailed, "Lead could not be saved",
		fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()))
}

func NewGenerationTimeoutError(err error) *StandardError {
	return newError(ErrCodeGenerationTimeout, "Text generation timed out", err.Error())
}

func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Text generation failed", err.Error())
}

func NewTransitionUnresolvedError(step, intent string) *StandardError {
	return newError(ErrCodeTransitionUnresolved, "No transition for step and intent",
		fmt.Sprintf("step: %s, intent: %s", step, intent))
}

func NewSessionLockTimeoutError(sessionKey string, err error) *StandardError {
	return newError(ErrCodeSessionLockTimeout, "Session lock not acquired",
		fmt.Sprintf("sessionKey: %s, error: %s", sessionKey, err.Error()))
}

func NewLeadValidationFailedError(details string) *StandardError {
	return newError(ErrCodeLeadValidationFailed, "Lead payload failed schema validation", details)
}

func NewCRMPushFailedError(err error) *StandardError {
	return newError(ErrCodeCRMPushFailed, "Lead could not be pushed to the CRM", err.Error())
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification send failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()))
}

func NewProcessStartFailedError(processID string, err error) *StandardError {
	return newError(ErrCodeProcessStartFailed, "Workflow instance could not be started",
		fmt.Sprintf("processId: %s, error: %s", processID, err.Error()))
}

// BPMNErrorMapping maps internal error codes to the codes modelled in the BPMN diagrams.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInbound:           "INVALID_INBOUND",
	ErrCodeContactNotEligible:       "CONTACT_NOT_ELIGIBLE",
	ErrCodeContactLookupFailed:      "CONTACT_LOOKUP_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeStateLoadFailed:          "STATE_LOAD_FAILED",
	ErrCodeStateSaveFailed:          "STATE_SAVE_FAILED",
	ErrCodeMessageLogFailed:         "MESSAGE_LOG_FAILED",
	ErrCodeLeadSaveFailed:           "LEAD_SAVE_FAILED",
	ErrCodeDuplicateLead:            "DUPLICATE_LEAD",
	ErrCodeGenerationTimeout:        "GENERATION_TIMEOUT",
	ErrCodeGenerationFailed:         "GENERATION_FAILED",
	ErrCodeTransitionUnresolved:     "TRANSITION_UNRESOLVED",
	ErrCodeSessionLockTimeout:       "SESSION_LOCK_TIMEOUT",
	ErrCodeLeadValidationFailed:     "LEAD_VALIDATION_FAILED",
	ErrCodeCRMPushFailed:            "CRM_PUSH_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeProcessStartFailed:       "PROCESS_START_FAILED",
	ErrCodeIndexWriteFailed:         "INDEX_WRITE_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeContactLookupFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeStateLoadFailed,
		ErrCodeStateSaveFailed,
		ErrCodeMessageLogFailed,
		ErrCodeLeadSaveFailed,
		ErrCodeGenerationFailed,
		ErrCodeCRMPushFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeProcessStartFailed:
		return 3

	case ErrCodeSessionLockTimeout,
		ErrCodeIndexWriteFailed:
		return 2

	case ErrCodeGenerationTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// AsStandardError unwraps err into a StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CONTACT"):
		return "ELIGIBILITY"
	case strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "TRANSITION"):
		return "FLOW"
	case strings.Contains(codeStr, "LOCK"):
		return "CONCURRENCY"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CRM") || strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "PROCESS"):
		return "INTEGRATION"
	case strings.Contains(codeStr, "STATE") || strings.Contains(codeStr, "LEAD") ||
		strings.Contains(codeStr, "MESSAGE") || strings.Contains(codeStr, "DATABASE"):
		return "PERSISTENCE"
	default:
		return "OTHER"
	}
}
