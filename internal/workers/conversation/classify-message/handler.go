// Package classifymessage classifies one utterance against the conversation
// state machine without touching any session.
package classifymessage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/metrics"
	"github.com/josephinoo/agent-bg/internal/conversation/extract"
	"github.com/josephinoo/agent-bg/internal/conversation/flow"
	"github.com/josephinoo/agent-bg/internal/conversation/intent"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	TaskType = "classify-message"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
	ErrUnknownStep  = errors.New("UNKNOWN_STEP")
)

type Handler struct {
	config     *Config
	classifier *intent.Classifier
	extractor  *extract.Extractor
	logger     logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Handler{
		config:     config,
		classifier: intent.NewClassifier(nil, config.MatchMode),
		extractor:  extract.NewExtractor(nil, config.MatchMode),
		logger:     log.With(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute classifies input.Message as if it arrived at input.Step. An empty
// step means the start of a conversation.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	step := models.StepGreeting
	if input.Step != "" {
		parsed, ok := models.ParseStep(input.Step)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStep, input.Step)
		}
		step = parsed
	}

	var data models.CollectedData
	if input.CollectedData != nil {
		data = *input.CollectedData
	}

	detected := h.classifier.Classify(input.Message, step)
	extracted := h.extractor.ForStep(step, input.Message, &data)
	next := flow.Next(step, detected, data)
	progress := flow.ComputeProgress(next, data)

	metrics.TurnsProcessed.WithLabelValues(string(next), string(detected)).Inc()

	output := &Output{
		Intent:          string(detected),
		IntentConfirmed: detected.Confirmation(),
		NextStep:        string(next),
		ExtractedFields: extracted,
		CollectedData:   data.ToMap(),
		Progress:        progress.ProgressPercentage,
		Completeness:    progress.DataCompleteness,
	}
	if output.ExtractedFields == nil {
		output.ExtractedFields = []string{}
	}

	h.logger.Info("message classified", map[string]interface{}{
		"step":      step,
		"intent":    detected,
		"nextStep":  next,
		"extracted": extracted,
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

// failJob reports err without retries; classification is deterministic.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	errorCode := "UNKNOWN_ERROR"
	if errors.Is(err, ErrInvalidInput) {
		errorCode = "INVALID_INPUT"
	} else if errors.Is(err, ErrUnknownStep) {
		errorCode = "UNKNOWN_STEP"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}
