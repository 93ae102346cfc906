package sessionmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	TaskType = "session-metrics"
)

var (
	ErrInvalidPhone       = errors.New("INVALID_PHONE")
	ErrStateLookupFailed  = errors.New("STATE_LOOKUP_FAILED")
	ErrStateLookupTimeout = errors.New("STATE_LOOKUP_TIMEOUT")
)

type Handler struct {
	config *Config
	reader MetricsReader
	logger logger.Logger
}

func NewHandler(config *Config, reader MetricsReader, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		reader: reader,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.throwError(client, job, "INVALID_PHONE", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	switch {
	case err == nil:
		h.completeJob(client, job, output)
	case errors.Is(err, ErrInvalidPhone):
		h.throwError(client, job, "INVALID_PHONE", err.Error())
	default:
		h.failJob(client, job, err, job.Retries-1)
	}
}

// Execute reports the progress of the conversation stored for input.Phone.
// A phone without a conversation completes with Found false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	phone := models.NormalizePhone(input.Phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhone, input.Phone)
	}

	snap, err := h.reader.SessionMetrics(ctx, phone)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrStateLookupTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrStateLookupFailed, err)
	}
	if snap == nil {
		return &Output{}, nil
	}

	return &Output{
		Found:               true,
		SessionID:           snap.SessionID,
		CurrentStep:         string(snap.CurrentStep),
		ProgressPercentage:  snap.ProgressPercentage,
		DataCompleteness:    snap.DataCompleteness,
		MessageCount:        snap.MessageCount,
		IntentConfirmed:     snap.IntentConfirmed,
		DetectedIntent:      string(snap.DetectedIntent),
		LeadGenerated:       snap.LeadGenerated,
		ConversationStarted: snap.ConversationStarted,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	if retries < 0 {
		retries = 0
	}
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":  job.Key,
		"error":   err.Error(),
		"retries": retries,
	})

	if _, sendErr := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(err.Error()).
		Send(context.Background()); sendErr != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{
			"error": sendErr.Error(),
		})
	}
}

func (h *Handler) throwError(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job rejected", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	if _, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background()); err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
