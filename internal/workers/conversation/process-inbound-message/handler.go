package processinboundmessage

import (
	"context"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/metrics"
	"github.com/josephinoo/agent-bg/internal/conversation/orchestrator"
	"github.com/josephinoo/agent-bg/internal/models"
)

const TaskType = "process-inbound-message"

// Handler exposes one conversation turn as a Zeebe job.
type Handler struct {
	config       *Config
	service      InboundHandler
	sender       Sender
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service InboundHandler, sender Sender, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		sender:       sender,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			return
		}
	}

	code := string(apperrors.ErrCodeInternal)
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInvalidInboundError("job variables are not a JSON object: " + err.Error())
	}
	return ParseVariables(variables)
}

// ParseVariables validates raw job variables and extracts the input.
func ParseVariables(variables map[string]interface{}) (*Input, error) {
	result, err := inputSchema.Validate(variables)
	if err != nil {
		return nil, apperrors.NewInvalidInboundError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidInboundError(result.Error())
	}

	input := &Input{
		Phone:   variables["phone"].(string),
		Message: variables["message"].(string),
	}
	if deliver, ok := variables["deliverReply"].(bool); ok {
		input.DeliverReply = deliver
	}
	return input, nil
}

// Execute runs one turn. Only invalid input is an error; every other outcome
// completes the job and the process branches on conversationStatus.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Message) == "" || models.NormalizePhone(input.Phone) == "" {
		return nil, apperrors.NewInvalidInboundError("phone and message are required")
	}

	resp := h.service.HandleInbound(ctx, input.Phone, input.Message)
	if resp.Status == orchestrator.StatusInvalidRequest {
		return nil, apperrors.NewInvalidInboundError(resp.ResponseText)
	}

	output := &Output{
		Status:          resp.Status,
		Response:        resp.ResponseText,
		Step:            resp.Step,
		SessionID:       resp.SessionID,
		IntentConfirmed: resp.IntentConfirmed,
		CollectedData:   resp.CollectedData,
		LeadGenerated:   resp.LeadGenerated,
	}
	if output.CollectedData == nil {
		output.CollectedData = map[string]interface{}{}
	}

	if input.DeliverReply && h.sender != nil && output.Response != "" {
		output.ReplyDelivered = h.sender.Send(ctx, models.NormalizePhone(input.Phone), output.Response)
	}

	h.logger.Info("turn processed", map[string]interface{}{
		"sessionId":      output.SessionID,
		"status":         output.Status,
		"step":           output.Step,
		"leadGenerated":  output.LeadGenerated,
		"replyDelivered": output.ReplyDelivered,
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.GetKey(),
	})
}
