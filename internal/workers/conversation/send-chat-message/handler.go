package sendchatmessage

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/josephinoo/agent-bg/internal/common/errors"
	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/common/metrics"
)

const TaskType = "send-chat-message"

// Handler lets a process push a message or a gateway flow to a contact.
type Handler struct {
	config       *Config
	service      *Service
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, gateway Gateway, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      NewService(config, gateway, l),
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

	variables, err := job.GetVariablesAsMap()
	if err != nil {
		err = apperrors.NewInvalidInboundError("job variables are not a JSON object: " + err.Error())
	}

	var output *Output
	if err == nil {
		var input *Input
		if input, err = ParseVariables(variables); err == nil {
			output, err = h.service.Execute(ctx, input)
		}
	}
	if err != nil {
		code := string(apperrors.ErrCodeInternal)
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

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
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
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

	input := &Input{Phone: variables["phone"].(string)}
	input.Message, _ = variables["message"].(string)
	input.MediaURL, _ = variables["mediaUrl"].(string)
	input.Flow, _ = variables["flow"].(string)
	input.FlowData, _ = variables["flowData"].(map[string]interface{})
	return input, nil
}
