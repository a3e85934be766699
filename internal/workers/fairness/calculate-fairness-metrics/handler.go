// internal/workers/fairness/calculate-fairness-metrics/handler.go
package calculatefairnessmetrics

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"yecs-workers/internal/common/camunda"
	"yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/metrics"
	"yecs-workers/internal/fairness"
)

const (
	TaskType = "calculate-fairness-metrics"
)

type Handler struct {
	config       *Config
	auditor      *fairness.Auditor
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, auditor *fairness.Auditor, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		auditor:      auditor,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", camunda.JobFields(job))

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(TaskType, job.Variables, h.config.InputSchema, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	result, err := h.auditor.CalculateFairnessMetrics(input.Predictions, input.Outcomes, input.Demographics)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Metrics:        result,
		AttributeCount: len(result.Attributes),
	}
	for _, a := range result.Attributes {
		if a.EqualizedOdds != nil {
			output.HasEqualizedOdds = true
			break
		}
	}

	h.logger.Info("fairness metrics calculated", map[string]interface{}{
		"predictions":    len(input.Predictions),
		"attributeCount": output.AttributeCount,
	})
	return output, nil
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
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
