// internal/workers/scoring/calculate-yecs-score/handler.go
package calculateyecsscore

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"yecs-workers/internal/common/camunda"
	"yecs-workers/internal/common/database"
	"yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/metrics"
	"yecs-workers/internal/scoring"
)

const (
	TaskType = "calculate-yecs-score"
)

type Handler struct {
	config       *Config
	engine       *scoring.Engine
	scores       *database.ScoreRepository
	cache        *database.ScoreCache
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the scoring engine to storage. A nil cache disables
// caching of the latest score.
func NewHandler(config *Config, engine *scoring.Engine, scores *database.ScoreRepository, cache *database.ScoreCache, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		scores:       scores,
		cache:        cache,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result := h.engine.Score(input.Profile)

	output := &Output{
		UserID:             input.UserID,
		YECSScore:          result.CompositeScore,
		RiskLevel:          string(result.RiskLevel),
		WeightedPercentage: result.WeightedPercentage,
		ComponentScores:    result.Components,
		CalculatedAt:       time.Now().UTC(),
	}
	metrics.RecordScore(output.RiskLevel, output.YECSScore)

	if !input.shouldPersist() || h.scores == nil {
		return output, nil
	}

	stored := &database.StoredScore{
		UserID:             input.UserID,
		Score:              result.CompositeScore,
		RiskLevel:          string(result.RiskLevel),
		WeightedPercentage: result.WeightedPercentage,
		Components:         result.Components.Map(),
	}
	if err := h.scores.SaveScore(ctx, stored); err != nil {
		return nil, errors.NewScorePersistFailedError(input.UserID, err)
	}
	output.ScoreID = stored.ID
	output.Persisted = true
	output.CalculatedAt = stored.CreatedAt

	if h.cache != nil {
		if err := h.cache.SetLatest(ctx, stored); err != nil {
			h.logger.Warn("failed to cache latest score", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
		} else {
			output.Cached = true
		}
	}

	h.logger.Info("score calculated", map[string]interface{}{
		"userId":    input.UserID,
		"yecsScore": output.YECSScore,
		"riskLevel": output.RiskLevel,
		"scoreId":   output.ScoreID,
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
