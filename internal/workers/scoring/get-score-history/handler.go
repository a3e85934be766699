// internal/workers/scoring/get-score-history/handler.go
package getscorehistory

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"yecs-workers/internal/common/camunda"
	"yecs-workers/internal/common/database"
	"yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/metrics"
)

const (
	TaskType = "get-score-history"
)

type Handler struct {
	config       *Config
	scores       *database.ScoreRepository
	cache        *database.ScoreCache
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, scores *database.ScoreRepository, cache *database.ScoreCache, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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
	if input.LatestOnly {
		if cached, ok := h.latestFromCache(ctx, input.UserID); ok {
			return &Output{
				UserID: input.UserID,
				Scores: []database.StoredScore{*cached},
				Count:  1,
				Source: SourceCache,
			}, nil
		}
	}

	limit := database.ClampHistoryLimit(input.Limit)
	if input.LatestOnly {
		limit = 1
	}

	history, err := h.scores.ScoreHistory(ctx, input.UserID, limit)
	if err != nil {
		return nil, errors.NewScoreQueryFailedError("history", err)
	}
	if history == nil {
		history = []database.StoredScore{}
	}

	if input.LatestOnly && len(history) > 0 && h.cache != nil {
		if err := h.cache.SetLatest(ctx, &history[0]); err != nil {
			h.logger.Warn("failed to backfill latest score cache", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
		}
	}

	return &Output{
		UserID: input.UserID,
		Scores: history,
		Count:  len(history),
		Source: SourceDatabase,
	}, nil
}

// latestFromCache treats cache errors as misses.
func (h *Handler) latestFromCache(ctx context.Context, userID string) (*database.StoredScore, bool) {
	if h.cache == nil {
		return nil, false
	}
	cached, ok, err := h.cache.GetLatest(ctx, userID)
	if err != nil {
		h.logger.Warn("score cache unavailable, reading from database", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, false
	}
	return cached, ok
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
