// internal/workers/fairness/detect-score-bias/handler.go
package detectscorebias

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"yecs-workers/internal/common/aws"
	"yecs-workers/internal/common/camunda"
	"yecs-workers/internal/common/database"
	"yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/metrics"
	"yecs-workers/internal/fairness"
)

const (
	TaskType = "detect-score-bias"
)

type Handler struct {
	config       *Config
	auditor      *fairness.Auditor
	scores       *database.ScoreRepository
	archive      *database.ReportArchive
	alerter      *aws.BiasAlerter
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	newID        func() string
	now          func() time.Time
}

// NewHandler builds the audit worker. scores, archive and alerter are
// optional; a nil dependency disables stored-data audits, archiving or
// alerting respectively.
func NewHandler(
	config *Config,
	auditor *fairness.Auditor,
	scores *database.ScoreRepository,
	archive *database.ReportArchive,
	alerter *aws.BiasAlerter,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		auditor:      auditor,
		scores:       scores,
		archive:      archive,
		alerter:      alerter,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
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
	scores, demographics, source := input.Scores, input.Demographics, SourceInput
	if input.usesStoredData() {
		var err error
		scores, demographics, err = h.loadStored(ctx)
		if err != nil {
			return nil, err
		}
		source = SourceDatabase
	}

	report, err := h.auditor.DetectBias(scores, demographics)
	if err != nil {
		return nil, err
	}

	flagged := flaggedGroups(report)
	output := &Output{
		AuditID:           h.newID(),
		Source:            source,
		RecordsAnalyzed:   report.JoinedRows,
		BiasDetected:      report.BiasDetected,
		FlaggedGroupCount: report.FlaggedGroupCount(),
		FlaggedGroups:     flagged,
		Report:            fairness.GenerateReport(report),
		Analysis:          report,
		AuditedAt:         h.now(),
	}

	counts := make(map[string]int, len(flagged))
	for attr, groups := range flagged {
		counts[attr] = len(groups)
	}
	metrics.RecordAudit(report.BiasDetected, counts)

	if input.shouldArchive() && h.archive != nil {
		h.archiveReport(ctx, output)
	}
	if report.BiasDetected && input.shouldAlert() && h.config.AlertsEnabled && h.alerter != nil {
		h.sendAlert(ctx, output)
	}

	h.logger.Info("bias audit completed", map[string]interface{}{
		"auditId":           output.AuditID,
		"source":            output.Source,
		"recordsAnalyzed":   output.RecordsAnalyzed,
		"biasDetected":      output.BiasDetected,
		"flaggedGroupCount": output.FlaggedGroupCount,
	})
	return output, nil
}

// loadStored reads the latest score per user and the protected attribute
// values concurrently.
func (h *Handler) loadStored(ctx context.Context) ([]fairness.ScoreRecord, []fairness.DemographicRecord, error) {
	if h.scores == nil {
		return nil, nil, errors.NewInvalidArgumentError("audit input",
			"no records were supplied and no score store is configured")
	}

	var stored []database.StoredScore
	var values []database.DemographicValue

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = h.scores.LatestScores(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		values, err = h.scores.Demographics(gctx, h.auditor.Config().ProtectedAttributes)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, errors.NewScoreQueryFailedError("audit", err)
	}

	return toScoreRecords(stored), toDemographicRecords(values), nil
}

func (h *Handler) archiveReport(ctx context.Context, output *Output) {
	doc := AuditDocument{
		AuditID:           output.AuditID,
		Source:            output.Source,
		RecordsAnalyzed:   output.RecordsAnalyzed,
		BiasDetected:      output.BiasDetected,
		FlaggedGroupCount: output.FlaggedGroupCount,
		FlaggedGroups:     output.FlaggedGroups,
		Report:            output.Report,
		Analysis:          output.Analysis,
		AuditedAt:         output.AuditedAt,
	}

	if err := h.archive.Store(ctx, output.AuditID, doc); err != nil {
		archiveErr := errors.NewAuditArchiveFailedError(output.AuditID, err)
		h.logger.Warn("failed to archive bias report", map[string]interface{}{
			"auditId": output.AuditID,
			"index":   h.archive.Index(),
			"error":   archiveErr.Error(),
		})
		output.ArchiveError = archiveErr.Error()
		return
	}
	output.Archived = true
}

func (h *Handler) sendAlert(ctx context.Context, output *Output) {
	receipt, err := h.alerter.Send(ctx, aws.BiasAlert{
		AuditID:       output.AuditID,
		FlaggedGroups: output.FlaggedGroups,
		DetectedAt:    output.AuditedAt,
		Report:        output.Report,
	})
	output.AlertChannels = receipt.Channels()
	if err != nil {
		h.logger.Warn("failed to deliver bias alert", map[string]interface{}{
			"auditId": output.AuditID,
			"error":   err.Error(),
		})
		output.AlertError = err.Error()
	}
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
