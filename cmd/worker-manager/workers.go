// cmd/worker-manager/workers.go
package main

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"yecs-workers/internal/common/aws"
	"yecs-workers/internal/common/config"
	"yecs-workers/internal/common/database"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/fairness"
	"yecs-workers/internal/scoring"
	"yecs-workers/pkg/registry"

	// Fairness Workers (3)
	cfm "yecs-workers/internal/workers/fairness/calculate-fairness-metrics"
	dsb "yecs-workers/internal/workers/fairness/detect-score-bias"
	msb "yecs-workers/internal/workers/fairness/mitigate-score-bias"

	// Scoring Workers (2)
	cys "yecs-workers/internal/workers/scoring/calculate-yecs-score"
	gsh "yecs-workers/internal/workers/scoring/get-score-history"
)

// dependencies are the shared clients handed to every worker. Any of the
// storage fields may be nil in tests.
type dependencies struct {
	cfg      *config.Config
	registry *registry.ActivityRegistry
	scores   *database.ScoreRepository
	cache    *database.ScoreCache
	archive  *database.ReportArchive
	alerter  *aws.BiasAlerter
	log      logger.Logger
}

type registeredHandler struct {
	taskType string
	handle   worker.JobHandler
}

type handlerSet struct {
	list   []registeredHandler
	detect *dsb.Handler
}

// buildHandlers constructs one handler per registered activity. Every task
// type in the registry must have a handler here.
func buildHandlers(d *dependencies) (*handlerSet, error) {
	engine := scoring.NewDefaultEngine()
	auditor := fairness.NewDefaultAuditor()
	workerCfg := func(taskType string) config.WorkerConfig {
		return config.GetWorkerConfig(d.cfg, taskType)
	}

	// --- Scoring Workers ---
	calculate := cys.NewHandler(cys.LoadConfig(workerCfg(cys.TaskType), d.registry), engine, d.scores, d.cache, d.log)
	history := gsh.NewHandler(gsh.LoadConfig(workerCfg(gsh.TaskType), d.registry), d.scores, d.cache, d.log)

	// --- Fairness Workers ---
	detect := dsb.NewHandler(dsb.LoadConfig(workerCfg(dsb.TaskType), d.cfg.Audit, d.registry), auditor, d.scores, d.archive, d.alerter, d.log)
	mitigate := msb.NewHandler(msb.LoadConfig(workerCfg(msb.TaskType), d.registry), auditor, d.log)
	metrics := cfm.NewHandler(cfm.LoadConfig(workerCfg(cfm.TaskType), d.registry), auditor, d.log)

	set := &handlerSet{
		list: []registeredHandler{
			{cys.TaskType, calculate.Handle},
			{gsh.TaskType, history.Handle},
			{dsb.TaskType, detect.Handle},
			{msb.TaskType, mitigate.Handle},
			{cfm.TaskType, metrics.Handle},
		},
		detect: detect,
	}

	for _, a := range d.registry.Activities {
		if !set.has(a.TaskType) {
			return nil, fmt.Errorf("no handler for registered task type %q", a.TaskType)
		}
	}
	return set, nil
}

func (s *handlerSet) has(taskType string) bool {
	for _, h := range s.list {
		if h.taskType == taskType {
			return true
		}
	}
	return false
}

// runAudit audits the latest stored scores outside any process instance.
func (s *handlerSet) runAudit(ctx context.Context) (*dsb.Output, error) {
	return s.detect.Execute(ctx, &dsb.Input{})
}
