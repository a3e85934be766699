// cmd/worker-manager/scheduler.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"yecs-workers/internal/common/logger"
	dsb "yecs-workers/internal/workers/fairness/detect-score-bias"
)

// auditTaskType names the worker whose timeout bounds a scheduled run.
const auditTaskType = dsb.TaskType

// scheduleParser accepts standard five-field specs, an optional leading
// seconds field, and descriptors such as @daily.
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type auditFunc func(ctx context.Context) (*dsb.Output, error)

// auditScheduler runs the stored-data bias audit on a cron schedule. A run
// that is still going when the next one fires causes that tick to be skipped.
type auditScheduler struct {
	cron    *cron.Cron
	run     auditFunc
	timeout time.Duration
	log     logger.Logger
}

func newAuditScheduler(spec string, timeout time.Duration, run auditFunc, log logger.Logger) (*auditScheduler, error) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	log = log.WithFields(map[string]interface{}{"component": "audit-scheduler"})

	cl := cronLogger{log}
	s := &auditScheduler{
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		run:     run,
		timeout: timeout,
		log:     log,
	}

	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("parse audit schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *auditScheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info("bias audit scheduled", map[string]interface{}{"next": e.Next.Format(time.RFC3339)})
	}
}

// Stop halts the schedule and waits for a running audit or ctx, whichever
// finishes first.
func (s *auditScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduled audit still running at shutdown", nil)
	}
}

func (s *auditScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.run(ctx)
	if err != nil {
		s.log.Error("scheduled bias audit failed", map[string]interface{}{
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		return
	}
	s.log.Info("scheduled bias audit finished", map[string]interface{}{
		"auditId":           out.AuditID,
		"recordsAnalyzed":   out.RecordsAnalyzed,
		"biasDetected":      out.BiasDetected,
		"flaggedGroupCount": out.FlaggedGroupCount,
		"duration":          time.Since(start).String(),
	})
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = err.Error()
	c.log.Error(msg, fields)
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
