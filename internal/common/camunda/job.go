// internal/common/camunda/job.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/metrics"
	"yecs-workers/internal/common/observability"
	"yecs-workers/internal/common/validation"
)

// DecodeVariables validates the job variables against schema and decodes
// them into out. An empty variables document decodes as {}.
func DecodeVariables(taskType string, variables string, schema map[string]interface{}, out interface{}) error {
	if variables == "" {
		variables = "{}"
	}

	var document map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &document); err != nil {
		return errors.NewInvalidArgumentError("job variables", err.Error())
	}
	if document == nil {
		document = map[string]interface{}{}
	}

	if err := validation.Validate(taskType, schema, document); err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(variables), out); err != nil {
		return errors.NewInvalidArgumentError("job variables", err.Error())
	}
	return nil
}

// Instrument wraps a job handler with the active-jobs gauge, the duration
// histogram and the OpenTelemetry job instruments.
func Instrument(taskType string, obs *observability.Observability, handler worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

			ctx := context.Background()
			obs.RecordJobProcessed(ctx, taskType, "handled")
			obs.RecordJobDuration(ctx, taskType, elapsed, "handled")
		}()

		handler(client, job)
	}
}
