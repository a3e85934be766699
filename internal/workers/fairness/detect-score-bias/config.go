// internal/workers/fairness/detect-score-bias/config.go
package detectscorebias

import (
	"time"

	"yecs-workers/internal/common/config"
	"yecs-workers/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
	// AlertsEnabled gates every alert regardless of the job's sendAlerts flag.
	AlertsEnabled bool
}

func LoadConfig(wcfg config.WorkerConfig, audit config.AuditConfig, reg *registry.ActivityRegistry) *Config {
	timeout := time.Duration(wcfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Config{
		Timeout:       timeout,
		InputSchema:   reg.InputSchema(TaskType),
		AlertsEnabled: audit.Alerts.Enabled,
	}
}
