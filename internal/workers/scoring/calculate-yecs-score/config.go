// internal/workers/scoring/calculate-yecs-score/config.go
package calculateyecsscore

import (
	"time"

	"yecs-workers/internal/common/config"
	"yecs-workers/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

// LoadConfig applies the worker settings and the registered input schema.
func LoadConfig(wcfg config.WorkerConfig, reg *registry.ActivityRegistry) *Config {
	timeout := time.Duration(wcfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Config{
		Timeout:     timeout,
		InputSchema: reg.InputSchema(TaskType),
	}
}
