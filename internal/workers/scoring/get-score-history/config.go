// internal/workers/scoring/get-score-history/config.go
package getscorehistory

import (
	"time"

	"yecs-workers/internal/common/config"
	"yecs-workers/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig(wcfg config.WorkerConfig, reg *registry.ActivityRegistry) *Config {
	timeout := time.Duration(wcfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Config{
		Timeout:     timeout,
		InputSchema: reg.InputSchema(TaskType),
	}
}
