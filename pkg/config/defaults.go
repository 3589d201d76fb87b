package config

import "time"

// Defaults returns a Config populated with the same values Load falls back
// to when an environment variable is unset, matching the teacher's
// pkg/config/defaults.go layering (defaults first, then env overrides).
func Defaults() *Config {
	return &Config{
		PublicMode:              false,
		PublicDataRetentionDays: 30,
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "reflector",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Inference: InferenceConfig{
			Timeout: 60 * time.Second,
			Engine:  "whisper",
		},
		LLM: LLMConfig{
			Backend:       "anthropic",
			RetryMin:      250 * time.Millisecond,
			RetryMax:      10 * time.Second,
			RetryAttempts: 3,
			ParseAttempts: 3,
		},
		Workflow: WorkflowConfig{
			Engine:    "temporal",
			TaskQueue: "reflector-pipeline",
		},
		Broadcast: BroadcastConfig{
			Transport: "memory",
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9090",
		},
	}
}
