package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load builds a Config the way the teacher's Initialize() does: start from
// Defaults, load a local .env file if one is present (ignored if missing —
// production deployments set real env vars), apply overrides from the
// process environment, then Validate.
func Load() (*Config, error) {
	_ = godotenv.Load() // best-effort; absence is not an error

	cfg := Defaults()
	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.PublicMode = envBool("PUBLIC_MODE", cfg.PublicMode)
	cfg.PublicDataRetentionDays = envInt("PUBLIC_DATA_RETENTION_DAYS", cfg.PublicDataRetentionDays)

	cfg.Database.Host = envString("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = envInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = envString("DB_USER", cfg.Database.User)
	cfg.Database.Password = envString("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = envString("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = envString("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = envInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.Storage.Bucket = envString("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.Region = envString("STORAGE_REGION", cfg.Storage.Region)
	cfg.Storage.EndpointURL = envString("STORAGE_ENDPOINT_URL", cfg.Storage.EndpointURL)
	cfg.Storage.AccessKeyID = envString("STORAGE_ACCESS_KEY_ID", cfg.Storage.AccessKeyID)
	cfg.Storage.SecretAccessKey = envString("STORAGE_SECRET_ACCESS_KEY", cfg.Storage.SecretAccessKey)
	cfg.Storage.RoleARN = envString("STORAGE_ROLE_ARN", cfg.Storage.RoleARN)

	cfg.Inference.BaseURL = envString("INFERENCE_BASE_URL", cfg.Inference.BaseURL)
	cfg.Inference.APIKey = envString("INFERENCE_API_KEY", cfg.Inference.APIKey)
	cfg.Inference.Timeout = envDuration("INFERENCE_TIMEOUT", cfg.Inference.Timeout)
	cfg.Inference.Engine = envString("INFERENCE_ENGINE", cfg.Inference.Engine)

	cfg.LLM.Backend = envString("LLM_BACKEND", cfg.LLM.Backend)
	cfg.LLM.APIKey = envString("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = envString("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.RetryMin = envDuration("LLM_RETRY_MIN", cfg.LLM.RetryMin)
	cfg.LLM.RetryMax = envDuration("LLM_RETRY_MAX", cfg.LLM.RetryMax)
	cfg.LLM.RetryAttempts = envInt("LLM_RETRY_ATTEMPTS", cfg.LLM.RetryAttempts)
	cfg.LLM.ParseAttempts = envInt("LLM_PARSE_ATTEMPTS", cfg.LLM.ParseAttempts)

	cfg.Workflow.Engine = envString("WORKFLOW_ENGINE", cfg.Workflow.Engine)
	cfg.Workflow.TemporalHost = envString("TEMPORAL_HOST", cfg.Workflow.TemporalHost)
	cfg.Workflow.TaskQueue = envString("WORKFLOW_TASK_QUEUE", cfg.Workflow.TaskQueue)

	cfg.Broadcast.Transport = envString("BROADCAST_TRANSPORT", cfg.Broadcast.Transport)
	cfg.Broadcast.RedisAddr = envString("REDIS_ADDR", cfg.Broadcast.RedisAddr)

	cfg.Metrics.ListenAddr = envString("METRICS_LISTEN_ADDR", cfg.Metrics.ListenAddr)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
