// Package config loads Reflector's runtime configuration the way the
// teacher loads its own: layered defaults, environment-variable expansion,
// then validation, using github.com/joho/godotenv for local .env loading.
// Unlike the teacher's YAML-registry config (agents/chains/MCP servers),
// Reflector has no registries to load — every setting is a flat env var,
// so this package is a single struct plus a loader rather than a file tree.
package config

import "time"

// Config is the umbrella configuration object returned by Load and
// threaded through cmd/reflector-worker into every package constructor.
type Config struct {
	// Public mode (spec §4.7/§4.8): anonymous/unauthenticated transcripts
	// are subject to retention sweeps; PUBLIC_MODE gates whether the
	// consent/cleanup sweep runs at all.
	PublicMode            bool
	PublicDataRetentionDays int

	Database  DatabaseConfig
	Storage   StorageConfig
	Inference InferenceConfig
	LLM       LLMConfig
	Workflow  WorkflowConfig
	Broadcast BroadcastConfig
	Metrics   MetricsConfig
}

// DatabaseConfig mirrors the teacher's pkg/database/config.go shape.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StorageConfig configures the S3-compatible object store adapter.
type StorageConfig struct {
	Bucket         string
	Region         string
	EndpointURL    string // non-empty => S3-compatible store, path-style addressing forced
	AccessKeyID    string
	SecretAccessKey string
	RoleARN        string // mutually exclusive with AccessKeyID/SecretAccessKey
}

// InferenceConfig configures the transcription/diarization HTTP client.
type InferenceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Engine  string // transcription engine/model name, embedded in padded-track object keys (spec.md §6)
}

// LLMConfig configures the LLM coordinator's retry and backend selection.
type LLMConfig struct {
	Backend        string // "anthropic" | "openai"
	APIKey         string
	Model          string
	RetryMin       time.Duration
	RetryMax       time.Duration
	RetryAttempts  int
	ParseAttempts  int
}

// WorkflowConfig configures the pluggable workflow engine adapter.
type WorkflowConfig struct {
	Engine        string // "temporal" | "memory"
	TemporalHost  string
	TaskQueue     string
}

// BroadcastConfig configures the event broadcaster's pub/sub transport.
type BroadcastConfig struct {
	Transport string // "memory" | "redis"
	RedisAddr string
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	ListenAddr string
}
