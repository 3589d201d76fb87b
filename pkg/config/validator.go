package config

// Validate checks a loaded Config for the structural requirements spec.md
// §6 names explicitly: mutually exclusive storage credential modes, a
// non-empty inference base URL, and a non-empty LLM API key (always
// required), plus the database name, enum and address settings checked
// below.
func Validate(cfg *Config) error {
	if cfg.Database.Name == "" {
		return NewValidationError("database", "name", ErrMissingRequiredField)
	}

	hasKeyPair := cfg.Storage.AccessKeyID != "" || cfg.Storage.SecretAccessKey != ""
	hasRoleARN := cfg.Storage.RoleARN != ""
	if hasKeyPair && hasRoleARN {
		return NewValidationError("storage", "credentials", ErrConflictingCredentials)
	}
	if cfg.Storage.Bucket == "" {
		return NewValidationError("storage", "bucket", ErrMissingRequiredField)
	}

	if cfg.Inference.BaseURL == "" {
		return NewValidationError("inference", "base_url", ErrMissingRequiredField)
	}

	if cfg.LLM.APIKey == "" {
		return NewValidationError("llm", "api_key", ErrMissingRequiredField)
	}
	switch cfg.LLM.Backend {
	case "anthropic", "openai":
	default:
		return NewValidationError("llm", "backend", ErrInvalidValue)
	}

	switch cfg.Workflow.Engine {
	case "temporal", "memory":
	default:
		return NewValidationError("workflow", "engine", ErrInvalidValue)
	}
	if cfg.Workflow.Engine == "temporal" && cfg.Workflow.TemporalHost == "" {
		return NewValidationError("workflow", "temporal_host", ErrMissingRequiredField)
	}

	switch cfg.Broadcast.Transport {
	case "memory", "redis":
	default:
		return NewValidationError("broadcast", "transport", ErrInvalidValue)
	}
	if cfg.Broadcast.Transport == "redis" && cfg.Broadcast.RedisAddr == "" {
		return NewValidationError("broadcast", "redis_addr", ErrMissingRequiredField)
	}

	if cfg.PublicDataRetentionDays < 0 {
		return NewValidationError("public", "retention_days", ErrInvalidValue)
	}

	return nil
}
