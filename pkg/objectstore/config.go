package objectstore

import (
	"time"

	"github.com/reflector-core/reflector/pkg/errs"
)

// Config configures the S3-compatible object store adapter, generalizing
// the teacher's pkg/database/config.go "config struct -> Validate ->
// construct client" shape (DESIGN.md) to object storage. Mirrors
// spec.md §6's credential contract: access-key pair OR role ARN, never
// both, with an optional custom endpoint for S3-compatible backends.
type Config struct {
	Region          string
	Bucket          string // bucket HealthCheck probes; every Store call names its own bucket
	EndpointURL     string // non-empty => S3-compatible store, path-style addressing forced
	AccessKeyID     string
	SecretAccessKey string
	RoleARN         string
	PresignExpiry   time.Duration
}

// Validate enforces spec.md §6's "access-key pair OR role ARN, never both"
// rule, that a partial access-key pair is rejected, and that a region is
// present. A bucket is not required.
func (c Config) Validate() error {
	hasKeys := c.AccessKeyID != "" || c.SecretAccessKey != ""
	hasRole := c.RoleARN != ""
	if hasKeys && hasRole {
		return errs.New(errs.Validation, "objectstore", "Validate",
			errs.NewValidationError("credentials", "access-key pair and role ARN are mutually exclusive"))
	}
	if hasKeys && (c.AccessKeyID == "" || c.SecretAccessKey == "") {
		return errs.New(errs.Validation, "objectstore", "Validate",
			errs.NewValidationError("credentials", "access key id and secret access key must both be set"))
	}
	if c.Region == "" {
		return errs.New(errs.Validation, "objectstore", "Validate",
			errs.NewValidationError("region", "region is required"))
	}
	return nil
}

// UsePathStyle reports whether path-style addressing must be forced,
// per spec.md §6: "path-style addressing when endpoint is set".
func (c Config) UsePathStyle() bool {
	return c.EndpointURL != ""
}
