package objectstore

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/reflector-core/reflector/pkg/errs"
)

// PermissionError carries the bucket and operation a denied S3 call was
// made against, per spec.md §7 ("wrapped as a permission error carrying
// bucket name and operation; never retried").
type PermissionError struct {
	Bucket    string
	Operation string
	Err       error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s on bucket %q: %v", e.Operation, e.Bucket, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// classify maps an AWS SDK error to the errs.Kind taxonomy: access-denied
// and no-such-bucket map to Permission (never retried), missing objects to
// NotFound, everything else to Transient (retryable at the caller's
// backoff boundary), matching spec.md §7's error-kind table.
func classify(err error, bucket, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "NoSuchBucket", "Forbidden":
			return errs.New(errs.Permission, "objectstore", op, &PermissionError{Bucket: bucket, Operation: op, Err: err})
		case "NoSuchKey", "NotFound":
			return errs.New(errs.NotFound, "objectstore", op, err)
		}
	}
	return errs.New(errs.Transient, "objectstore", op, err)
}
