package reconcile

import "errors"

var (
	errInvalidMultitrack = errors.New("multitrack recording requires non-empty track_keys")
	errMissingBucket     = errors.New("non-empty track_keys requires a bucket_name")
)
