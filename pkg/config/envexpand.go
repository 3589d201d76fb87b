package config

import "os"

// ExpandEnv expands ${VAR}/$VAR references in a string using the standard
// library, matching the teacher's pkg/config/envexpand.go. Used when a
// setting (e.g. an object store endpoint URL) is itself assembled from
// other environment variables rather than read directly.
func ExpandEnv(s string) string {
	return os.ExpandEnv(s)
}
