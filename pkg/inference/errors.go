package inference

import (
	"errors"
	"net"
	"net/http"

	"github.com/reflector-core/reflector/pkg/errs"
)

// StatusError carries the HTTP status code of a non-2xx inference
// response, letting callers distinguish 400 (unsupported language), 401
// (auth), and 5xx/429 (transient) per spec.md §6.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "inference: unexpected status " + http.StatusText(e.StatusCode) + ": " + e.Body
}

// classifyHTTP maps an HTTP status code to the errs.Kind taxonomy that
// governs the retry decorator in client.go, per spec.md §7: transient I/O
// (408, 429, 5xx) retries; permission (401, 403) and validation (other
// 4xx) do not.
func classifyHTTP(status int) errs.Kind {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return errs.Transient
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return errs.Permission
	case status >= 400:
		return errs.Validation
	default:
		return errs.Unknown
	}
}

// classifyErr extends errs.Classify with the transport-level heuristics
// the teacher's pkg/mcp/recovery.go ClassifyError used for MCP transport
// failures (connection reset, timeouts, EOF), applied here to the raw
// net/http transport errors a request never got a status code for.
func classifyErr(err error) errs.Kind {
	if err == nil {
		return errs.Unknown
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyHTTP(statusErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Transient
	}

	if errors.Is(err, net.ErrClosed) {
		return errs.Transient
	}

	return errs.Classify(err)
}
