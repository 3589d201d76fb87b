package errs

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
)

// classifyTransport extends the teacher's pkg/mcp/recovery.go
// ClassifyError heuristics (originally scoped to MCP JSON-RPC transport)
// to any network collaborator: object storage, the inference API, and the
// LLM backend all fail in the same connection/timeout/EOF shapes.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Transient
		}
		return Transient
	}

	if isConnectionError(err) {
		return Transient
	}

	return Logical
}

func isConnectionError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"connection closed",
		"no such host",
		"i/o timeout",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
