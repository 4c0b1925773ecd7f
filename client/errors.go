package client

import (
	"fmt"
	"strings"
)

// maxErrorBody bounds the response excerpt kept on an UpstreamError.
const maxErrorBody = 512

// UpstreamError is returned when the inference server call fails: a transport
// failure (Status 0), a non-2xx status, or a body that cannot be used.
type UpstreamError struct {
	Op     string // "request", "stream" or "completion"
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("LocalAI ")
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	switch {
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Body != "":
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func newStatusError(op string, status int, body []byte) *UpstreamError {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > maxErrorBody {
		excerpt = excerpt[:maxErrorBody] + "..."
	}
	return &UpstreamError{Op: op, Status: status, Body: excerpt}
}
