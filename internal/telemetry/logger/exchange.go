package logger

import "time"

// Keys of the per-request log lines.
const (
	KeyLogID    = "log_id"
	KeyMethod   = "method"
	KeyURI      = "uri"
	KeyHandler  = "handler"
	KeyStatus   = "status"
	KeyDuration = "duration_ms"
	KeyClientIP = "client_ip"
	KeyError    = "error"
)

// Exchange is one HTTP request and the response it got.
type Exchange struct {
	Method   string
	URI      string
	Handler  string // matched route pattern
	ClientIP string
	Status   int
	Duration time.Duration
	Err      error // error the handler answered with, if any
}

// Request writes the REQUEST line, before the handler runs.
func Request(l Logger, ex Exchange) {
	l.Info("REQUEST",
		KeyMethod, ex.Method,
		KeyURI, ex.URI,
		KeyHandler, ex.Handler,
	)
}

// Response writes the RESPONSE line. 5xx goes to error level; a handled
// client error goes to warn.
func Response(l Logger, ex Exchange) {
	args := []any{
		KeyMethod, ex.Method,
		KeyURI, ex.URI,
		KeyHandler, ex.Handler,
		KeyStatus, ex.Status,
		KeyDuration, ex.Duration.Milliseconds(),
		KeyClientIP, ex.ClientIP,
	}
	if ex.Err != nil {
		args = append(args, KeyError, ex.Err)
	}

	switch {
	case ex.Status >= 500:
		l.Error("RESPONSE", args...)
	case ex.Err != nil:
		l.Warn("RESPONSE", args...)
	default:
		l.Info("RESPONSE", args...)
	}
}
