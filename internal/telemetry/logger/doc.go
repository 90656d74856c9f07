// Package logger provides structured logging for hello-login.
//
// It wraps log/slog:
//
//   - logger.go: handler construction, runtime level, fallback logger
//   - context.go: log id and logger propagation through context
//   - exchange.go: the REQUEST and RESPONSE lines written per request
//   - redact.go: masking of passwords, tokens and session cookies
//
// Components that take a *slog.Logger get one from Logger.Slog so that
// redaction applies everywhere.
package logger
