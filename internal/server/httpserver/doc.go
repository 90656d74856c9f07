// Package httpserver provides the HTTP server for hello-login.
//
// It uses the Go standard library net/http. Every application route is
// registered on the top-level mux and wrapped in the middleware chain:
//
//	RequestID -> ClientIP -> Audit -> Recover -> CORS -> RateLimit -> LoginCheck -> handler
//
// Probe endpoints (/health, /ready, /metrics) only get RequestID and
// Recover. Sessions live in the session subpackage and are carried by the
// mySessionId cookie.
package httpserver
