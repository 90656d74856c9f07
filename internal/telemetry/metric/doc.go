// Package metric provides Prometheus metrics for hello-login.
//
// A Registry owns its own prometheus.Registry (no global registration), so
// tests can build as many as they like. It doubles as the observer for the
// member store and the session manager and exposes /metrics through
// promhttp.
package metric
