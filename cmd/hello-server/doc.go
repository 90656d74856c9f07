// Package main provides the entry point for hello-server.
//
// hello-server serves member registration and cookie-based login over
// HTTP. Members and sessions are held in memory only.
//
// Usage:
//
//	hello-server [flags]
//	hello-server --config /etc/hello/config.yaml --log-level debug
//	hello-server check-config --config /etc/hello/config.yaml
//	hello-server version
//
// Configuration priority: flags > HELLO_* environment > file > defaults.
// Sending SIGHUP (or editing the file when log.watch is set) reloads
// log.level without a restart.
package main
