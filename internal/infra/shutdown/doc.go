// Package shutdown coordinates graceful process termination.
//
// A Handler collects hooks (close the HTTP listener, stop the config
// watcher, flush logs) and runs them in reverse registration order once
// SIGINT or SIGTERM arrives, bounded by a timeout.
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(srv.Stop)
//	if err := h.WaitContext(ctx); err != nil { ... }
package shutdown
