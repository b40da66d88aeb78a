// Package shutdown coordinates graceful process termination.
//
// Components register hooks with OnShutdown. Wait blocks until SIGINT,
// SIGTERM, a Trigger call or context cancellation, then runs the hooks in
// reverse registration order under a shared timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
