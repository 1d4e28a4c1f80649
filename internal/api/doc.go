// Package api hosts the HTTP server, middleware, and JSON handlers of the
// portal. Notable routes:
//   - GET /healthz and /readyz for probes; readyz pings the status store.
//   - GET /metrics for Prometheus scraping.
//   - GET {prefix}/ returns the welcome message.
//   - POST and GET {prefix}/status create and list status checks.
//   - GET {prefix}/notices returns the notices feed, which never fails.
package api
