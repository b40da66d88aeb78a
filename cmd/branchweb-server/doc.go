// Package main provides the entry point for branchweb-server.
//
// The server answers the branchweb envelope protocol over HTTP with the
// built-in authentication endpoints, and optionally exposes Prometheus
// metrics on a separate listener.
//
// Usage:
//
//	branchweb-server [flags]
//	branchweb-server -config /path/to/branchweb.yaml
//
// Changes to the configuration file are applied without a restart where
// possible (key timeout, debug, CORS, body limit, log level).
package main
