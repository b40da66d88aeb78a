// Package handler provides the built-in branchweb endpoints.
//
// Endpoints are registered on an httpserver.Registry:
//
//   - auth.go: login, key checks, logoff, whoami and key listing
//   - users.go: user creation and password changes
//   - health.go: liveness and build information
//
// Every endpoint that takes an authentication key validates it against
// the key store, which also refreshes it.
package handler
