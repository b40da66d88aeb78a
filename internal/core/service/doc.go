// Package service provides domain services for branchweb.
//
// Domain services contain the business logic and orchestrate operations
// on domain models. They define interfaces for storage dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - Directory: registered users, password checks, login and logoff
//   - LoginThrottle: per-user token buckets limiting password guessing
//
// The Directory owns the user list and delegates key lifecycle to the
// memory.KeyStore it is built with. Users only hold back-references to
// keys through the owner index.
package service
