// Package domain defines the core domain models for branchweb.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - SessionKey: opaque authentication key with a last-activity timestamp
//   - User: registered user with a salted password hash
//   - Status: application-level response status carried in every envelope
//   - Errors: domain error definitions and their status mapping
package domain
