// Package connection is the HTTP client branchweb-cli uses to talk to a
// running server. It speaks the envelope protocol: every reply carries
// a status and a payload, and any status but SUCCESS becomes a
// *StatusError.
package connection
