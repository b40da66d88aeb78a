// Package httpserver provides the HTTP dispatcher for branchweb.
//
// It uses the Go standard library net/http for the transport and adds a
// small routing layer with a legacy wire contract:
//
//   - Routing: exact (method, real path) lookup in a Registry
//   - Real path: derived from the request target, where "/?name=v" routes
//     to "name" and the query pairs become form data
//   - Bodies: JSON objects, multipart and urlencoded forms for POST
//   - Responses: a JSON envelope {status, response_code, payload} sent with
//     transport status 200, plus raw text and file download responses
//
// Features:
//
//   - Panic and error boundary per request; other connections keep serving
//   - Middleware chain: Recover, RequestID, Audit, Instrument
//   - Optional wildcard CORS headers, switchable at runtime
//   - Graceful shutdown through Server.Shutdown
package httpserver
