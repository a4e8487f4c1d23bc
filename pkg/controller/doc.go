// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Adds CORS headers for an origin allow list and handles OPTIONS preflight.
//   - WithRequestLog: Assigns a request ID, puts a logger carrying it into the context and logs one line per request.
//
// Provided helpers:
//   - PprofMux: Returns a ServeMux exposing net/http/pprof handlers.
//   - ClientIP, RequestID: Read the caller address and the assigned request ID.
package controller
