// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter
// calls, so every endpoint shares one JSON format and error envelope.
// Internal errors are logged through the structured logger and never
// returned to the client.
package httputil
