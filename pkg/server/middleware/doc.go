// Package middleware provides the HTTP middleware chain of the HTTPS
// listener.
//
// Requests pass through the following middleware (outermost first):
//  1. Recovery: turns handler panics into 500 responses
//  2. RequestID: assigns or propagates X-Request-ID
//  3. Logging: logs each request with its status and latency
//  4. Metrics: counts requests by method and status code
//
// Example:
//
//	var h http.Handler = mux
//	h = middleware.Metrics(collector)(h)
//	h = middleware.Logging(logger)(h)
//	h = middleware.RequestID(h)
//	h = middleware.Recovery(logger)(h)
package middleware
