package api

// contextKey is a private type for request context values, preventing
// collisions with keys set by other packages.
type contextKey string

// ContextKeyRequestID carries the per-request UUID assigned by the request-ID
// middleware.
const ContextKeyRequestID contextKey = "request_id"
