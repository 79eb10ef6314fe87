// Package middleware exposes the HTTP gatekeeper and request rate limiter
// built on top of the authgate Engine.
//
// # Gatekeeper
//
// [Gatekeeper] wraps an http.Handler and enforces authentication on every
// request whose path is not covered by a configured public prefix. It extracts
// credentials from headers and cookies, calls Engine.Authenticate, and on a
// seamless renewal delivers the fresh token pair back on the response before
// the protected handler runs.
//
// # RateLimit
//
// [RateLimit] enforces a fixed-window per-IP request limit counted in Redis.
// It wraps the whole pipeline, public paths included, and rejects with 429
// before any authentication work happens.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself. All accept, renew, and reject
// decisions are delegated to Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the credential store (Engine handles I/O).
//   - Leak token contents or parser internals into response bodies.
package middleware
