// Package authgate provides a session/token authentication core with short-lived
// JWT access tokens, long-lived rotating refresh tokens, and a Redis-backed
// credential store holding exactly one current refresh token per user.
//
// The package is designed for request-parallel server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build], and the engine itself holds no mutable per-request state.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (Identity, Credentials, AuthResult, TokenPair). Flow orchestration
// and audit dispatch live under internal/ and are never exported. The token
// codec and the credential store contract live in token/ and credential/; HTTP
// adapters live in middleware/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or store encoding details in its public API.
//   - Hash or store passwords: callers verify credentials and hand the engine
//     an already-authenticated [Identity] via [Engine.Issue].
//   - Echo token or signature internals to callers; detail is logged only.
//
// # Performance contract
//
// Authenticate with a valid access token is the hot path. It must complete
// without any credential store round-trip. The refresh path is allowed one
// read and one atomic rotation per call.
package authgate
