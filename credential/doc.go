// Package credential defines the credential store contract the engine rotates
// refresh tokens against, plus the Redis-backed implementation.
//
// The store holds exactly one current refresh token per user. [Store.Rotate]
// is a per-user atomic compare-and-swap: when two rotations race with the same
// presented token, exactly one observes a match and wins; the loser gets
// [ErrTokenMismatch]. That property is what makes rotation meaningful: a
// captured-then-superseded refresh token can never succeed twice.
//
// # What this package must NOT do
//
//   - Parse, verify, or mint tokens (opaque strings only).
//   - Retry on infrastructure failure: every Redis error surfaces wrapped in
//     [ErrUnavailable] and the caller rejects the request.
package credential
