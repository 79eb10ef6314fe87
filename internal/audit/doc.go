// Package audit provides the asynchronous audit event model and dispatcher
// used by the engine.
//
// Events are emitted from request paths and forwarded to a caller-supplied
// sink on a dedicated goroutine, so a slow sink never blocks authentication
// (unless DropIfFull is disabled, in which case emission blocks until the
// buffer drains or the caller's context is done).
package audit
