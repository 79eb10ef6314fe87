package authgate

import "errors"

var (
	// ErrMissingAccessToken is returned when a request carries neither an
	// access credential nor a refresh credential.
	ErrMissingAccessToken = errors.New("access token not provided")
	// ErrMissingRefreshToken is returned when the access credential is invalid
	// or expired and no refresh credential is present.
	ErrMissingRefreshToken = errors.New("refresh token not provided")
	// ErrRefreshTokenExpired is returned when the presented refresh token is
	// expired, malformed, or fails signature verification.
	ErrRefreshTokenExpired = errors.New("refresh token invalid or expired")
	// ErrStaleRefreshToken is returned when a signature-valid refresh token no
	// longer matches the stored current value: it has been rotated out and is
	// being replayed.
	ErrStaleRefreshToken = errors.New("stale or replayed refresh token")
	// ErrUnknownSession is returned when no credential record exists for the
	// subject named by the refresh token.
	ErrUnknownSession = errors.New("unknown session")
	// ErrStoreUnavailable is returned when the credential store cannot be
	// reached or times out. The request is rejected (fail-closed); this is the
	// only error eligible for caller-side retry.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrTokenIssueFailed is returned when minting a new token pair fails.
	ErrTokenIssueFailed = errors.New("token issuance failed")
	// ErrEngineNotReady is returned when an Engine method is called before
	// Build has wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
