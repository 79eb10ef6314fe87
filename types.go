package authgate

// Identity is the authenticated subject encoded into every issued token.
// Immutable once issued in a token.
type Identity struct {
	SubjectID string
	Email     string
}

// Credentials carries the optional inbound credentials extracted from a
// request. Either field may be empty; the engine decides what that means.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// TokenPair holds a freshly minted access+refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Outcome classifies an accepted authentication decision.
type Outcome int

const (
	// OutcomeAccessValid means the access token verified on the fast path.
	// No store interaction happened and no new tokens were minted.
	OutcomeAccessValid Outcome = iota
	// OutcomeRotated means the session was renewed via the refresh path: a new
	// token pair was minted and the stored refresh token was rotated. The new
	// pair must be delivered back to the caller.
	OutcomeRotated
)

// AuthResult is returned by [Engine.Authenticate] on acceptance. Tokens is
// populated only when Outcome is [OutcomeRotated].
type AuthResult struct {
	Identity Identity
	Outcome  Outcome
	Tokens   TokenPair
}
