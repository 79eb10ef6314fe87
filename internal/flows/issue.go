package flows

import (
	"context"
	"time"
)

// IssueFailureKind classifies issuance flow failures.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureMint
	IssueFailureStore
)

// IssueResult carries the minted token pair or failure metadata.
type IssueResult struct {
	Failure      IssueFailureKind
	Err          error
	AccessToken  string
	RefreshToken string
}

// IssueCredentialStore is the slice of the credential store contract the
// issue flow needs.
type IssueCredentialStore interface {
	Put(ctx context.Context, userID, refreshToken string, ttl time.Duration) error
}

// IssueDeps captures issuance flow dependencies.
type IssueDeps struct {
	MintAccess  func(subjectID, email string) (string, error)
	MintRefresh func(subjectID, email string) (string, error)
	RefreshTTL  func() time.Duration
	Store       IssueCredentialStore
}

// RunIssue mints a fresh token pair for an already-verified identity and
// upserts the refresh token as the user's single current credential,
// invalidating whatever was stored before.
func RunIssue(ctx context.Context, subjectID, email string, deps IssueDeps) IssueResult {
	access, err := deps.MintAccess(subjectID, email)
	if err != nil {
		return IssueResult{Failure: IssueFailureMint, Err: err}
	}

	refresh, err := deps.MintRefresh(subjectID, email)
	if err != nil {
		return IssueResult{Failure: IssueFailureMint, Err: err}
	}

	if err := deps.Store.Put(ctx, subjectID, refresh, deps.RefreshTTL()); err != nil {
		return IssueResult{Failure: IssueFailureStore, Err: err}
	}

	return IssueResult{
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
