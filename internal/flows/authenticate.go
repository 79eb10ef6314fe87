package flows

import (
	"context"
	"errors"
	"time"

	"github.com/aryadevs/authgate/credential"
)

// AuthFailureKind classifies authentication flow failures for root-level
// error mapping.
type AuthFailureKind int

const (
	AuthFailureNone AuthFailureKind = iota
	AuthFailureMissingAccess
	AuthFailureMissingRefresh
	AuthFailureRefreshDecode
	AuthFailureSessionNotFound
	AuthFailureStaleToken
	AuthFailureRefreshVerify
	AuthFailureMint
	AuthFailureStore
)

// AuthResultData carries either the accepted identity (plus the rotated token
// pair when Renewed) or failure metadata.
type AuthResultData struct {
	Failure      AuthFailureKind
	Err          error
	Renewed      bool
	SubjectID    string
	Email        string
	AccessToken  string
	RefreshToken string
}

// AuthCredentialStore is the slice of the credential store contract the
// authenticate flow needs.
type AuthCredentialStore interface {
	Get(ctx context.Context, userID string) (credential.Record, error)
	Rotate(ctx context.Context, userID, presented, next string, ttl time.Duration) error
}

// AuthenticateDeps captures authenticate flow dependencies.
type AuthenticateDeps struct {
	VerifyAccess         func(string) (string, string, error)
	VerifyRefresh        func(string) (string, string, error)
	DecodeRefreshSubject func(string) (string, error)
	MintAccess           func(subjectID, email string) (string, error)
	MintRefresh          func(subjectID, email string) (string, error)
	RefreshTTL           func() time.Duration
	Store                AuthCredentialStore
	NotFound             error
	Mismatch             error
}

// RunAuthenticate executes the per-request accept/renew/reject decision.
//
// The stale check deliberately reads the store before the refresh signature is
// verified: the unverified subject claim is only a lookup key, and the
// stored-value comparison is what defeats replay of a rotated-out token. The
// final Rotate is a compare-and-swap, so of two racing renewals with the same
// refresh token exactly one can win.
func RunAuthenticate(ctx context.Context, accessToken, refreshToken string, deps AuthenticateDeps) AuthResultData {
	if accessToken == "" && refreshToken == "" {
		return AuthResultData{Failure: AuthFailureMissingAccess}
	}

	if accessToken != "" {
		subjectID, email, err := deps.VerifyAccess(accessToken)
		if err == nil {
			// Fast path: no store interaction, no rotation.
			return AuthResultData{
				SubjectID: subjectID,
				Email:     email,
			}
		}
	}

	if refreshToken == "" {
		return AuthResultData{Failure: AuthFailureMissingRefresh}
	}

	subjectID, err := deps.DecodeRefreshSubject(refreshToken)
	if err != nil {
		return AuthResultData{
			Failure: AuthFailureRefreshDecode,
			Err:     err,
		}
	}

	rec, err := deps.Store.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, deps.NotFound) {
			return AuthResultData{
				Failure:   AuthFailureSessionNotFound,
				Err:       err,
				SubjectID: subjectID,
			}
		}
		return AuthResultData{
			Failure:   AuthFailureStore,
			Err:       err,
			SubjectID: subjectID,
		}
	}
	if rec.RefreshToken != refreshToken {
		return AuthResultData{
			Failure:   AuthFailureStaleToken,
			SubjectID: subjectID,
		}
	}

	verifiedSubject, email, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		return AuthResultData{
			Failure:   AuthFailureRefreshVerify,
			Err:       err,
			SubjectID: subjectID,
		}
	}

	newAccess, err := deps.MintAccess(verifiedSubject, email)
	if err != nil {
		return AuthResultData{
			Failure:   AuthFailureMint,
			Err:       err,
			SubjectID: verifiedSubject,
		}
	}
	newRefresh, err := deps.MintRefresh(verifiedSubject, email)
	if err != nil {
		return AuthResultData{
			Failure:   AuthFailureMint,
			Err:       err,
			SubjectID: verifiedSubject,
		}
	}

	err = deps.Store.Rotate(ctx, verifiedSubject, refreshToken, newRefresh, deps.RefreshTTL())
	if err != nil {
		switch {
		case errors.Is(err, deps.Mismatch):
			// Lost the race: someone rotated between the read and the swap.
			return AuthResultData{
				Failure:   AuthFailureStaleToken,
				Err:       err,
				SubjectID: verifiedSubject,
			}
		case errors.Is(err, deps.NotFound):
			return AuthResultData{
				Failure:   AuthFailureSessionNotFound,
				Err:       err,
				SubjectID: verifiedSubject,
			}
		default:
			return AuthResultData{
				Failure:   AuthFailureStore,
				Err:       err,
				SubjectID: verifiedSubject,
			}
		}
	}

	return AuthResultData{
		Renewed:      true,
		SubjectID:    verifiedSubject,
		Email:        email,
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
	}
}
