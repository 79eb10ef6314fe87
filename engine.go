package authgate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aryadevs/authgate/credential"
	internalaudit "github.com/aryadevs/authgate/internal/audit"
	"github.com/aryadevs/authgate/internal/flows"
	"github.com/aryadevs/authgate/token"
)

// Engine is the session authenticator: a pure function of its inputs plus the
// credential store, safe for concurrent use after [Builder.Build].
type Engine struct {
	config  Config
	access  *token.Codec
	refresh *token.Codec
	store   credential.Store
	flows   flows.Service
	audit   *internalaudit.Dispatcher
	metrics *Metrics
	log     zerolog.Logger
}

func (e *Engine) flowDeps() flows.Deps {
	verify := func(codec *token.Codec) func(string) (string, string, error) {
		return func(tokenStr string) (string, string, error) {
			claims, err := codec.Verify(tokenStr)
			if err != nil {
				return "", "", err
			}
			return claims.Subject, claims.Email, nil
		}
	}

	return flows.Deps{
		Authenticate: flows.AuthenticateDeps{
			VerifyAccess:         verify(e.access),
			VerifyRefresh:        verify(e.refresh),
			DecodeRefreshSubject: token.DecodeSubjectUnverified,
			MintAccess:           e.access.Sign,
			MintRefresh:          e.refresh.Sign,
			RefreshTTL:           e.refresh.TTL,
			Store:                e.store,
			NotFound:             credential.ErrNotFound,
			Mismatch:             credential.ErrTokenMismatch,
		},
		Issue: flows.IssueDeps{
			MintAccess:  e.access.Sign,
			MintRefresh: e.refresh.Sign,
			RefreshTTL:  e.refresh.TTL,
			Store:       e.store,
		},
	}
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// GateConfig returns the middleware-facing configuration slice.
func (e *Engine) GateConfig() GateConfig {
	if e == nil {
		return GateConfig{}
	}
	cfg := e.config.Gate
	cfg.PublicPrefixes = append([]string(nil), cfg.PublicPrefixes...)
	return cfg
}

// RefreshTTL reports the configured refresh token lifetime. The middleware
// uses it to bound the refresh cookie's lifetime to the token's.
func (e *Engine) RefreshTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Token.RefreshTTL
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate decides accept, renew, or reject for the credentials carried by
// one request.
//
// A valid access token is accepted on the fast path with no store interaction.
// Otherwise the refresh path runs: the stored current token must byte-exactly
// match the presented one, the signature and expiry must verify, and the
// stored token is atomically rotated to a new value. On [OutcomeRotated] the
// returned pair must be delivered back to the caller.
//
// All rejections are terminal for the request; only [ErrStoreUnavailable]
// represents a transient dependency failure eligible for caller-side retry.
func (e *Engine) Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	if t := e.config.Session.StoreTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	start := time.Now()
	res := e.flows.Authenticate(ctx, creds.AccessToken, creds.RefreshToken)
	if e.metrics != nil {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	identity := Identity{SubjectID: res.SubjectID, Email: res.Email}

	switch res.Failure {
	case flows.AuthFailureNone:
		if !res.Renewed {
			e.metricInc(MetricAccessValid)
			return &AuthResult{
				Identity: identity,
				Outcome:  OutcomeAccessValid,
			}, nil
		}

		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, identity, nil, nil)
		return &AuthResult{
			Identity: identity,
			Outcome:  OutcomeRotated,
			Tokens: TokenPair{
				AccessToken:  res.AccessToken,
				RefreshToken: res.RefreshToken,
			},
		}, nil

	case flows.AuthFailureMissingAccess:
		e.metricInc(MetricMissingCredentials)
		e.emitAudit(ctx, auditEventAccessRejected, false, identity, ErrMissingAccessToken, nil)
		return nil, ErrMissingAccessToken

	case flows.AuthFailureMissingRefresh:
		e.metricInc(MetricMissingCredentials)
		e.emitAudit(ctx, auditEventAccessRejected, false, identity, ErrMissingRefreshToken, nil)
		return nil, ErrMissingRefreshToken

	case flows.AuthFailureRefreshDecode, flows.AuthFailureRefreshVerify:
		e.metricInc(MetricRefreshFailure)
		e.log.Debug().Err(res.Err).Msg("refresh token rejected")
		e.emitAudit(ctx, auditEventRefreshInvalid, false, identity, ErrRefreshTokenExpired, nil)
		return nil, ErrRefreshTokenExpired

	case flows.AuthFailureSessionNotFound:
		e.metricInc(MetricSessionNotFound)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, identity, ErrUnknownSession, nil)
		return nil, ErrUnknownSession

	case flows.AuthFailureStaleToken:
		e.metricInc(MetricStaleTokenRejected)
		e.log.Warn().Str("user_id", res.SubjectID).Msg("rotated-out refresh token presented")
		e.emitAudit(ctx, auditEventStaleTokenReuse, false, identity, ErrStaleRefreshToken, nil)
		return nil, ErrStaleRefreshToken

	case flows.AuthFailureMint:
		e.metricInc(MetricIssueFailure)
		e.log.Error().Err(res.Err).Str("user_id", res.SubjectID).Msg("token minting failed during refresh")
		e.emitAudit(ctx, auditEventIssueFailure, false, identity, ErrTokenIssueFailed, nil)
		return nil, ErrTokenIssueFailed

	default: // flows.AuthFailureStore and anything unclassified: fail closed.
		e.metricInc(MetricStoreUnavailable)
		e.log.Error().Err(res.Err).Str("user_id", res.SubjectID).Msg("credential store unavailable")
		e.emitAudit(ctx, auditEventStoreFailure, false, identity, ErrStoreUnavailable, nil)
		return nil, ErrStoreUnavailable
	}
}

// Issue mints an access+refresh pair for an already-verified identity and
// stores the refresh token as the user's single current credential. Callers
// invoke it after login or activation once the credential has been verified
// by their own means.
func (e *Engine) Issue(ctx context.Context, identity Identity) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}
	if identity.SubjectID == "" {
		return TokenPair{}, ErrTokenIssueFailed
	}

	if t := e.config.Session.StoreTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	res := e.flows.Issue(ctx, identity.SubjectID, identity.Email)
	switch res.Failure {
	case flows.IssueFailureNone:
		e.metricInc(MetricIssueSuccess)
		e.emitAudit(ctx, auditEventIssueSuccess, true, identity, nil, nil)
		return TokenPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		}, nil

	case flows.IssueFailureStore:
		e.metricInc(MetricStoreUnavailable)
		e.log.Error().Err(res.Err).Str("user_id", identity.SubjectID).Msg("credential store unavailable during issuance")
		e.emitAudit(ctx, auditEventStoreFailure, false, identity, ErrStoreUnavailable, nil)
		return TokenPair{}, ErrStoreUnavailable

	default:
		e.metricInc(MetricIssueFailure)
		e.log.Error().Err(res.Err).Str("user_id", identity.SubjectID).Msg("token minting failed")
		e.emitAudit(ctx, auditEventIssueFailure, false, identity, ErrTokenIssueFailed, nil)
		return TokenPair{}, ErrTokenIssueFailed
	}
}
