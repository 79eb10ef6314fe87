package authgate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventAccessRejected  = "access_rejected"
	auditEventRefreshSuccess  = "refresh_success"
	auditEventRefreshInvalid  = "refresh_invalid"
	auditEventStaleTokenReuse = "stale_token_reuse"
	auditEventStoreFailure    = "store_failure"
	auditEventIssueSuccess    = "issue_success"
	auditEventIssueFailure    = "issue_failure"
)

// AuditErrorCode is the coarse error label attached to audit events. It never
// carries signature or parser internals.
type AuditErrorCode string

const (
	auditErrMissingCredentials AuditErrorCode = "missing_credentials"
	auditErrRefreshExpired     AuditErrorCode = "refresh_expired"
	auditErrStaleToken         AuditErrorCode = "stale_token"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrStoreUnavailable   AuditErrorCode = "store_unavailable"
	auditErrIssueFailed        AuditErrorCode = "issue_failed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity Identity,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    identity.SubjectID,
		Email:     identity.Email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingAccessToken),
		errors.Is(err, ErrMissingRefreshToken):
		return auditErrMissingCredentials
	case errors.Is(err, ErrRefreshTokenExpired):
		return auditErrRefreshExpired
	case errors.Is(err, ErrStaleRefreshToken):
		return auditErrStaleToken
	case errors.Is(err, ErrUnknownSession):
		return auditErrSessionNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrTokenIssueFailed):
		return auditErrIssueFailed
	default:
		return auditErrInternal
	}
}
