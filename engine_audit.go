package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/skulipro/authcore/credential"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventOTPSent            = "otp_sent"
	auditEventOTPVerifySuccess   = "otp_verify_success"
	auditEventOTPVerifyFailure   = "otp_verify_failure"
	auditEventOTPResend          = "otp_resend"
	auditEventLogout             = "logout"
	auditEventLinkIssued         = "action_link_issued"
	auditEventLinkConsumed       = "action_link_consumed"
	auditEventLinkReplay         = "action_link_replay"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

// AuditErrorCode is the stable error label written into audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrGenerationCapped   AuditErrorCode = "otp_generation_capped"
	auditErrOTPExpired         AuditErrorCode = "otp_not_found_or_expired"
	auditErrOTPExhausted       AuditErrorCode = "otp_exhausted"
	auditErrOTPMismatch        AuditErrorCode = "otp_mismatch"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrTokenRevoked       AuditErrorCode = "token_revoked"
	auditErrNoRole             AuditErrorCode = "no_role_assigned"
	auditErrRoleNotAllowed     AuditErrorCode = "role_not_allowed"
	auditErrNotifier           AuditErrorCode = "notifier_failed"
	auditErrSessionExists      AuditErrorCode = "session_already_exists"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	tenantID string,
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
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		TenantID:  tenantID,
		RequestID: requestIDFromContext(ctx),
		ClientKey: ClientKeyFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// auditErrorCode classifies both root sentinels and component errors, since
// flows emit before the engine maps their result.
func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}
	if errors.Is(err, credential.ErrInvalidCredentials) {
		return auditErrInvalidCredentials
	}

	switch KindOf(mapError(err)) {
	case KindInvalidCredentials:
		return auditErrInvalidCredentials
	case KindRateLimited:
		return auditErrRateLimited
	case KindGenerationCapped:
		return auditErrGenerationCapped
	case KindOTPNotFoundOrExpired:
		return auditErrOTPExpired
	case KindOTPExhausted:
		return auditErrOTPExhausted
	case KindOTPMismatch:
		return auditErrOTPMismatch
	case KindTokenInvalid:
		return auditErrInvalidToken
	case KindTokenRevoked:
		return auditErrTokenRevoked
	case KindNoRoleAssigned:
		return auditErrNoRole
	case KindRoleNotAllowed:
		return auditErrRoleNotAllowed
	case KindNotifierFailed:
		return auditErrNotifier
	case KindSessionAlreadyExists:
		return auditErrSessionExists
	case KindStoreUnavailable:
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

// AuditDropped returns the number of audit events dropped for backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) closeAudit(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.audit.Close(ctx)
}
