package authcore

import (
	"math"
	"net/http"
	"time"
)

// Result is the envelope every produced operation maps to. Failures carry a
// caller-safe message only; internal causes stay in logs and audit events.
type Result struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	Kind       ErrorKind     `json:"kind,omitempty"`
	Payload    any           `json:"data,omitempty"`
	RetryAfter time.Duration `json:"-"`
}

var kindMessages = map[ErrorKind]string{
	KindRateLimited:          "Too many requests, please try again later",
	KindInvalidCredentials:   "Invalid username or password",
	KindOTPNotFoundOrExpired: "Please clear your cookies and login again",
	KindOTPExhausted:         "Too many attempts, please login again",
	KindOTPMismatch:          "Invalid OTP",
	KindGenerationCapped:     "OTP limit reached, please try again later",
	KindTokenInvalid:         "Invalid or expired token",
	KindTokenRevoked:         "Token has already been used",
	KindStoreUnavailable:     "Something went wrong, please try again",
	KindNotifierFailed:       "Failed to send message, please try again",
	KindSessionAlreadyExists: "Session already exist",
	KindNoRoleAssigned:       "No role assigned to this account",
	KindRoleNotAllowed:       "Role is not allowed",
	KindValidation:           "Invalid request",
}

var kindStatus = map[ErrorKind]int{
	KindNone:                 http.StatusOK,
	KindRateLimited:          http.StatusTooManyRequests,
	KindGenerationCapped:     http.StatusTooManyRequests,
	KindInvalidCredentials:   http.StatusUnauthorized,
	KindOTPNotFoundOrExpired: http.StatusUnauthorized,
	KindOTPExhausted:         http.StatusUnauthorized,
	KindOTPMismatch:          http.StatusUnauthorized,
	KindTokenInvalid:         http.StatusUnauthorized,
	KindTokenRevoked:         http.StatusUnauthorized,
	KindSessionAlreadyExists: http.StatusAlreadyReported,
	KindNoRoleAssigned:       http.StatusForbidden,
	KindRoleNotAllowed:       http.StatusBadRequest,
	KindValidation:           http.StatusBadRequest,
	KindNotifierFailed:       http.StatusBadGateway,
	KindStoreUnavailable:     http.StatusInternalServerError,
}

type resultMessenger interface {
	resultMessage() string
}

// ResultOf maps an operation outcome onto the envelope.
func ResultOf(payload any, err error) Result {
	if err != nil {
		kind := KindOf(err)
		return Result{
			Success:    false,
			Message:    kindMessages[kind],
			Kind:       kind,
			RetryAfter: RetryAfter(err),
		}
	}

	msg := "OK"
	if m, ok := payload.(resultMessenger); ok {
		msg = m.resultMessage()
	}
	return Result{Success: true, Message: msg, Payload: payload}
}

// HTTPStatus returns the recommended response status.
func (r Result) HTTPStatus() int {
	if r.Success {
		return http.StatusOK
	}
	if status, ok := kindStatus[r.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RetryAfterSeconds returns the Retry-After header value, rounded up. Zero
// means the header should be omitted.
func (r Result) RetryAfterSeconds() int {
	if r.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(r.RetryAfter.Seconds()))
}
