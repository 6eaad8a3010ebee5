package generation

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnsupportedProvider  Kind = "unsupported_provider"
	KindCredentialMissing    Kind = "credential_missing"
	KindProviderRejected     Kind = "provider_rejected"
	KindMalformedResponse    Kind = "malformed_response"
	KindTransport            Kind = "transport"
	KindTransientPollFailure Kind = "transient_poll_failure"
	KindJobFailed            Kind = "job_failed"
	KindTimeout              Kind = "timeout"
)

// Error is the typed failure outcome of a dispatch, submit or poll.
// Status carries the HTTP status for ProviderRejected and the wire status
// token for JobFailed.
type Error struct {
	Kind       Kind
	ProviderID string
	Status     string
	Message    string
	Err        error
}

var (
	ErrUnsupportedProvider  = &Error{Kind: KindUnsupportedProvider}
	ErrCredentialMissing    = &Error{Kind: KindCredentialMissing}
	ErrProviderRejected     = &Error{Kind: KindProviderRejected}
	ErrMalformedResponse    = &Error{Kind: KindMalformedResponse}
	ErrTransport            = &Error{Kind: KindTransport}
	ErrTransientPollFailure = &Error{Kind: KindTransientPollFailure}
	ErrJobFailed            = &Error{Kind: KindJobFailed}
	ErrTimeout              = &Error{Kind: KindTimeout}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.ProviderID != "" {
		msg = e.ProviderID + ": " + msg
	}
	if e.Status != "" {
		msg += " (" + e.Status + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers can match against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind Kind, providerID, message string) *Error {
	return &Error{Kind: kind, ProviderID: providerID, Message: message}
}

func Unsupported(providerID string) *Error {
	return NewError(KindUnsupportedProvider, providerID, "provider not supported")
}

func CredentialMissing(providerID, slot string) *Error {
	return NewError(KindCredentialMissing, providerID, fmt.Sprintf("no credential in slot %q", slot))
}

func Rejected(providerID string, status int, message string) *Error {
	return &Error{Kind: KindProviderRejected, ProviderID: providerID, Status: fmt.Sprintf("%d", status), Message: message}
}

func Malformed(providerID, message string) *Error {
	return NewError(KindMalformedResponse, providerID, message)
}

func Transport(providerID string, err error) *Error {
	return &Error{Kind: KindTransport, ProviderID: providerID, Err: err}
}

func JobFailed(providerID, status string) *Error {
	return &Error{Kind: KindJobFailed, ProviderID: providerID, Status: status}
}

func Timeout(providerID, message string) *Error {
	return NewError(KindTimeout, providerID, message)
}

// KindOf returns the kind of err, or "" when err is not a generation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether a caller may reasonably re-issue the call:
// transport failures, 429 and 5xx rejections.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindTransport, KindTransientPollFailure:
		return true
	case KindProviderRejected:
		return e.Status == "429" || (len(e.Status) == 3 && e.Status[0] == '5')
	}
	return false
}
