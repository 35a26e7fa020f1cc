package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed generation call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCredentialMissing
	KindCredentialInvalid
	KindServiceUnavailable
	KindContentBlocked
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredentialMissing:
		return "credential_missing"
	case KindCredentialInvalid:
		return "credential_invalid"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindContentBlocked:
		return "content_blocked"
	default:
		return "unknown"
	}
}

// GenerationError is returned by every LLMClient failure.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return "generation failed: " + e.Kind.String()
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, msg)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewError builds a GenerationError of the given kind.
func NewError(kind ErrorKind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// IsContentBlocked reports whether err is a safety-filter suppression.
func IsContentBlocked(err error) bool {
	return err != nil && KindOf(err) == KindContentBlocked
}

// classifyStatus maps an HTTP status from a provider into an ErrorKind.
func classifyStatus(code int, message string) ErrorKind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindCredentialInvalid
	case code == http.StatusBadRequest && looksLikeKeyProblem(message):
		return KindCredentialInvalid
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= 500:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

func looksLikeKeyProblem(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "api key") || strings.Contains(m, "api_key")
}

// classifyTransport covers failures that never produced an HTTP status.
func classifyTransport(err error) (ErrorKind, bool) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindServiceUnavailable, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindServiceUnavailable, true
	}
	return KindUnknown, false
}
