package gateway

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a gateway failure for retry and escalation decisions.
type Kind int

const (
	// KindTransient covers network-level failures worth retrying.
	KindTransient Kind = iota
	// KindProxy marks an unusable upstream proxy (HTTP 407), retried on a
	// larger budget than plain transient failures.
	KindProxy
	// KindMalformed marks a response with no extractable JSON payload.
	KindMalformed
	// KindAuth marks a rejected credential; never retried automatically.
	KindAuth
	// KindFatal marks a destroyed automation engine; propagates past all
	// local recovery and forces a full engine restart.
	KindFatal
	// KindValidation marks caller input rejected before any network call.
	KindValidation
)

// maxErrMsgLen bounds error text propagated out of the gateway and the
// bid placement paths.
const maxErrMsgLen = 250

// Error is a classified gateway failure.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: Truncate(fmt.Sprintf(format, args...), maxErrMsgLen)}
}

func NewTransient(format string, args ...interface{}) error {
	return newError(KindTransient, format, args...)
}

func NewProxy(format string, args ...interface{}) error {
	return newError(KindProxy, format, args...)
}

func NewMalformed(format string, args ...interface{}) error {
	return newError(KindMalformed, format, args...)
}

func NewAuth(format string, args ...interface{}) error {
	return newError(KindAuth, format, args...)
}

func NewFatal(format string, args ...interface{}) error {
	return newError(KindFatal, format, args...)
}

func NewValidation(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

// KindOf reports the classification of err; unclassified errors are
// treated as transient.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindTransient
}

// IsFatal reports whether err requires a full automation engine restart.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) == KindFatal
}

// IsAuth reports whether err means the session credentials were rejected.
func IsAuth(err error) bool {
	return err != nil && KindOf(err) == KindAuth
}

// Retryable reports whether another attempt may succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindProxy, KindMalformed:
		return true
	default:
		return false
	}
}

// Truncate bounds a message to n characters.
func Truncate(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	return msg[:n]
}
