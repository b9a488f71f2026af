package encoder

import (
	"fmt"

	"github.com/nwidger/m68kasm/diag"
)

// EncodingError carries the source span of the statement that failed to
// encode, mirroring the teacher's EncodingError (instruction + message +
// wrapped error) but keyed on a diag.Span so the driver can turn it
// straight into a diag.Diagnostic.
type EncodingError struct {
	Span    diag.Span
	Message string
	Wrapped error
}

func (e *EncodingError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *EncodingError) Unwrap() error {
	return e.Wrapped
}

// NewEncodingError creates an EncodingError with no wrapped cause.
func NewEncodingError(span diag.Span, message string) *EncodingError {
	return &EncodingError{Span: span, Message: message}
}

// WrapEncodingError wraps err with span context. If err is already an
// EncodingError it is returned unchanged; a nil err returns nil.
func WrapEncodingError(span diag.Span, err error) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EncodingError); ok {
		return ee
	}
	return &EncodingError{Span: span, Message: "failed to encode instruction", Wrapped: err}
}
