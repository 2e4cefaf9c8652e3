package psettext

import "errors"

// Kind names the layer that rejected a text.
type Kind string

const (
	// KindEnvelope: the text is not valid padded standard base64.
	KindEnvelope Kind = "Base64"
	// KindTranscode: the envelope decoded, but its bytes are not a valid PSET.
	KindTranscode Kind = "Deserialize"
)

// ParseError is returned by Parse. Exactly one layer failed: Kind says which,
// and Cause is that layer's own error, unchanged.
//
// Error() is a short stable label; the diagnostic lives in Cause. Use
// errors.As to get at it, or Detail for a one-line rendering of both.
type ParseError struct {
	Kind  Kind
	Cause error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindEnvelope:
		return "Base64 error"
	case KindTranscode:
		return "Deserialize error"
	default:
		return "parse error"
	}
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsEnvelope reports whether err is (or wraps) a ParseError from the base64 layer.
func IsEnvelope(err error) bool { return isKind(err, KindEnvelope) }

// IsTranscode reports whether err is (or wraps) a ParseError from the binary layer.
func IsTranscode(err error) bool { return isKind(err, KindTranscode) }

func isKind(err error, kind Kind) bool {
	var e *ParseError
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Detail renders err with its cause, e.g. "Base64 error: illegal base64 data
// at input byte 4". Errors that are not ParseErrors render as err.Error().
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var e *ParseError
	if !errors.As(err, &e) || e.Cause == nil {
		return err.Error()
	}
	return e.Error() + ": " + e.Cause.Error()
}
