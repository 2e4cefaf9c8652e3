package pset

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindWire     Kind = "Wire"
	KindMagic    Kind = "Magic"
	KindMap      Kind = "Map"
	KindValue    Kind = "Value"
	KindRequired Kind = "Required"
	KindVersion  Kind = "Version"
)

// Error is the transcoder's structured error type.
//
// RuleID is a stable identifier (e.g., PSET-WIRE-001, PSET-MAP-001, PSET-VAL-002)
// naming the violated encoding rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

const (
	ruleTruncated        = "PSET-WIRE-001"
	ruleNonMinimal       = "PSET-WIRE-002"
	ruleTrailing         = "PSET-WIRE-003"
	ruleMagic            = "PSET-MAGIC-001"
	ruleDuplicateKey     = "PSET-MAP-001"
	ruleKeyData          = "PSET-MAP-002"
	ruleProprietaryKey   = "PSET-MAP-003"
	ruleValueLength      = "PSET-VAL-001"
	rulePubKey           = "PSET-VAL-002"
	rulePreimage         = "PSET-VAL-003"
	ruleConfidential     = "PSET-VAL-004"
	ruleDerivation       = "PSET-VAL-005"
	ruleValueTrailing    = "PSET-VAL-006"
	ruleMissingTxVersion = "PSET-REQ-001"
	ruleMissingInCount   = "PSET-REQ-002"
	ruleMissingOutCount  = "PSET-REQ-003"
	ruleMissingVersion   = "PSET-REQ-004"
	ruleMissingPrevTxid  = "PSET-REQ-005"
	ruleMissingPrevIndex = "PSET-REQ-006"
	ruleMissingScript    = "PSET-REQ-007"
	ruleMissingAmount    = "PSET-REQ-008"
	ruleVersion          = "PSET-VER-001"
)
