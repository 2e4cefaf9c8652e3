package storage

import "errors"

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")
	ErrNilPSET     = errors.New("storage: nil PSET")

	// ErrCorrupt wraps the decode error of stored or transferred bytes that
	// no longer form a valid PSET.
	ErrCorrupt = errors.New("storage: corrupt PSET")

	// ErrRejected wraps a remote refusal of uploaded PSET text.
	ErrRejected = errors.New("storage: PSET text rejected")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
