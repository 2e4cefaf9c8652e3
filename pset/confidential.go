package pset

import "encoding/binary"

// Confidential field prefixes.
const (
	prefixNull        = 0x00
	prefixExplicit    = 0x01
	prefixValueEven   = 0x08
	prefixValueOdd    = 0x09
	prefixAssetEven   = 0x0a
	prefixAssetOdd    = 0x0b
	prefixNonceEven   = 0x02
	prefixNonceOdd    = 0x03
	commitmentSize    = 33
	explicitValueSize = 9
)

// Asset is a confidential asset in wire form: nil (null), 0x01 followed by a
// 32-byte asset id, or a 33-byte commitment with prefix 0x0a/0x0b.
type Asset []byte

// Value is a confidential value in wire form: nil (null), 0x01 followed by an
// 8-byte big-endian amount, or a 33-byte commitment with prefix 0x08/0x09.
type Value []byte

// Nonce is a confidential nonce in wire form: nil (null), or 33 bytes with
// prefix 0x01, 0x02 or 0x03.
type Nonce []byte

// ExplicitAsset returns the explicit encoding of an asset id.
func ExplicitAsset(id [32]byte) Asset {
	a := make(Asset, 0, commitmentSize)
	a = append(a, prefixExplicit)
	return append(a, id[:]...)
}

// Explicit returns the asset id when the asset is not blinded.
func (a Asset) Explicit() ([32]byte, bool) {
	var id [32]byte
	if len(a) != commitmentSize || a[0] != prefixExplicit {
		return id, false
	}
	copy(id[:], a[1:])
	return id, true
}

// IsConfidential reports whether the asset is a commitment.
func (a Asset) IsConfidential() bool {
	return len(a) == commitmentSize && (a[0] == prefixAssetEven || a[0] == prefixAssetOdd)
}

// ExplicitValue returns the explicit encoding of an amount.
func ExplicitValue(amount uint64) Value {
	v := make(Value, explicitValueSize)
	v[0] = prefixExplicit
	binary.BigEndian.PutUint64(v[1:], amount)
	return v
}

// Explicit returns the amount when the value is not blinded.
func (v Value) Explicit() (uint64, bool) {
	if len(v) != explicitValueSize || v[0] != prefixExplicit {
		return 0, false
	}
	return binary.BigEndian.Uint64(v[1:]), true
}

// IsConfidential reports whether the value is a commitment.
func (v Value) IsConfidential() bool {
	return len(v) == commitmentSize && (v[0] == prefixValueEven || v[0] == prefixValueOdd)
}

// assetLen, valueLen and nonceLen return the encoded length of a field whose
// first byte is prefix, or 0 when prefix is not valid for that field.
func assetLen(prefix byte) int {
	switch prefix {
	case prefixNull:
		return 1
	case prefixExplicit, prefixAssetEven, prefixAssetOdd:
		return commitmentSize
	}
	return 0
}

func valueLen(prefix byte) int {
	switch prefix {
	case prefixNull:
		return 1
	case prefixExplicit:
		return explicitValueSize
	case prefixValueEven, prefixValueOdd:
		return commitmentSize
	}
	return 0
}

func nonceLen(prefix byte) int {
	switch prefix {
	case prefixNull:
		return 1
	case prefixExplicit, prefixNonceEven, prefixNonceOdd:
		return commitmentSize
	}
	return 0
}

// isCommitment reports whether b is a 33-byte commitment with one of the given prefixes.
func isCommitment(b []byte, even, odd byte) bool {
	return len(b) == commitmentSize && (b[0] == even || b[0] == odd)
}
