// Package cidutil derives content identifiers for canonical PSET bytes.
//
// A PSET's text form is not stable across re-encoding, but its canonical
// binary encoding is, so identifiers are always computed over
// (*pset.Pset).Serialize output.
package cidutil

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ErrUnsupported is returned by Parse for identifiers this repo never produces.
var ErrUnsupported = errors.New("cidutil: unsupported cid")

// Sum returns the CIDv1 (raw codec, sha2-256 multihash) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns Sum(data) in its default string form.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		// multihash.Sum only errors for unknown codes or bad lengths;
		// SHA2_256 with the default length is unreachable here.
		return ""
	}
	return id.String()
}

// Parse decodes s and checks that it is a CIDv1 over the raw codec with a
// sha2-256 multihash.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	prefix := id.Prefix()
	if prefix.Version != 1 || prefix.Codec != cid.Raw || prefix.MhType != multihash.SHA2_256 {
		return cid.Undef, fmt.Errorf("%w: %s", ErrUnsupported, s)
	}
	return id, nil
}

// Matches reports whether id is the identifier of data.
func Matches(id cid.Cid, data []byte) bool {
	got, err := Sum(data)
	if err != nil {
		return false
	}
	return got.Equals(id)
}
