package pset

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/pset/cidutil"
)

// Equal reports whether p and o carry the same field values. Two PSETs are
// equal exactly when their canonical encodings are identical.
func (p *Pset) Equal(o *Pset) bool {
	if p == nil || o == nil {
		return p == o
	}
	return bytes.Equal(p.Serialize(), o.Serialize())
}

// ID returns the content identifier of the canonical encoding.
func (p *Pset) ID() (cid.Cid, error) {
	if p == nil {
		return cid.Undef, newError(KindRequired, "PSET-ID-001", "nil PSET")
	}
	return cidutil.Sum(p.Serialize())
}

// PreviousTxidString returns the previous txid in the conventional display
// order (byte-reversed hex).
func (in *Input) PreviousTxidString() string {
	var rev [32]byte
	for i := range in.PreviousTxid {
		rev[i] = in.PreviousTxid[31-i]
	}
	return hex.EncodeToString(rev[:])
}

// OutPoint returns "txid:vout" for the spent output.
func (in *Input) OutPoint() string {
	return fmt.Sprintf("%s:%d", in.PreviousTxidString(), in.PreviousOutputIndex)
}

// IsBlinded reports whether the output carries a value commitment.
func (out *Output) IsBlinded() bool {
	return out.ValueCommitment != nil
}
