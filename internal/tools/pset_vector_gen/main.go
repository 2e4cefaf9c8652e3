// Command pset_vector_gen prints the canonical swap-offer vector used by
// psettext/testdata/swap_offer.canonical.base64, with its CID.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"xdao.co/pset/pset"
	"xdao.co/pset/psettext"
)

const lbtc = "6f0279e9ed041c3d710a9f57d0c02928416460c4b722ae3457a11eec381c526d"

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func ptr[T any](v T) *T { return &v }

func main() {
	var asset, txid [32]byte
	copy(asset[:], mustHex(lbtc))
	for i := range txid {
		txid[i] = byte(i + 1)
	}
	path := func(last uint32) pset.Derivation {
		return pset.Derivation{
			Fingerprint: [4]byte{0xde, 0xad, 0xbe, 0xef},
			Path:        []uint32{0x80000054, 0x80000001, 0x80000000, 0, last},
		}
	}

	p := &pset.Pset{
		Global: pset.Global{
			TxVersion:        2,
			FallbackLocktime: ptr(uint32(0)),
			TxModifiable:     ptr(uint8(3)),
			Proprietary: []pset.KeyPair{{
				Key:   []byte("\xfc\x04xdao\x01"),
				Value: []byte("coordinator-1"),
			}},
		},
		Inputs: []pset.Input{{
			PreviousTxid:        txid,
			PreviousOutputIndex: 1,
			Sequence:            ptr(uint32(0xffffffff)),
			SighashType:         ptr(uint32(1)),
			WitnessUtxo: &pset.TxOut{
				Asset:  pset.ExplicitAsset(asset),
				Value:  pset.ExplicitValue(100000000),
				Script: append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x11}, 20)...),
			},
			Bip32Derivations: []pset.Bip32Derivation{
				{PubKey: mustHex("02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"), Derivation: path(7)},
				{PubKey: mustHex("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"), Derivation: path(3)},
			},
			UtxoRangeproof: bytes.Repeat([]byte{0xaa}, 16),
		}},
		Outputs: []pset.Output{
			{
				Amount: ptr(uint64(99999000)),
				Script: append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x22}, 20)...),
				Asset:  &asset,
			},
			{
				Amount: ptr(uint64(1000)),
				Script: []byte{},
				Asset:  &asset,
			},
		},
	}

	text := psettext.Render(p)
	if _, err := psettext.Parse(text); err != nil {
		panic(err)
	}
	id, err := p.ID()
	if err != nil {
		panic(err)
	}

	fmt.Printf("CID=%s\n", id)
	fmt.Printf("---BEGIN---\n%s\n---END---\n", text)
}
