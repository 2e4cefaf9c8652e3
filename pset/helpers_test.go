package pset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

const (
	hexG  = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	hexG2 = "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex %q: %v", s, err)
	}
	return b
}

// mapBuilder writes raw maps so tests can produce encodings the serializer never would.
type mapBuilder struct {
	w writer
}

func (m *mapBuilder) add(key, value []byte) *mapBuilder {
	m.w.writeEntry(key, value)
	return m
}

func (m *mapBuilder) bytes() []byte {
	m.w.endMap()
	return m.w.buf.Bytes()
}

func globalMap(inputs, outputs uint64) *mapBuilder {
	m := &mapBuilder{}
	return m.add(mapKey(globalTxVersion, nil), uint32Bytes(2)).
		add(mapKey(globalInputCount, nil), compactSizeBytes(inputs)).
		add(mapKey(globalOutputCount, nil), compactSizeBytes(outputs)).
		add(mapKey(globalVersion, nil), uint32Bytes(Version))
}

func inputMap() *mapBuilder {
	m := &mapBuilder{}
	return m.add(mapKey(inPreviousTxid, nil), make([]byte, 32)).
		add(mapKey(inOutputIndex, nil), uint32Bytes(0))
}

func outputMap() *mapBuilder {
	m := &mapBuilder{}
	return m.add(mapKey(outAmount, nil), uint64Bytes(1)).
		add(mapKey(outScript, nil), []byte{})
}

func psetBytes(maps ...[]byte) []byte {
	return append(append([]byte(nil), Magic...), bytes.Join(maps, nil)...)
}

func ptr[T any](v T) *T { return &v }

// samplePSET populates every field the transcoder knows about.
func samplePSET(t *testing.T) *Pset {
	t.Helper()
	g := mustHex(t, hexG)
	g2 := mustHex(t, hexG2)

	preimage := []byte("swap secret")
	sha := sha256.Sum256(preimage)
	dsha := sha256.Sum256(sha[:])

	var txid, entropy, nonce, asset, scalar [32]byte
	for i := range txid {
		txid[i] = byte(i + 1)
		entropy[i] = 0xe0
		nonce[i] = 0x0e
		asset[i] = 0xa5
		scalar[i] = 0x5c
	}
	valueCommitment := append([]byte{0x08}, bytes.Repeat([]byte{0x42}, 32)...)
	assetCommitment := append([]byte{0x0b}, bytes.Repeat([]byte{0x43}, 32)...)
	xpub := bytes.Repeat([]byte{0x04}, 78)
	origin := Derivation{Fingerprint: [4]byte{0xde, 0xad, 0xbe, 0xef}, Path: []uint32{0x80000054, 0x80000001, 0x80000000, 0, 3}}

	return &Pset{
		Global: Global{
			TxVersion:            2,
			FallbackLocktime:     ptr(uint32(500000)),
			TxModifiable:         ptr(uint8(3)),
			Xpubs:                []Xpub{{ExtendedKey: xpub, Derivation: Derivation{Fingerprint: [4]byte{1, 2, 3, 4}}}},
			Scalars:              [][32]byte{scalar},
			ElementsTxModifiable: ptr(uint8(1)),
			Proprietary:          []KeyPair{{Key: []byte("\xfc\x04xdao\x01"), Value: []byte("v")}},
			Unknown:              []KeyPair{{Key: []byte{0x10, 0x01}, Value: []byte("future")}},
		},
		Inputs: []Input{{
			PreviousTxid:           txid,
			PreviousOutputIndex:    1,
			Sequence:               ptr(uint32(0xfffffffd)),
			RequiredTimeLocktime:   ptr(uint32(600000000)),
			RequiredHeightLocktime: ptr(uint32(800000)),
			NonWitnessUtxo:         []byte{0x02, 0x00, 0x00, 0x00},
			WitnessUtxo: &TxOut{
				Asset:  ExplicitAsset(asset),
				Value:  ExplicitValue(100000000),
				Script: append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x11}, 20)...),
			},
			PartialSigs:        []PartialSig{{PubKey: g2, Signature: []byte{0x30, 0x01}}, {PubKey: g, Signature: []byte{0x30, 0x02}}},
			SighashType:        ptr(uint32(1)),
			RedeemScript:       []byte{0x51},
			WitnessScript:      []byte{0x52},
			Bip32Derivations:   []Bip32Derivation{{PubKey: g, Derivation: origin}},
			FinalScriptSig:     []byte{},
			FinalScriptWitness: [][]byte{{0x01}, {}, {0x02, 0x03}},
			Ripemd160Preimages: []Preimage{{Hash: ripemd160Sum(preimage), Preimage: preimage}},
			Sha256Preimages:    []Preimage{{Hash: sha[:], Preimage: preimage}},
			Hash160Preimages:   []Preimage{{Hash: ripemd160Sum(sha[:]), Preimage: preimage}},
			Hash256Preimages:   []Preimage{{Hash: dsha[:], Preimage: preimage}},

			IssuanceValue:           ptr(uint64(21000000)),
			IssuanceValueCommitment: valueCommitment,
			IssuanceValueRangeproof: []byte{0xbb, 0xbb},
			IssuanceInflationKeys:   ptr(uint64(1)),
			IssuanceBlindingNonce:   &nonce,
			IssuanceAssetEntropy:    &entropy,
			UtxoRangeproof:          []byte{0xaa, 0xaa, 0xaa},
			Unknown:                 []KeyPair{{Key: []byte{0x13}, Value: []byte{0x01}}},
		}},
		Outputs: []Output{
			{
				Amount:           ptr(uint64(99999000)),
				Script:           append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x22}, 20)...),
				RedeemScript:     []byte{0x53},
				WitnessScript:    []byte{0x54},
				Bip32Derivations: []Bip32Derivation{{PubKey: g2, Derivation: origin}},
				Asset:            &asset,
				BlinderIndex:     ptr(uint32(0)),
			},
			{
				Script:               []byte{0x6a},
				ValueCommitment:      valueCommitment,
				AssetCommitment:      assetCommitment,
				ValueRangeproof:      []byte{0x60, 0x33},
				AssetSurjectionProof: []byte{0x01, 0x00},
				BlindingPubKey:       g,
				EcdhPubKey:           g2,
			},
		},
	}
}
