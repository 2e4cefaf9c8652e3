package pset

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDeserialize_Minimal(t *testing.T) {
	b := psetBytes(globalMap(1, 1).bytes(), inputMap().bytes(), outputMap().bytes())
	p, err := Deserialize(b)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if p.Global.TxVersion != 2 || len(p.Inputs) != 1 || len(p.Outputs) != 1 {
		t.Fatalf("unexpected shape: %+v", p.Global)
	}
	if !bytes.Equal(p.Serialize(), b) {
		t.Fatalf("minimal PSET should already be canonical")
	}
}

func TestDeserialize_ErrorTaxonomy(t *testing.T) {
	g := mustHex(t, hexG)
	notAPoint := append([]byte{0x02}, bytes.Repeat([]byte{0xff}, 32)...)

	cases := []struct {
		name   string
		input  []byte
		kind   Kind
		ruleID string
		where  string
	}{
		{name: "empty", input: nil, kind: KindMagic, ruleID: "PSET-MAGIC-001"},
		{name: "psbt magic", input: []byte("psbt\xff"), kind: KindMagic, ruleID: "PSET-MAGIC-001"},
		{name: "magic only", input: psetBytes(), kind: KindWire, ruleID: "PSET-WIRE-001"},
		{
			name:   "duplicate global key",
			input:  psetBytes(globalMap(0, 0).add(mapKey(globalTxVersion, nil), uint32Bytes(2)).bytes()),
			kind:   KindMap,
			ruleID: "PSET-MAP-001",
			where:  "global map",
		},
		{
			name: "missing tx version",
			input: psetBytes((&mapBuilder{}).
				add(mapKey(globalInputCount, nil), []byte{0}).
				add(mapKey(globalOutputCount, nil), []byte{0}).
				add(mapKey(globalVersion, nil), uint32Bytes(2)).bytes()),
			kind:   KindRequired,
			ruleID: "PSET-REQ-001",
		},
		{
			name: "missing version",
			input: psetBytes((&mapBuilder{}).
				add(mapKey(globalTxVersion, nil), uint32Bytes(2)).
				add(mapKey(globalInputCount, nil), []byte{0}).
				add(mapKey(globalOutputCount, nil), []byte{0}).bytes()),
			kind:   KindRequired,
			ruleID: "PSET-REQ-004",
		},
		{
			name: "version 0",
			input: psetBytes((&mapBuilder{}).
				add(mapKey(globalTxVersion, nil), uint32Bytes(2)).
				add(mapKey(globalInputCount, nil), []byte{0}).
				add(mapKey(globalOutputCount, nil), []byte{0}).
				add(mapKey(globalVersion, nil), uint32Bytes(0)).bytes()),
			kind:   KindVersion,
			ruleID: "PSET-VER-001",
		},
		{
			name:   "non-minimal key length",
			input:  append(psetBytes(), 0xfd, 0x01, 0x00, 0x02),
			kind:   KindWire,
			ruleID: "PSET-WIRE-002",
		},
		{
			name:   "short fallback locktime",
			input:  psetBytes(globalMap(0, 0).add(mapKey(globalFallbackLocktime, nil), []byte{0, 0, 0}).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-001",
		},
		{
			name:   "xpub key length",
			input:  psetBytes(globalMap(0, 0).add(mapKey(globalXpub, []byte{0x04}), []byte{1, 2, 3, 4}).bytes()),
			kind:   KindMap,
			ruleID: "PSET-MAP-002",
		},
		{
			name:   "malformed proprietary key",
			input:  psetBytes(globalMap(0, 0).add([]byte{0xfc, 0x09, 'p'}, nil).bytes()),
			kind:   KindMap,
			ruleID: "PSET-MAP-003",
		},
		{
			name:   "missing input maps",
			input:  psetBytes(globalMap(2, 0).bytes(), inputMap().bytes()),
			kind:   KindWire,
			ruleID: "PSET-WIRE-001",
			where:  "input 1",
		},
		{
			name:   "missing previous txid",
			input:  psetBytes(globalMap(1, 0).bytes(), (&mapBuilder{}).add(mapKey(inOutputIndex, nil), uint32Bytes(0)).bytes()),
			kind:   KindRequired,
			ruleID: "PSET-REQ-005",
			where:  "input 0",
		},
		{
			name:   "missing output index",
			input:  psetBytes(globalMap(1, 0).bytes(), (&mapBuilder{}).add(mapKey(inPreviousTxid, nil), make([]byte, 32)).bytes()),
			kind:   KindRequired,
			ruleID: "PSET-REQ-006",
		},
		{
			name:   "partial sig with invalid pubkey",
			input:  psetBytes(globalMap(1, 0).bytes(), inputMap().add(mapKey(inPartialSig, notAPoint), []byte{0x30}).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-002",
		},
		{
			name:   "preimage mismatch",
			input:  psetBytes(globalMap(1, 0).bytes(), inputMap().add(mapKey(inSha256, make([]byte, 32)), []byte("x")).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-003",
		},
		{
			name:   "preimage hash length",
			input:  psetBytes(globalMap(1, 0).bytes(), inputMap().add(mapKey(inHash160, make([]byte, 32)), []byte("x")).bytes()),
			kind:   KindMap,
			ruleID: "PSET-MAP-002",
		},
		{
			name:   "witness utxo bad asset prefix",
			input:  psetBytes(globalMap(1, 0).bytes(), inputMap().add(mapKey(inWitnessUtxo, nil), []byte{0x07}).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-004",
		},
		{
			name:   "witness utxo trailing bytes",
			input:  psetBytes(globalMap(1, 0).bytes(), inputMap().add(mapKey(inWitnessUtxo, nil), []byte{0x00, 0x00, 0x00, 0x00, 0xff}).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-006",
		},
		{
			name:   "derivation length",
			input:  psetBytes(globalMap(1, 0).bytes(), inputMap().add(mapKey(inBip32Derivation, g), []byte{1, 2, 3, 4, 5}).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-005",
		},
		{
			name:   "issuance commitment prefix",
			input:  psetBytes(globalMap(1, 0).bytes(), inputMap().add(elementsKey(elementsInIssuanceValueCommitment, nil), append([]byte{0x0a}, make([]byte, 32)...)).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-004",
		},
		{
			name:   "output missing script",
			input:  psetBytes(globalMap(0, 1).bytes(), (&mapBuilder{}).add(mapKey(outAmount, nil), uint64Bytes(1)).bytes()),
			kind:   KindRequired,
			ruleID: "PSET-REQ-007",
			where:  "output 0",
		},
		{
			name:   "output missing amount",
			input:  psetBytes(globalMap(0, 1).bytes(), (&mapBuilder{}).add(mapKey(outScript, nil), []byte{}).bytes()),
			kind:   KindRequired,
			ruleID: "PSET-REQ-008",
		},
		{
			name:   "blinding pubkey uncompressed length",
			input:  psetBytes(globalMap(0, 1).bytes(), outputMap().add(elementsKey(elementsOutBlindingPubKey, nil), g[:32]).bytes()),
			kind:   KindValue,
			ruleID: "PSET-VAL-001",
		},
		{
			name:   "trailing bytes",
			input:  append(psetBytes(globalMap(0, 0).bytes()), 0x00),
			kind:   KindWire,
			ruleID: "PSET-WIRE-003",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Deserialize(tc.input)
			if err == nil {
				t.Fatalf("expected error")
			}
			if p != nil {
				t.Fatalf("expected no PSET on failure")
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected structured *pset.Error, got %T", err)
			}
			if e.Kind != tc.kind {
				t.Fatalf("expected %s, got %s (%v)", tc.kind, e.Kind, err)
			}
			if e.RuleID != tc.ruleID {
				t.Fatalf("expected RuleID %s, got %s (%v)", tc.ruleID, e.RuleID, err)
			}
			if !IsKind(err, tc.kind) || RuleID(err) != tc.ruleID {
				t.Fatalf("IsKind/RuleID helpers disagree with errors.As")
			}
			if tc.where != "" && !strings.HasPrefix(err.Error(), tc.where+": ") {
				t.Fatalf("expected message located at %q, got %q", tc.where, err.Error())
			}
		})
	}
}

func TestDeserialize_InvalidPubKeyKeepsCause(t *testing.T) {
	notAPoint := append([]byte{0x02}, bytes.Repeat([]byte{0xff}, 32)...)
	b := psetBytes(globalMap(1, 0).bytes(), inputMap().add(mapKey(inPartialSig, notAPoint), []byte{0x30}).bytes())
	_, err := Deserialize(b)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Unwrap() == nil {
		t.Fatalf("expected secp256k1 cause to be preserved")
	}
}

func TestDeserialize_PreservesUnknownAndProprietary(t *testing.T) {
	foreign := []byte("\xfc\x04xdao\x07key")
	unknownElements := elementsKey(0x7f, nil)
	b := psetBytes(
		globalMap(0, 1).add([]byte{0x20, 0xaa}, []byte("later")).bytes(),
		outputMap().add(foreign, []byte("meta")).add(unknownElements, []byte{0x01}).bytes(),
	)
	p, err := Deserialize(b)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(p.Global.Unknown) != 1 || !bytes.Equal(p.Global.Unknown[0].Value, []byte("later")) {
		t.Fatalf("global unknown not preserved: %+v", p.Global.Unknown)
	}
	if len(p.Outputs[0].Proprietary) != 2 {
		t.Fatalf("expected 2 proprietary entries, got %d", len(p.Outputs[0].Proprietary))
	}
	again, err := Deserialize(p.Serialize())
	if err != nil {
		t.Fatalf("Deserialize(Serialize): %v", err)
	}
	if !again.Equal(p) {
		t.Fatalf("unknown entries lost across round trip")
	}
}

func TestDeserialize_NeverAcceptsTruncation(t *testing.T) {
	full := samplePSET(t).Serialize()
	for n := 0; n < len(full); n++ {
		if _, err := Deserialize(full[:n]); err == nil {
			t.Fatalf("prefix of length %d accepted", n)
		}
	}
}

func TestDeserialize_DoesNotRetainInput(t *testing.T) {
	b := samplePSET(t).Serialize()
	p, err := Deserialize(b)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	want := p.Serialize()
	for i := range b {
		b[i] = 0
	}
	if !bytes.Equal(p.Serialize(), want) {
		t.Fatalf("decoded PSET aliases the input buffer")
	}
}

func FuzzDeserialize(f *testing.F) {
	f.Add([]byte{})
	f.Add(psetBytes(globalMap(1, 1).bytes(), inputMap().bytes(), outputMap().bytes()))
	f.Add(psetBytes(globalMap(0xfffffff, 0).bytes()))
	f.Fuzz(func(t *testing.T, b []byte) {
		p, err := Deserialize(b)
		if err != nil {
			if p != nil {
				t.Fatalf("PSET returned alongside error")
			}
			return
		}
		again, err := Deserialize(p.Serialize())
		if err != nil {
			t.Fatalf("canonical re-encoding rejected: %v", err)
		}
		if !again.Equal(p) {
			t.Fatalf("round trip changed the PSET")
		}
	})
}
