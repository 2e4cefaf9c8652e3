package pset

import (
	"bytes"
	"reflect"
	"testing"
)

func TestSerialize_RoundTrip(t *testing.T) {
	p := samplePSET(t)
	b := p.Serialize()

	got, err := Deserialize(b)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !got.Equal(p) {
		t.Fatalf("round trip changed the PSET")
	}
	if !bytes.Equal(got.Serialize(), b) {
		t.Fatalf("re-serialization is not byte-identical")
	}

	in := got.Inputs[0]
	if in.PreviousOutputIndex != 1 || in.PreviousTxid != p.Inputs[0].PreviousTxid {
		t.Fatalf("outpoint mismatch: %s", in.OutPoint())
	}
	if v, ok := in.WitnessUtxo.Value.Explicit(); !ok || v != 100000000 {
		t.Fatalf("witness utxo value: got %d (explicit=%v)", v, ok)
	}
	if id, ok := in.WitnessUtxo.Asset.Explicit(); !ok || id != *p.Outputs[0].Asset {
		t.Fatalf("witness utxo asset mismatch")
	}
	if in.WitnessUtxo.Nonce != nil {
		t.Fatalf("expected null nonce, got %x", in.WitnessUtxo.Nonce)
	}
	if !reflect.DeepEqual(in.FinalScriptWitness, [][]byte{{0x01}, {}, {0x02, 0x03}}) {
		t.Fatalf("final script witness: %x", in.FinalScriptWitness)
	}
	if in.FinalScriptSig == nil || len(in.FinalScriptSig) != 0 {
		t.Fatalf("present-but-empty final scriptsig must stay present")
	}
	if !bytes.Equal(in.UtxoRangeproof, []byte{0xaa, 0xaa, 0xaa}) {
		t.Fatalf("utxo rangeproof: %x", in.UtxoRangeproof)
	}
	if *got.Global.ElementsTxModifiable != 1 || len(got.Global.Scalars) != 1 {
		t.Fatalf("elements global fields lost")
	}
	if !got.Outputs[1].IsBlinded() || got.Outputs[0].IsBlinded() {
		t.Fatalf("blinded outputs mismatch")
	}
	if !reflect.DeepEqual(got.Outputs[0].Bip32Derivations, p.Outputs[0].Bip32Derivations) {
		t.Fatalf("output derivations mismatch")
	}
}

func TestSerialize_SortsMultiEntryFields(t *testing.T) {
	p := samplePSET(t)
	before := append([]PartialSig(nil), p.Inputs[0].PartialSigs...)

	got, err := Deserialize(p.Serialize())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	sigs := got.Inputs[0].PartialSigs
	if len(sigs) != 2 {
		t.Fatalf("expected 2 partial sigs, got %d", len(sigs))
	}
	if bytes.Compare(sigs[0].PubKey, sigs[1].PubKey) >= 0 {
		t.Fatalf("partial sigs not sorted by pubkey")
	}
	if !reflect.DeepEqual(p.Inputs[0].PartialSigs, before) {
		t.Fatalf("Serialize reordered the caller's slice")
	}
}

func TestSerialize_InsensitiveToFieldOrder(t *testing.T) {
	a := samplePSET(t)
	b := samplePSET(t)
	sigs := b.Inputs[0].PartialSigs
	sigs[0], sigs[1] = sigs[1], sigs[0]

	if !bytes.Equal(a.Serialize(), b.Serialize()) {
		t.Fatalf("canonical encoding depends on slice order")
	}
	if !a.Equal(b) {
		t.Fatalf("Equal: expected true")
	}
	*b.Outputs[0].Amount++
	if a.Equal(b) {
		t.Fatalf("Equal: expected false after changing an amount")
	}
}

func TestSerialize_Nil(t *testing.T) {
	var p *Pset
	if b := p.Serialize(); b != nil {
		t.Fatalf("expected nil, got %x", b)
	}
	if !p.Equal(nil) {
		t.Fatalf("nil PSETs should be equal")
	}
	if p.Equal(samplePSET(t)) {
		t.Fatalf("nil should not equal a PSET")
	}
	if _, err := p.ID(); err == nil {
		t.Fatalf("ID on nil PSET: expected error")
	}
}

func TestID_StableAcrossReencoding(t *testing.T) {
	p := samplePSET(t)
	id1, err := p.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	got, err := Deserialize(p.Serialize())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	id2, err := got.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if !id1.Equals(id2) {
		t.Fatalf("ID changed across round trip: %s vs %s", id1, id2)
	}
}

func TestCompactSize_Boundaries(t *testing.T) {
	for _, n := range []uint64{0, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000} {
		b := compactSizeBytes(n)
		got, err := newReader(b).readCompactSize()
		if err != nil {
			t.Fatalf("readCompactSize(%x): %v", b, err)
		}
		if got != n {
			t.Fatalf("compact size %d decoded as %d", n, got)
		}
	}
}

func TestOutPoint_DisplayOrder(t *testing.T) {
	var in Input
	in.PreviousTxid[0] = 0x01
	in.PreviousOutputIndex = 7
	want := "0000000000000000000000000000000000000000000000000000000000000001:7"
	if got := in.OutPoint(); got != want {
		t.Fatalf("OutPoint = %s, want %s", got, want)
	}
}
