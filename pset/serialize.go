package pset

import (
	"bytes"
	"sort"
)

// Serialize returns the canonical binary encoding of p. It does not modify p.
// A nil PSET serializes to nil.
func (p *Pset) Serialize() []byte {
	if p == nil {
		return nil
	}
	var w writer
	w.buf.Write(Magic)
	p.Global.encode(&w, len(p.Inputs), len(p.Outputs))
	for i := range p.Inputs {
		p.Inputs[i].encode(&w)
	}
	for i := range p.Outputs {
		p.Outputs[i].encode(&w)
	}
	return w.buf.Bytes()
}

func (g *Global) encode(w *writer, inputs, outputs int) {
	xpubs := append([]Xpub(nil), g.Xpubs...)
	sort.Slice(xpubs, func(i, j int) bool { return bytes.Compare(xpubs[i].ExtendedKey, xpubs[j].ExtendedKey) < 0 })
	for _, x := range xpubs {
		w.writeEntry(mapKey(globalXpub, x.ExtendedKey), derivationBytes(x.Derivation))
	}
	w.writeEntry(mapKey(globalTxVersion, nil), uint32Bytes(g.TxVersion))
	if g.FallbackLocktime != nil {
		w.writeEntry(mapKey(globalFallbackLocktime, nil), uint32Bytes(*g.FallbackLocktime))
	}
	w.writeEntry(mapKey(globalInputCount, nil), compactSizeBytes(uint64(inputs)))
	w.writeEntry(mapKey(globalOutputCount, nil), compactSizeBytes(uint64(outputs)))
	if g.TxModifiable != nil {
		w.writeEntry(mapKey(globalTxModifiable, nil), []byte{*g.TxModifiable})
	}
	w.writeEntry(mapKey(globalVersion, nil), uint32Bytes(Version))

	scalars := append([][32]byte(nil), g.Scalars...)
	sort.Slice(scalars, func(i, j int) bool { return bytes.Compare(scalars[i][:], scalars[j][:]) < 0 })
	for _, s := range scalars {
		w.writeEntry(elementsKey(elementsGlobalScalar, s[:]), nil)
	}
	if g.ElementsTxModifiable != nil {
		w.writeEntry(elementsKey(elementsGlobalTxModifiable, nil), []byte{*g.ElementsTxModifiable})
	}
	writeKeyPairs(w, g.Proprietary)
	writeKeyPairs(w, g.Unknown)
	w.endMap()
}

func (in *Input) encode(w *writer) {
	if in.NonWitnessUtxo != nil {
		w.writeEntry(mapKey(inNonWitnessUtxo, nil), in.NonWitnessUtxo)
	}
	if in.WitnessUtxo != nil {
		w.writeEntry(mapKey(inWitnessUtxo, nil), in.WitnessUtxo.encode())
	}
	sigs := append([]PartialSig(nil), in.PartialSigs...)
	sort.Slice(sigs, func(i, j int) bool { return bytes.Compare(sigs[i].PubKey, sigs[j].PubKey) < 0 })
	for _, s := range sigs {
		w.writeEntry(mapKey(inPartialSig, s.PubKey), s.Signature)
	}
	if in.SighashType != nil {
		w.writeEntry(mapKey(inSighashType, nil), uint32Bytes(*in.SighashType))
	}
	if in.RedeemScript != nil {
		w.writeEntry(mapKey(inRedeemScript, nil), in.RedeemScript)
	}
	if in.WitnessScript != nil {
		w.writeEntry(mapKey(inWitnessScript, nil), in.WitnessScript)
	}
	writeDerivations(w, inBip32Derivation, in.Bip32Derivations)
	if in.FinalScriptSig != nil {
		w.writeEntry(mapKey(inFinalScriptSig, nil), in.FinalScriptSig)
	}
	if in.FinalScriptWitness != nil {
		w.writeEntry(mapKey(inFinalScriptWitness, nil), encodeWitnessStack(in.FinalScriptWitness))
	}
	writePreimages(w, inRipemd160, in.Ripemd160Preimages)
	writePreimages(w, inSha256, in.Sha256Preimages)
	writePreimages(w, inHash160, in.Hash160Preimages)
	writePreimages(w, inHash256, in.Hash256Preimages)
	w.writeEntry(mapKey(inPreviousTxid, nil), in.PreviousTxid[:])
	w.writeEntry(mapKey(inOutputIndex, nil), uint32Bytes(in.PreviousOutputIndex))
	if in.Sequence != nil {
		w.writeEntry(mapKey(inSequence, nil), uint32Bytes(*in.Sequence))
	}
	if in.RequiredTimeLocktime != nil {
		w.writeEntry(mapKey(inRequiredTimeLocktime, nil), uint32Bytes(*in.RequiredTimeLocktime))
	}
	if in.RequiredHeightLocktime != nil {
		w.writeEntry(mapKey(inRequiredHeightLocktime, nil), uint32Bytes(*in.RequiredHeightLocktime))
	}

	if in.IssuanceValue != nil {
		w.writeEntry(elementsKey(elementsInIssuanceValue, nil), uint64Bytes(*in.IssuanceValue))
	}
	if in.IssuanceValueCommitment != nil {
		w.writeEntry(elementsKey(elementsInIssuanceValueCommitment, nil), in.IssuanceValueCommitment)
	}
	if in.IssuanceValueRangeproof != nil {
		w.writeEntry(elementsKey(elementsInIssuanceValueRangeproof, nil), in.IssuanceValueRangeproof)
	}
	if in.IssuanceInflationKeys != nil {
		w.writeEntry(elementsKey(elementsInIssuanceInflationKeys, nil), uint64Bytes(*in.IssuanceInflationKeys))
	}
	if in.IssuanceBlindingNonce != nil {
		w.writeEntry(elementsKey(elementsInIssuanceBlindingNonce, nil), in.IssuanceBlindingNonce[:])
	}
	if in.IssuanceAssetEntropy != nil {
		w.writeEntry(elementsKey(elementsInIssuanceAssetEntropy, nil), in.IssuanceAssetEntropy[:])
	}
	if in.UtxoRangeproof != nil {
		w.writeEntry(elementsKey(elementsInUtxoRangeproof, nil), in.UtxoRangeproof)
	}
	writeKeyPairs(w, in.Proprietary)
	writeKeyPairs(w, in.Unknown)
	w.endMap()
}

func (out *Output) encode(w *writer) {
	if out.RedeemScript != nil {
		w.writeEntry(mapKey(outRedeemScript, nil), out.RedeemScript)
	}
	if out.WitnessScript != nil {
		w.writeEntry(mapKey(outWitnessScript, nil), out.WitnessScript)
	}
	writeDerivations(w, outBip32Derivation, out.Bip32Derivations)
	if out.Amount != nil {
		w.writeEntry(mapKey(outAmount, nil), uint64Bytes(*out.Amount))
	}
	w.writeEntry(mapKey(outScript, nil), out.Script)

	if out.ValueCommitment != nil {
		w.writeEntry(elementsKey(elementsOutValueCommitment, nil), out.ValueCommitment)
	}
	if out.Asset != nil {
		w.writeEntry(elementsKey(elementsOutAsset, nil), out.Asset[:])
	}
	if out.AssetCommitment != nil {
		w.writeEntry(elementsKey(elementsOutAssetCommitment, nil), out.AssetCommitment)
	}
	if out.ValueRangeproof != nil {
		w.writeEntry(elementsKey(elementsOutValueRangeproof, nil), out.ValueRangeproof)
	}
	if out.AssetSurjectionProof != nil {
		w.writeEntry(elementsKey(elementsOutAssetSurjectionProof, nil), out.AssetSurjectionProof)
	}
	if out.BlindingPubKey != nil {
		w.writeEntry(elementsKey(elementsOutBlindingPubKey, nil), out.BlindingPubKey)
	}
	if out.EcdhPubKey != nil {
		w.writeEntry(elementsKey(elementsOutEcdhPubKey, nil), out.EcdhPubKey)
	}
	if out.BlinderIndex != nil {
		w.writeEntry(elementsKey(elementsOutBlinderIndex, nil), uint32Bytes(*out.BlinderIndex))
	}
	writeKeyPairs(w, out.Proprietary)
	writeKeyPairs(w, out.Unknown)
	w.endMap()
}

// encode returns the witness UTXO encoding. The output witness is not part of it.
func (o *TxOut) encode() []byte {
	var w writer
	writeConfidential(&w, o.Asset)
	writeConfidential(&w, o.Value)
	writeConfidential(&w, o.Nonce)
	w.writeVarSlice(o.Script)
	return w.buf.Bytes()
}

func writeConfidential(w *writer, b []byte) {
	if len(b) == 0 {
		w.buf.WriteByte(prefixNull)
		return
	}
	w.buf.Write(b)
}

func encodeWitnessStack(stack [][]byte) []byte {
	var w writer
	w.writeCompactSize(uint64(len(stack)))
	for _, item := range stack {
		w.writeVarSlice(item)
	}
	return w.buf.Bytes()
}

func writeDerivations(w *writer, keyType uint64, ds []Bip32Derivation) {
	sorted := append([]Bip32Derivation(nil), ds...)
	sortDerivations(sorted)
	for _, d := range sorted {
		w.writeEntry(mapKey(keyType, d.PubKey), derivationBytes(d.Derivation))
	}
}

func writePreimages(w *writer, keyType uint64, ps []Preimage) {
	sorted := append([]Preimage(nil), ps...)
	sortPreimages(sorted)
	for _, p := range sorted {
		w.writeEntry(mapKey(keyType, p.Hash), p.Preimage)
	}
}

func writeKeyPairs(w *writer, kps []KeyPair) {
	sorted := append([]KeyPair(nil), kps...)
	sortKeyPairs(sorted)
	for _, kp := range sorted {
		w.writeEntry(kp.Key, kp.Value)
	}
}
