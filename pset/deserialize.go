package pset

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160"
)

// entry is one decoded key-value pair. key is the full key; keyType and
// keyData are its two parts.
type entry struct {
	key     []byte
	keyType uint64
	keyData []byte
	value   []byte
}

// Deserialize decodes a binary PSET.
//
// Every failure is a *Error. The input is never retained: all fields of the
// returned PSET own their memory.
func Deserialize(b []byte) (*Pset, error) {
	if len(b) < len(Magic) || !bytes.Equal(b[:len(Magic)], Magic) {
		return nil, newError(KindMagic, ruleMagic, "missing PSET magic")
	}
	r := newReader(b[len(Magic):])

	global, inCount, outCount, err := decodeGlobal(r)
	if err != nil {
		return nil, within(err, "global map")
	}
	p := &Pset{Global: global}

	if inCount > 0 {
		p.Inputs = make([]Input, 0, boundedCap(inCount, r.remaining()))
	}
	for i := uint64(0); i < inCount; i++ {
		in, err := decodeInput(r)
		if err != nil {
			return nil, within(err, fmt.Sprintf("input %d", i))
		}
		p.Inputs = append(p.Inputs, in)
	}

	if outCount > 0 {
		p.Outputs = make([]Output, 0, boundedCap(outCount, r.remaining()))
	}
	for i := uint64(0); i < outCount; i++ {
		out, err := decodeOutput(r)
		if err != nil {
			return nil, within(err, fmt.Sprintf("output %d", i))
		}
		p.Outputs = append(p.Outputs, out)
	}

	if r.remaining() != 0 {
		return nil, newError(KindWire, ruleTrailing, fmt.Sprintf("%d trailing bytes after last output map", r.remaining()))
	}
	return p, nil
}

// within prefixes the message of a structured error with its location.
func within(err error, where string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return &Error{Kind: e.Kind, RuleID: e.RuleID, Message: where + ": " + e.Message, Cause: e.Cause}
}

// boundedCap limits preallocation to what the remaining input could hold;
// every map takes at least one byte.
func boundedCap(count uint64, remaining int) int {
	if count > uint64(remaining) {
		return remaining
	}
	return int(count)
}

// readMap reads entries up to and including the map separator.
func readMap(r *reader) ([]entry, error) {
	var out []entry
	seen := make(map[string]struct{})
	for {
		key, err := r.readVarSlice()
		if err != nil {
			return nil, err
		}
		if len(key) == 0 {
			return out, nil
		}
		if _, dup := seen[string(key)]; dup {
			return nil, newError(KindMap, ruleDuplicateKey, fmt.Sprintf("duplicate key %x", key))
		}
		seen[string(key)] = struct{}{}

		kr := newReader(key)
		keyType, err := kr.readCompactSize()
		if err != nil {
			return nil, err
		}
		value, err := r.readVarSlice()
		if err != nil {
			return nil, err
		}
		out = append(out, entry{key: key, keyType: keyType, keyData: key[kr.off:], value: value})
	}
}

type proprietaryKey struct {
	prefix  []byte
	subtype uint64
	keyData []byte
}

func (k proprietaryKey) isElements() bool { return string(k.prefix) == ElementsPrefix }

func parseProprietary(keyData []byte) (proprietaryKey, error) {
	kr := newReader(keyData)
	prefix, err := kr.readVarSlice()
	if err != nil {
		return proprietaryKey{}, wrapError(KindMap, ruleProprietaryKey, "malformed proprietary key", err)
	}
	subtype, err := kr.readCompactSize()
	if err != nil {
		return proprietaryKey{}, wrapError(KindMap, ruleProprietaryKey, "malformed proprietary key", err)
	}
	return proprietaryKey{prefix: prefix, subtype: subtype, keyData: keyData[kr.off:]}, nil
}

func decodeGlobal(r *reader) (Global, uint64, uint64, error) {
	var g Global
	entries, err := readMap(r)
	if err != nil {
		return g, 0, 0, err
	}

	var (
		haveTxVersion, haveInCount, haveOutCount, haveVersion bool
		inCount, outCount                                     uint64
	)
	for _, e := range entries {
		switch e.keyType {
		case globalXpub:
			if len(e.keyData) != 78 {
				return g, 0, 0, keyDataError("PSBT_GLOBAL_XPUB", "78-byte extended key", len(e.keyData))
			}
			d, err := decodeDerivation(e.value, "PSBT_GLOBAL_XPUB")
			if err != nil {
				return g, 0, 0, err
			}
			g.Xpubs = append(g.Xpubs, Xpub{ExtendedKey: e.keyData, Derivation: d})
		case globalTxVersion:
			v, err := scalarU32(e, "PSBT_GLOBAL_TX_VERSION")
			if err != nil {
				return g, 0, 0, err
			}
			g.TxVersion, haveTxVersion = v, true
		case globalFallbackLocktime:
			v, err := scalarU32(e, "PSBT_GLOBAL_FALLBACK_LOCKTIME")
			if err != nil {
				return g, 0, 0, err
			}
			g.FallbackLocktime = &v
		case globalInputCount:
			n, err := scalarCompactSize(e, "PSBT_GLOBAL_INPUT_COUNT")
			if err != nil {
				return g, 0, 0, err
			}
			inCount, haveInCount = n, true
		case globalOutputCount:
			n, err := scalarCompactSize(e, "PSBT_GLOBAL_OUTPUT_COUNT")
			if err != nil {
				return g, 0, 0, err
			}
			outCount, haveOutCount = n, true
		case globalTxModifiable:
			v, err := scalarU8(e, "PSBT_GLOBAL_TX_MODIFIABLE")
			if err != nil {
				return g, 0, 0, err
			}
			g.TxModifiable = &v
		case globalVersion:
			v, err := scalarU32(e, "PSBT_GLOBAL_VERSION")
			if err != nil {
				return g, 0, 0, err
			}
			if v != Version {
				return g, 0, 0, newError(KindVersion, ruleVersion, fmt.Sprintf("unsupported PSET version %d", v))
			}
			haveVersion = true
		case keyTypeProprietary:
			handled, err := g.decodeElements(e)
			if err != nil {
				return g, 0, 0, err
			}
			if !handled {
				g.Proprietary = append(g.Proprietary, KeyPair{Key: e.key, Value: e.value})
			}
		default:
			g.Unknown = append(g.Unknown, KeyPair{Key: e.key, Value: e.value})
		}
	}

	switch {
	case !haveTxVersion:
		return g, 0, 0, newError(KindRequired, ruleMissingTxVersion, "missing PSBT_GLOBAL_TX_VERSION")
	case !haveInCount:
		return g, 0, 0, newError(KindRequired, ruleMissingInCount, "missing PSBT_GLOBAL_INPUT_COUNT")
	case !haveOutCount:
		return g, 0, 0, newError(KindRequired, ruleMissingOutCount, "missing PSBT_GLOBAL_OUTPUT_COUNT")
	case !haveVersion:
		return g, 0, 0, newError(KindRequired, ruleMissingVersion, "missing PSBT_GLOBAL_VERSION")
	}

	sort.Slice(g.Xpubs, func(i, j int) bool { return bytes.Compare(g.Xpubs[i].ExtendedKey, g.Xpubs[j].ExtendedKey) < 0 })
	sort.Slice(g.Scalars, func(i, j int) bool { return bytes.Compare(g.Scalars[i][:], g.Scalars[j][:]) < 0 })
	sortKeyPairs(g.Proprietary)
	sortKeyPairs(g.Unknown)
	return g, inCount, outCount, nil
}

func (g *Global) decodeElements(e entry) (bool, error) {
	pk, err := parseProprietary(e.keyData)
	if err != nil {
		return false, err
	}
	if !pk.isElements() {
		return false, nil
	}
	switch pk.subtype {
	case elementsGlobalScalar:
		if len(pk.keyData) != 32 {
			return false, keyDataError("PSET_ELEMENTS_GLOBAL_SCALAR", "32-byte scalar", len(pk.keyData))
		}
		if len(e.value) != 0 {
			return false, valueLengthError("PSET_ELEMENTS_GLOBAL_SCALAR", 0, len(e.value))
		}
		var s [32]byte
		copy(s[:], pk.keyData)
		g.Scalars = append(g.Scalars, s)
	case elementsGlobalTxModifiable:
		v, err := scalarU8(entry{keyData: pk.keyData, value: e.value}, "PSET_ELEMENTS_GLOBAL_TX_MODIFIABLE")
		if err != nil {
			return false, err
		}
		g.ElementsTxModifiable = &v
	default:
		return false, nil
	}
	return true, nil
}

func decodeInput(r *reader) (Input, error) {
	var in Input
	entries, err := readMap(r)
	if err != nil {
		return in, err
	}

	var haveTxid, haveIndex bool
	for _, e := range entries {
		switch e.keyType {
		case inNonWitnessUtxo:
			if err := noKeyData(e, "PSBT_IN_NON_WITNESS_UTXO"); err != nil {
				return in, err
			}
			in.NonWitnessUtxo = e.value
		case inWitnessUtxo:
			if err := noKeyData(e, "PSBT_IN_WITNESS_UTXO"); err != nil {
				return in, err
			}
			txout, err := decodeTxOut(e.value)
			if err != nil {
				return in, err
			}
			in.WitnessUtxo = txout
		case inPartialSig:
			if err := checkPubKey(e.keyData, "PSBT_IN_PARTIAL_SIG"); err != nil {
				return in, err
			}
			in.PartialSigs = append(in.PartialSigs, PartialSig{PubKey: e.keyData, Signature: e.value})
		case inSighashType:
			v, err := scalarU32(e, "PSBT_IN_SIGHASH_TYPE")
			if err != nil {
				return in, err
			}
			in.SighashType = &v
		case inRedeemScript:
			if err := noKeyData(e, "PSBT_IN_REDEEM_SCRIPT"); err != nil {
				return in, err
			}
			in.RedeemScript = e.value
		case inWitnessScript:
			if err := noKeyData(e, "PSBT_IN_WITNESS_SCRIPT"); err != nil {
				return in, err
			}
			in.WitnessScript = e.value
		case inBip32Derivation:
			d, err := decodeBip32Derivation(e, "PSBT_IN_BIP32_DERIVATION")
			if err != nil {
				return in, err
			}
			in.Bip32Derivations = append(in.Bip32Derivations, d)
		case inFinalScriptSig:
			if err := noKeyData(e, "PSBT_IN_FINAL_SCRIPTSIG"); err != nil {
				return in, err
			}
			in.FinalScriptSig = e.value
		case inFinalScriptWitness:
			if err := noKeyData(e, "PSBT_IN_FINAL_SCRIPTWITNESS"); err != nil {
				return in, err
			}
			stack, err := decodeWitnessStack(e.value)
			if err != nil {
				return in, err
			}
			in.FinalScriptWitness = stack
		case inRipemd160, inSha256, inHash160, inHash256:
			if err := checkPreimage(e.keyType, e.keyData, e.value); err != nil {
				return in, err
			}
			p := Preimage{Hash: e.keyData, Preimage: e.value}
			switch e.keyType {
			case inRipemd160:
				in.Ripemd160Preimages = append(in.Ripemd160Preimages, p)
			case inSha256:
				in.Sha256Preimages = append(in.Sha256Preimages, p)
			case inHash160:
				in.Hash160Preimages = append(in.Hash160Preimages, p)
			default:
				in.Hash256Preimages = append(in.Hash256Preimages, p)
			}
		case inPreviousTxid:
			h, err := scalarHash(e, "PSBT_IN_PREVIOUS_TXID")
			if err != nil {
				return in, err
			}
			in.PreviousTxid, haveTxid = h, true
		case inOutputIndex:
			v, err := scalarU32(e, "PSBT_IN_OUTPUT_INDEX")
			if err != nil {
				return in, err
			}
			in.PreviousOutputIndex, haveIndex = v, true
		case inSequence:
			v, err := scalarU32(e, "PSBT_IN_SEQUENCE")
			if err != nil {
				return in, err
			}
			in.Sequence = &v
		case inRequiredTimeLocktime:
			v, err := scalarU32(e, "PSBT_IN_REQUIRED_TIME_LOCKTIME")
			if err != nil {
				return in, err
			}
			in.RequiredTimeLocktime = &v
		case inRequiredHeightLocktime:
			v, err := scalarU32(e, "PSBT_IN_REQUIRED_HEIGHT_LOCKTIME")
			if err != nil {
				return in, err
			}
			in.RequiredHeightLocktime = &v
		case keyTypeProprietary:
			handled, err := in.decodeElements(e)
			if err != nil {
				return in, err
			}
			if !handled {
				in.Proprietary = append(in.Proprietary, KeyPair{Key: e.key, Value: e.value})
			}
		default:
			in.Unknown = append(in.Unknown, KeyPair{Key: e.key, Value: e.value})
		}
	}

	if !haveTxid {
		return in, newError(KindRequired, ruleMissingPrevTxid, "missing PSBT_IN_PREVIOUS_TXID")
	}
	if !haveIndex {
		return in, newError(KindRequired, ruleMissingPrevIndex, "missing PSBT_IN_OUTPUT_INDEX")
	}

	sort.Slice(in.PartialSigs, func(i, j int) bool { return bytes.Compare(in.PartialSigs[i].PubKey, in.PartialSigs[j].PubKey) < 0 })
	sortDerivations(in.Bip32Derivations)
	sortPreimages(in.Ripemd160Preimages)
	sortPreimages(in.Sha256Preimages)
	sortPreimages(in.Hash160Preimages)
	sortPreimages(in.Hash256Preimages)
	sortKeyPairs(in.Proprietary)
	sortKeyPairs(in.Unknown)
	return in, nil
}

func (in *Input) decodeElements(e entry) (bool, error) {
	pk, err := parseProprietary(e.keyData)
	if err != nil {
		return false, err
	}
	if !pk.isElements() {
		return false, nil
	}
	pe := entry{keyData: pk.keyData, value: e.value}
	switch pk.subtype {
	case elementsInIssuanceValue:
		v, err := scalarU64(pe, "PSET_IN_ISSUANCE_VALUE")
		if err != nil {
			return false, err
		}
		in.IssuanceValue = &v
	case elementsInIssuanceValueCommitment:
		if err := noKeyData(pe, "PSET_IN_ISSUANCE_VALUE_COMMITMENT"); err != nil {
			return false, err
		}
		if !isCommitment(e.value, prefixValueEven, prefixValueOdd) {
			return false, newError(KindValue, ruleConfidential, "PSET_IN_ISSUANCE_VALUE_COMMITMENT: invalid value commitment")
		}
		in.IssuanceValueCommitment = e.value
	case elementsInIssuanceValueRangeproof:
		if err := noKeyData(pe, "PSET_IN_ISSUANCE_VALUE_RANGEPROOF"); err != nil {
			return false, err
		}
		in.IssuanceValueRangeproof = e.value
	case elementsInIssuanceInflationKeys:
		v, err := scalarU64(pe, "PSET_IN_ISSUANCE_INFLATION_KEYS_AMOUNT")
		if err != nil {
			return false, err
		}
		in.IssuanceInflationKeys = &v
	case elementsInIssuanceBlindingNonce:
		h, err := scalarHash(pe, "PSET_IN_ISSUANCE_BLINDING_NONCE")
		if err != nil {
			return false, err
		}
		in.IssuanceBlindingNonce = &h
	case elementsInIssuanceAssetEntropy:
		h, err := scalarHash(pe, "PSET_IN_ISSUANCE_ASSET_ENTROPY")
		if err != nil {
			return false, err
		}
		in.IssuanceAssetEntropy = &h
	case elementsInUtxoRangeproof:
		if err := noKeyData(pe, "PSET_IN_UTXO_RANGEPROOF"); err != nil {
			return false, err
		}
		in.UtxoRangeproof = e.value
	default:
		return false, nil
	}
	return true, nil
}

func decodeOutput(r *reader) (Output, error) {
	var out Output
	entries, err := readMap(r)
	if err != nil {
		return out, err
	}

	for _, e := range entries {
		switch e.keyType {
		case outRedeemScript:
			if err := noKeyData(e, "PSBT_OUT_REDEEM_SCRIPT"); err != nil {
				return out, err
			}
			out.RedeemScript = e.value
		case outWitnessScript:
			if err := noKeyData(e, "PSBT_OUT_WITNESS_SCRIPT"); err != nil {
				return out, err
			}
			out.WitnessScript = e.value
		case outBip32Derivation:
			d, err := decodeBip32Derivation(e, "PSBT_OUT_BIP32_DERIVATION")
			if err != nil {
				return out, err
			}
			out.Bip32Derivations = append(out.Bip32Derivations, d)
		case outAmount:
			v, err := scalarU64(e, "PSBT_OUT_AMOUNT")
			if err != nil {
				return out, err
			}
			out.Amount = &v
		case outScript:
			if err := noKeyData(e, "PSBT_OUT_SCRIPT"); err != nil {
				return out, err
			}
			out.Script = e.value
		case keyTypeProprietary:
			handled, err := out.decodeElements(e)
			if err != nil {
				return out, err
			}
			if !handled {
				out.Proprietary = append(out.Proprietary, KeyPair{Key: e.key, Value: e.value})
			}
		default:
			out.Unknown = append(out.Unknown, KeyPair{Key: e.key, Value: e.value})
		}
	}

	if out.Script == nil {
		return out, newError(KindRequired, ruleMissingScript, "missing PSBT_OUT_SCRIPT")
	}
	if out.Amount == nil && out.ValueCommitment == nil {
		return out, newError(KindRequired, ruleMissingAmount, "missing PSBT_OUT_AMOUNT and PSET_OUT_VALUE_COMMITMENT")
	}

	sortDerivations(out.Bip32Derivations)
	sortKeyPairs(out.Proprietary)
	sortKeyPairs(out.Unknown)
	return out, nil
}

func (out *Output) decodeElements(e entry) (bool, error) {
	pk, err := parseProprietary(e.keyData)
	if err != nil {
		return false, err
	}
	if !pk.isElements() {
		return false, nil
	}
	pe := entry{keyData: pk.keyData, value: e.value}
	switch pk.subtype {
	case elementsOutValueCommitment:
		if err := noKeyData(pe, "PSET_OUT_VALUE_COMMITMENT"); err != nil {
			return false, err
		}
		if !isCommitment(e.value, prefixValueEven, prefixValueOdd) {
			return false, newError(KindValue, ruleConfidential, "PSET_OUT_VALUE_COMMITMENT: invalid value commitment")
		}
		out.ValueCommitment = e.value
	case elementsOutAsset:
		h, err := scalarHash(pe, "PSET_OUT_ASSET")
		if err != nil {
			return false, err
		}
		out.Asset = &h
	case elementsOutAssetCommitment:
		if err := noKeyData(pe, "PSET_OUT_ASSET_COMMITMENT"); err != nil {
			return false, err
		}
		if !isCommitment(e.value, prefixAssetEven, prefixAssetOdd) {
			return false, newError(KindValue, ruleConfidential, "PSET_OUT_ASSET_COMMITMENT: invalid asset commitment")
		}
		out.AssetCommitment = e.value
	case elementsOutValueRangeproof:
		if err := noKeyData(pe, "PSET_OUT_VALUE_RANGEPROOF"); err != nil {
			return false, err
		}
		out.ValueRangeproof = e.value
	case elementsOutAssetSurjectionProof:
		if err := noKeyData(pe, "PSET_OUT_ASSET_SURJECTION_PROOF"); err != nil {
			return false, err
		}
		out.AssetSurjectionProof = e.value
	case elementsOutBlindingPubKey:
		if err := noKeyData(pe, "PSET_OUT_BLINDING_PUBKEY"); err != nil {
			return false, err
		}
		if err := checkCompressedPubKey(e.value, "PSET_OUT_BLINDING_PUBKEY"); err != nil {
			return false, err
		}
		out.BlindingPubKey = e.value
	case elementsOutEcdhPubKey:
		if err := noKeyData(pe, "PSET_OUT_ECDH_PUBKEY"); err != nil {
			return false, err
		}
		if err := checkCompressedPubKey(e.value, "PSET_OUT_ECDH_PUBKEY"); err != nil {
			return false, err
		}
		out.EcdhPubKey = e.value
	case elementsOutBlinderIndex:
		v, err := scalarU32(pe, "PSET_OUT_BLINDER_INDEX")
		if err != nil {
			return false, err
		}
		out.BlinderIndex = &v
	default:
		return false, nil
	}
	return true, nil
}

func decodeTxOut(b []byte) (*TxOut, error) {
	const field = "PSBT_IN_WITNESS_UTXO"
	r := newReader(b)
	asset, err := readConfidential(r, assetLen, field, "asset")
	if err != nil {
		return nil, err
	}
	value, err := readConfidential(r, valueLen, field, "value")
	if err != nil {
		return nil, err
	}
	nonce, err := readConfidential(r, nonceLen, field, "nonce")
	if err != nil {
		return nil, err
	}
	script, err := r.readVarSlice()
	if err != nil {
		return nil, wrapError(KindValue, ruleValueLength, field+": malformed script", err)
	}
	if r.remaining() != 0 {
		return nil, newError(KindValue, ruleValueTrailing, fmt.Sprintf("%s: %d trailing bytes", field, r.remaining()))
	}
	return &TxOut{Asset: Asset(asset), Value: Value(value), Nonce: Nonce(nonce), Script: script}, nil
}

func readConfidential(r *reader, lenFor func(byte) int, field, part string) ([]byte, error) {
	prefix, err := r.readByte()
	if err != nil {
		return nil, wrapError(KindValue, ruleValueLength, field+": missing "+part, err)
	}
	n := lenFor(prefix)
	if n == 0 {
		return nil, newError(KindValue, ruleConfidential, fmt.Sprintf("%s: invalid %s prefix 0x%02x", field, part, prefix))
	}
	if prefix == prefixNull {
		return nil, nil
	}
	rest, err := r.readBytes(uint64(n - 1))
	if err != nil {
		return nil, wrapError(KindValue, ruleValueLength, field+": truncated "+part, err)
	}
	return append([]byte{prefix}, rest...), nil
}

func decodeWitnessStack(b []byte) ([][]byte, error) {
	const field = "PSBT_IN_FINAL_SCRIPTWITNESS"
	r := newReader(b)
	n, err := r.readCompactSize()
	if err != nil {
		return nil, wrapError(KindValue, ruleValueLength, field+": malformed item count", err)
	}
	stack := make([][]byte, 0, boundedCap(n, r.remaining()))
	for i := uint64(0); i < n; i++ {
		item, err := r.readVarSlice()
		if err != nil {
			return nil, wrapError(KindValue, ruleValueLength, fmt.Sprintf("%s: malformed item %d", field, i), err)
		}
		stack = append(stack, item)
	}
	if r.remaining() != 0 {
		return nil, newError(KindValue, ruleValueTrailing, fmt.Sprintf("%s: %d trailing bytes", field, r.remaining()))
	}
	return stack, nil
}

func decodeDerivation(b []byte, field string) (Derivation, error) {
	var d Derivation
	if len(b) < 4 || len(b)%4 != 0 {
		return d, newError(KindValue, ruleDerivation, fmt.Sprintf("%s: invalid key origin length %d", field, len(b)))
	}
	copy(d.Fingerprint[:], b[:4])
	if len(b) > 4 {
		d.Path = make([]uint32, 0, (len(b)-4)/4)
		for i := 4; i < len(b); i += 4 {
			d.Path = append(d.Path, binary.LittleEndian.Uint32(b[i:]))
		}
	}
	return d, nil
}

func decodeBip32Derivation(e entry, field string) (Bip32Derivation, error) {
	if err := checkPubKey(e.keyData, field); err != nil {
		return Bip32Derivation{}, err
	}
	d, err := decodeDerivation(e.value, field)
	if err != nil {
		return Bip32Derivation{}, err
	}
	return Bip32Derivation{PubKey: e.keyData, Derivation: d}, nil
}

func checkPubKey(b []byte, field string) error {
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return wrapError(KindValue, rulePubKey, field+": invalid public key", err)
	}
	return nil
}

func checkCompressedPubKey(b []byte, field string) error {
	if len(b) != secp256k1.PubKeyBytesLenCompressed {
		return valueLengthError(field, secp256k1.PubKeyBytesLenCompressed, len(b))
	}
	return checkPubKey(b, field)
}

func checkPreimage(keyType uint64, hash, preimage []byte) error {
	var (
		sum   []byte
		field string
	)
	switch keyType {
	case inRipemd160:
		field = "PSBT_IN_RIPEMD160"
		sum = ripemd160Sum(preimage)
	case inSha256:
		field = "PSBT_IN_SHA256"
		s := sha256.Sum256(preimage)
		sum = s[:]
	case inHash160:
		field = "PSBT_IN_HASH160"
		s := sha256.Sum256(preimage)
		sum = ripemd160Sum(s[:])
	default:
		field = "PSBT_IN_HASH256"
		s := sha256.Sum256(preimage)
		s = sha256.Sum256(s[:])
		sum = s[:]
	}
	if len(hash) != len(sum) {
		return keyDataError(field, fmt.Sprintf("%d-byte hash", len(sum)), len(hash))
	}
	if !bytes.Equal(hash, sum) {
		return newError(KindValue, rulePreimage, field+": preimage does not match hash")
	}
	return nil
}

func ripemd160Sum(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

func noKeyData(e entry, field string) error {
	if len(e.keyData) != 0 {
		return keyDataError(field, "no key data", len(e.keyData))
	}
	return nil
}

func scalarU8(e entry, field string) (uint8, error) {
	if err := noKeyData(e, field); err != nil {
		return 0, err
	}
	if len(e.value) != 1 {
		return 0, valueLengthError(field, 1, len(e.value))
	}
	return e.value[0], nil
}

func scalarU32(e entry, field string) (uint32, error) {
	if err := noKeyData(e, field); err != nil {
		return 0, err
	}
	if len(e.value) != 4 {
		return 0, valueLengthError(field, 4, len(e.value))
	}
	return binary.LittleEndian.Uint32(e.value), nil
}

func scalarU64(e entry, field string) (uint64, error) {
	if err := noKeyData(e, field); err != nil {
		return 0, err
	}
	if len(e.value) != 8 {
		return 0, valueLengthError(field, 8, len(e.value))
	}
	return binary.LittleEndian.Uint64(e.value), nil
}

func scalarHash(e entry, field string) ([32]byte, error) {
	var h [32]byte
	if err := noKeyData(e, field); err != nil {
		return h, err
	}
	if len(e.value) != 32 {
		return h, valueLengthError(field, 32, len(e.value))
	}
	copy(h[:], e.value)
	return h, nil
}

func scalarCompactSize(e entry, field string) (uint64, error) {
	if err := noKeyData(e, field); err != nil {
		return 0, err
	}
	r := newReader(e.value)
	n, err := r.readCompactSize()
	if err != nil {
		return 0, wrapError(KindValue, ruleValueLength, field+": malformed count", err)
	}
	if r.remaining() != 0 {
		return 0, newError(KindValue, ruleValueTrailing, fmt.Sprintf("%s: %d trailing bytes", field, r.remaining()))
	}
	return n, nil
}

func keyDataError(field, want string, got int) error {
	return newError(KindMap, ruleKeyData, fmt.Sprintf("%s: expected %s, got %d bytes of key data", field, want, got))
}

func valueLengthError(field string, want, got int) error {
	return newError(KindValue, ruleValueLength, fmt.Sprintf("%s: expected %d-byte value, got %d", field, want, got))
}

func sortKeyPairs(kps []KeyPair) {
	sort.Slice(kps, func(i, j int) bool { return bytes.Compare(kps[i].Key, kps[j].Key) < 0 })
}

func sortDerivations(ds []Bip32Derivation) {
	sort.Slice(ds, func(i, j int) bool { return bytes.Compare(ds[i].PubKey, ds[j].PubKey) < 0 })
}

func sortPreimages(ps []Preimage) {
	sort.Slice(ps, func(i, j int) bool { return bytes.Compare(ps[i].Hash, ps[j].Hash) < 0 })
}
