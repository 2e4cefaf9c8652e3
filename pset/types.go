package pset

// Magic prefixes every serialized PSET.
var Magic = []byte{0x70, 0x73, 0x65, 0x74, 0xff}

// Version is the only PSBT_GLOBAL_VERSION this package reads and writes.
const Version uint32 = 2

// ElementsPrefix is the proprietary key prefix for Elements fields.
const ElementsPrefix = "pset"

// Pset is a partially signed Elements transaction.
//
// Absent optional fields are nil. A present field with an empty value is a
// non-nil empty slice.
type Pset struct {
	Global  Global
	Inputs  []Input
	Outputs []Output
}

// Global holds the global map. Input and output counts are derived from
// Pset.Inputs and Pset.Outputs.
type Global struct {
	TxVersion        uint32
	FallbackLocktime *uint32
	TxModifiable     *uint8
	Xpubs            []Xpub

	// Elements proprietary fields.
	Scalars              [][32]byte
	ElementsTxModifiable *uint8

	Proprietary []KeyPair
	Unknown     []KeyPair
}

// Input is one input map.
type Input struct {
	PreviousTxid           [32]byte
	PreviousOutputIndex    uint32
	Sequence               *uint32
	RequiredTimeLocktime   *uint32
	RequiredHeightLocktime *uint32

	NonWitnessUtxo     []byte
	WitnessUtxo        *TxOut
	PartialSigs        []PartialSig
	SighashType        *uint32
	RedeemScript       []byte
	WitnessScript      []byte
	Bip32Derivations   []Bip32Derivation
	FinalScriptSig     []byte
	FinalScriptWitness [][]byte

	Ripemd160Preimages []Preimage
	Sha256Preimages    []Preimage
	Hash160Preimages   []Preimage
	Hash256Preimages   []Preimage

	// Elements proprietary fields.
	IssuanceValue           *uint64
	IssuanceValueCommitment []byte
	IssuanceValueRangeproof []byte
	IssuanceInflationKeys   *uint64
	IssuanceBlindingNonce   *[32]byte
	IssuanceAssetEntropy    *[32]byte
	UtxoRangeproof          []byte

	Proprietary []KeyPair
	Unknown     []KeyPair
}

// Output is one output map.
type Output struct {
	Amount           *uint64
	Script           []byte
	RedeemScript     []byte
	WitnessScript    []byte
	Bip32Derivations []Bip32Derivation

	// Elements proprietary fields.
	ValueCommitment      []byte
	Asset                *[32]byte
	AssetCommitment      []byte
	ValueRangeproof      []byte
	AssetSurjectionProof []byte
	BlindingPubKey       []byte
	EcdhPubKey           []byte
	BlinderIndex         *uint32

	Proprietary []KeyPair
	Unknown     []KeyPair
}

// TxOut is an Elements transaction output as carried in PSBT_IN_WITNESS_UTXO.
type TxOut struct {
	Asset  Asset
	Value  Value
	Nonce  Nonce
	Script []byte

	// Witness is never populated from a PSET: the witness UTXO encoding does
	// not include the output witness. The UTXO range proof is carried by
	// Input.UtxoRangeproof instead.
	Witness TxOutWitness
}

// TxOutWitness is the confidential-transaction witness of an output.
type TxOutWitness struct {
	RangeProof      []byte
	SurjectionProof []byte
}

// KeyPair is a raw map entry kept verbatim. Key includes the key type.
type KeyPair struct {
	Key   []byte
	Value []byte
}

// Derivation is a BIP-32 key origin: master fingerprint and path.
type Derivation struct {
	Fingerprint [4]byte
	Path        []uint32
}

// Xpub is a PSBT_GLOBAL_XPUB entry.
type Xpub struct {
	ExtendedKey []byte
	Derivation  Derivation
}

// Bip32Derivation binds a public key to its key origin.
type Bip32Derivation struct {
	PubKey     []byte
	Derivation Derivation
}

// PartialSig is a signature for one public key.
type PartialSig struct {
	PubKey    []byte
	Signature []byte
}

// Preimage is a hash and the data that hashes to it.
type Preimage struct {
	Hash     []byte
	Preimage []byte
}

// Global map key types.
const (
	globalXpub             = 0x01
	globalTxVersion        = 0x02
	globalFallbackLocktime = 0x03
	globalInputCount       = 0x04
	globalOutputCount      = 0x05
	globalTxModifiable     = 0x06
	globalVersion          = 0xfb
	keyTypeProprietary     = 0xfc
)

// Elements global proprietary subtypes.
const (
	elementsGlobalScalar       = 0x00
	elementsGlobalTxModifiable = 0x01
)

// Input map key types.
const (
	inNonWitnessUtxo         = 0x00
	inWitnessUtxo            = 0x01
	inPartialSig             = 0x02
	inSighashType            = 0x03
	inRedeemScript           = 0x04
	inWitnessScript          = 0x05
	inBip32Derivation        = 0x06
	inFinalScriptSig         = 0x07
	inFinalScriptWitness     = 0x08
	inRipemd160              = 0x0a
	inSha256                 = 0x0b
	inHash160                = 0x0c
	inHash256                = 0x0d
	inPreviousTxid           = 0x0e
	inOutputIndex            = 0x0f
	inSequence               = 0x10
	inRequiredTimeLocktime   = 0x11
	inRequiredHeightLocktime = 0x12
)

// Elements input proprietary subtypes.
const (
	elementsInIssuanceValue           = 0x00
	elementsInIssuanceValueCommitment = 0x01
	elementsInIssuanceValueRangeproof = 0x02
	elementsInIssuanceInflationKeys   = 0x0a
	elementsInIssuanceBlindingNonce   = 0x0c
	elementsInIssuanceAssetEntropy    = 0x0d
	elementsInUtxoRangeproof          = 0x0e
)

// Output map key types.
const (
	outRedeemScript    = 0x00
	outWitnessScript   = 0x01
	outBip32Derivation = 0x02
	outAmount          = 0x03
	outScript          = 0x04
)

// Elements output proprietary subtypes.
const (
	elementsOutValueCommitment      = 0x01
	elementsOutAsset                = 0x02
	elementsOutAssetCommitment      = 0x03
	elementsOutValueRangeproof      = 0x04
	elementsOutAssetSurjectionProof = 0x05
	elementsOutBlindingPubKey       = 0x06
	elementsOutEcdhPubKey           = 0x07
	elementsOutBlinderIndex         = 0x08
)
