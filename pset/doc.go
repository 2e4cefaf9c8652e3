// Package pset implements the Partially Signed Elements Transaction (PSET v2)
// object model and its binary transcoding.
//
// The binary form is a magic prefix followed by a global key-value map, one map
// per input and one map per output (BIP-174/BIP-370 framing with the Elements
// proprietary extensions under the "pset" prefix).
//
// Decoding is strict: duplicate keys, non-minimal compact sizes, malformed
// fixed-size values, invalid secp256k1 points, preimages that do not hash to
// their key, and trailing bytes are all rejected with a *Error carrying a
// stable RuleID. Unrecognised keys are kept and re-emitted.
//
// Encoding is canonical: fields are emitted in a fixed order regardless of the
// order they were read in, so two different encodings of the same PSET
// serialize to identical bytes. Compare PSETs with Equal.
package pset
