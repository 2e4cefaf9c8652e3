// Package psettext is the text form of a PSET: the canonical binary encoding
// wrapped in a standard base64 envelope.
//
// Parsing is two fallible steps, envelope then binary, and a failure in the
// first never reaches the second. Rendering cannot fail.
//
// The text form is not stable: Render(Parse(t)) may differ from t as a string
// when t encoded its fields in a non-canonical order, while still parsing to an
// equal PSET. Compare PSETs with (*pset.Pset).Equal or their ID, never by text.
package psettext

import (
	"xdao.co/pset/envelope"
	"xdao.co/pset/pset"
)

// Codec composes the base64 envelope with a binary transcoder for T.
// The zero value is not usable; both functions must be set.
type Codec[T any] struct {
	Serialize   func(T) []byte
	Deserialize func([]byte) (T, error)
}

// Parse decodes text into a T. On failure it returns the zero T and a *ParseError.
func (c Codec[T]) Parse(text string) (T, error) {
	var zero T
	b, err := envelope.Decode(text)
	if err != nil {
		return zero, &ParseError{Kind: KindEnvelope, Cause: err}
	}
	v, err := c.Deserialize(b)
	if err != nil {
		return zero, &ParseError{Kind: KindTranscode, Cause: err}
	}
	return v, nil
}

// Render encodes v as text.
func (c Codec[T]) Render(v T) string {
	return envelope.Encode(c.Serialize(v))
}

// PSET is the codec for *pset.Pset.
var PSET = Codec[*pset.Pset]{
	Serialize:   (*pset.Pset).Serialize,
	Deserialize: pset.Deserialize,
}

// Parse decodes a PSET from its base64 text.
func Parse(text string) (*pset.Pset, error) {
	return PSET.Parse(text)
}

// ParseBytes is Parse for text held in a byte slice.
func ParseBytes(text []byte) (*pset.Pset, error) {
	return PSET.Parse(string(text))
}

// Render returns the base64 text of p.
func Render(p *pset.Pset) string {
	return PSET.Render(p)
}

// Text adapts a PSET to encoding.TextMarshaler and encoding.TextUnmarshaler,
// so it can sit in JSON documents and flag values as its base64 text.
type Text struct {
	PSET *pset.Pset
}

func (t Text) MarshalText() ([]byte, error) {
	return []byte(Render(t.PSET)), nil
}

func (t *Text) UnmarshalText(b []byte) error {
	p, err := ParseBytes(b)
	if err != nil {
		return err
	}
	t.PSET = p
	return nil
}
