package pset

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// reader consumes a byte slice. All reads are bounds-checked against the
// remaining input so a hostile length prefix cannot trigger large allocations.
type reader struct {
	b   []byte
	off int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) remaining() int { return len(r.b) - r.off }

func (r *reader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, newError(KindWire, ruleTruncated, "unexpected end of data")
	}
	c := r.b[r.off]
	r.off++
	return c, nil
}

// readBytes returns a copy of the next n bytes.
func (r *reader) readBytes(n uint64) ([]byte, error) {
	if n > uint64(r.remaining()) {
		return nil, newError(KindWire, ruleTruncated, fmt.Sprintf("unexpected end of data: need %d bytes, have %d", n, r.remaining()))
	}
	out := make([]byte, n)
	copy(out, r.b[r.off:])
	r.off += int(n)
	return out, nil
}

// readCompactSize reads a Bitcoin compact size integer and rejects
// non-minimal encodings.
func (r *reader) readCompactSize() (uint64, error) {
	c, err := r.readByte()
	if err != nil {
		return 0, err
	}
	var (
		v     uint64
		floor uint64
	)
	switch c {
	case 0xfd:
		b, err := r.readBytes(2)
		if err != nil {
			return 0, err
		}
		v, floor = uint64(binary.LittleEndian.Uint16(b)), 0xfd
	case 0xfe:
		b, err := r.readBytes(4)
		if err != nil {
			return 0, err
		}
		v, floor = uint64(binary.LittleEndian.Uint32(b)), 0x10000
	case 0xff:
		b, err := r.readBytes(8)
		if err != nil {
			return 0, err
		}
		v, floor = binary.LittleEndian.Uint64(b), 0x100000000
	default:
		return uint64(c), nil
	}
	if v < floor {
		return 0, newError(KindWire, ruleNonMinimal, fmt.Sprintf("non-minimal compact size %d", v))
	}
	return v, nil
}

func (r *reader) readVarSlice() ([]byte, error) {
	n, err := r.readCompactSize()
	if err != nil {
		return nil, err
	}
	return r.readBytes(n)
}

// writer accumulates a canonical encoding. Writes to a bytes.Buffer never fail.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) writeCompactSize(n uint64) {
	var b [9]byte
	switch {
	case n < 0xfd:
		w.buf.WriteByte(byte(n))
	case n <= 0xffff:
		b[0] = 0xfd
		binary.LittleEndian.PutUint16(b[1:], uint16(n))
		w.buf.Write(b[:3])
	case n <= 0xffffffff:
		b[0] = 0xfe
		binary.LittleEndian.PutUint32(b[1:], uint32(n))
		w.buf.Write(b[:5])
	default:
		b[0] = 0xff
		binary.LittleEndian.PutUint64(b[1:], n)
		w.buf.Write(b[:9])
	}
}

func (w *writer) writeVarSlice(b []byte) {
	w.writeCompactSize(uint64(len(b)))
	w.buf.Write(b)
}

// writeEntry writes one key-value pair of a map.
func (w *writer) writeEntry(key, value []byte) {
	w.writeVarSlice(key)
	w.writeVarSlice(value)
}

// endMap writes the map separator.
func (w *writer) endMap() {
	w.buf.WriteByte(0x00)
}

func compactSizeBytes(n uint64) []byte {
	var w writer
	w.writeCompactSize(n)
	return w.buf.Bytes()
}

// mapKey builds a key from a key type and key data.
func mapKey(keyType uint64, keyData []byte) []byte {
	k := compactSizeBytes(keyType)
	return append(k, keyData...)
}

// elementsKey builds a proprietary key under the Elements prefix.
func elementsKey(subtype uint64, keyData []byte) []byte {
	var w writer
	w.writeCompactSize(keyTypeProprietary)
	w.writeVarSlice([]byte(ElementsPrefix))
	w.writeCompactSize(subtype)
	w.buf.Write(keyData)
	return w.buf.Bytes()
}

func uint32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func derivationBytes(d Derivation) []byte {
	b := make([]byte, 0, 4+4*len(d.Path))
	b = append(b, d.Fingerprint[:]...)
	for _, step := range d.Path {
		b = binary.LittleEndian.AppendUint32(b, step)
	}
	return b
}
