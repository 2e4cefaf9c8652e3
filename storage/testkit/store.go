// Package testkit holds the conformance suite every storage.Store must pass.
package testkit

import (
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/pset/pset"
	"xdao.co/pset/storage"
)

// NewStore constructs a fresh, empty Store for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.Store

// SamplePSET returns a small valid PSET whose content, and therefore CID,
// depends on n.
func SamplePSET(n uint32) *pset.Pset {
	var txid [32]byte
	txid[0] = byte(n)
	txid[1] = byte(n >> 8)
	amount := uint64(1000 + n)
	return &pset.Pset{
		Global: pset.Global{TxVersion: 2},
		Inputs: []pset.Input{{
			PreviousTxid:        txid,
			PreviousOutputIndex: n,
		}},
		Outputs: []pset.Output{{
			Amount: &amount,
			Script: []byte{0x00, 0x14, byte(n), 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13},
		}},
	}
}

// MustID returns p.ID() or fails the test.
func MustID(t *testing.T, p *pset.Pset) cid.Cid {
	t.Helper()
	id, err := p.ID()
	if err != nil {
		t.Fatalf("ID failed: %v", err)
	}
	return id
}

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := SamplePSET(1)

		id, err := s.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if wantID := MustID(t, want); !id.Equals(wantID) {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.Equal(want) {
			t.Fatalf("Get returned a different PSET")
		}
		if gotID := MustID(t, got); !gotID.Equals(id) {
			t.Fatalf("Get returned a PSET not matching the requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		p := SamplePSET(2)

		id1, err := s.Put(p)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := s.Put(SamplePSET(2))
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if !id1.Equals(id2) {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		p := SamplePSET(3)
		id := MustID(t, p)

		if s.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err := s.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := s.Put(p); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("DistinctPSETsDistinctCIDs", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Put(SamplePSET(4))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		b, err := s.Put(SamplePSET(5))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if a.Equals(b) {
			t.Fatalf("different PSETs share CID %s", a)
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		s := newStore(t)
		var undef cid.Cid
		if s.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := s.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("RejectNilPSET", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Put(nil); err == nil {
			t.Fatalf("Put(nil) should fail")
		}
	})
}
