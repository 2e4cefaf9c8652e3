package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/pset/pset"
)

// NamedStore associates a Store with a stable backend name, e.g. a server address.
type NamedStore struct {
	Name  string
	Store Store
}

// ReplicatingStore writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require every
// returned CID to equal the PSET's own ID (otherwise ErrCIDMismatch).
//
// Use PutAll when you need the per-backend CID mapping.
type ReplicatingStore struct {
	Backends []NamedStore
}

var _ Store = ReplicatingStore{}

// PutAll writes p to all backends.
//
// It returns the canonical CID and a map of backend name to returned CID.
// On a mismatch the map holds the answers collected so far.
func (r ReplicatingStore) PutAll(p *pset.Pset) (cid.Cid, map[string]cid.Cid, error) {
	if p == nil {
		return cid.Undef, nil, ErrNilPSET
	}
	want, err := p.ID()
	if err != nil {
		return cid.Undef, nil, err
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatingStore has no backends")
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(p)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if !got.Equals(want) {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingStore) Put(p *pset.Pset) (cid.Cid, error) {
	id, _, err := r.PutAll(p)
	return id, err
}

func (r ReplicatingStore) Get(id cid.Cid) (*pset.Pset, error) {
	stores := make([]Store, 0, len(r.Backends))
	for _, b := range r.Backends {
		stores = append(stores, b.Store)
	}
	return getInOrder(id, stores)
}

func (r ReplicatingStore) Has(id cid.Cid) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}
