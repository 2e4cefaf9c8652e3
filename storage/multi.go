package storage

import (
	"errors"

	"github.com/ipfs/go-cid"

	"xdao.co/pset/pset"
)

// MultiStore provides deterministic, ordered fallback across multiple stores.
//
// Read order is the slice order in Stores; callers MUST supply a fixed order.
//
// Put is defined to write only to the first store.
type MultiStore struct {
	Stores []Store
}

var _ Store = MultiStore{}

func (m MultiStore) Put(p *pset.Pset) (cid.Cid, error) {
	if len(m.Stores) == 0 {
		return cid.Undef, errors.New("storage: MultiStore has no stores")
	}
	return m.Stores[0].Put(p)
}

func (m MultiStore) Get(id cid.Cid) (*pset.Pset, error) {
	return getInOrder(id, m.Stores)
}

func (m MultiStore) Has(id cid.Cid) bool {
	for _, s := range m.Stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// getInOrder returns the first hit. A not-found answer moves on to the next
// store; any other error stops the search.
func getInOrder(id cid.Cid, stores []Store) (*pset.Pset, error) {
	for _, s := range stores {
		if s == nil {
			continue
		}
		p, err := s.Get(id)
		if err == nil {
			return p, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}
