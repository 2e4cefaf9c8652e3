package storage

import (
	"github.com/ipfs/go-cid"

	"xdao.co/pset/pset"
)

// Store is the PSET exchange contract shared by coordinators and signers.
//
// Contract:
// - Put MUST be idempotent.
// - Stored PSETs MUST be immutable.
// - The CID is the CID of the canonical encoding (see (*pset.Pset).ID), so two
//   texts that parse to equal PSETs are stored once.
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(p *pset.Pset) (cid.Cid, error)
	Get(id cid.Cid) (*pset.Pset, error)
	Has(id cid.Cid) bool
}
