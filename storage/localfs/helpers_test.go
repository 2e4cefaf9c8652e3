package localfs

import (
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/pset/cidutil"
)

// storeRaw writes data where the store expects the object with data's CID.
func storeRaw(s *Store, data []byte) (cid.Cid, error) {
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	path := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}
	return id, os.WriteFile(path, data, 0o444)
}
