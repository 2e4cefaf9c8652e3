// Package bundle moves sets of PSETs between stores as a deterministic TAR
// archive, for offline hand-off between coordinators and signers.
//
// Each PSET is an entry psets/<cid> holding its canonical base64 text. An
// optional index.json lists the entries and human labels; it is
// non-authoritative and ignored on import.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/pset/cidutil"
	"xdao.co/pset/psettext"
	"xdao.co/pset/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

const entryPrefix = "psets/"

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional, non-authoritative metadata mapping names to CIDs.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
}

// Export writes a deterministic TAR bundle containing the PSETs for the given CIDs.
//
// The bundle bytes are deterministic: entry order is lexicographic and TAR headers are normalized.
// Every exported PSET is checked against its CID.
func Export(w io.Writer, st storage.Store, ids []cid.Cid, opts ExportOptions) error {
	if st == nil {
		return fmt.Errorf("bundle: nil store")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}

	cidStrings := make([]string, 0, len(uniq))
	for s := range uniq {
		cidStrings = append(cidStrings, s)
	}
	sort.Strings(cidStrings)

	tw := tar.NewWriter(w)

	entries := make([]indexEntry, 0, len(cidStrings))
	for _, s := range cidStrings {
		id := uniq[s]
		p, err := st.Get(id)
		if err != nil {
			_ = tw.Close()
			return err
		}
		got, err := p.ID()
		if err != nil {
			_ = tw.Close()
			return err
		}
		if !got.Equals(id) {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}

		text := []byte(psettext.Render(p))
		if err := writeFile(tw, entryPrefix+s, text); err != nil {
			_ = tw.Close()
			return err
		}
		entries = append(entries, indexEntry{CID: s, Inputs: len(p.Inputs), Outputs: len(p.Outputs), TextBytes: len(text)})
	}

	if opts.IncludeIndex {
		idx := indexJSON{
			Version:   FormatVersion,
			CIDCodec:  "raw",
			Multihash: "sha2-256",
			PSETs:     entries,
		}

		if len(opts.Labels) > 0 {
			keys := make([]string, 0, len(opts.Labels))
			for k := range opts.Labels {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			labels := make([]indexLabel, 0, len(keys))
			for _, k := range keys {
				if k == "" {
					_ = tw.Close()
					return fmt.Errorf("bundle: empty label key")
				}
				v := opts.Labels[k]
				if !v.Defined() {
					_ = tw.Close()
					return storage.ErrInvalidCID
				}
				labels = append(labels, indexLabel{Name: k, CID: v.String()})
			}
			idx.Labels = labels
		}

		b, err := marshalCanonicalIndexJSON(idx)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, "index.json", b); err != nil {
			_ = tw.Close()
			return err
		}
	}

	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return an error.
	IgnoreUnknown bool
}

// Import reads a bundle from r and stores every PSET in st.
// It returns the imported CIDs in bundle order.
//
// Default behavior is fail-closed: unknown entries cause an error.
// Use ImportWithOptions to allow ignoring unknown entries.
func Import(r io.Reader, st storage.Store) ([]cid.Cid, error) {
	return ImportWithOptions(r, st, ImportOptions{})
}

// ImportWithOptions reads a bundle from r and stores every PSET in st.
//
// Each entry's text must parse, and the parsed PSET's CID must equal the
// CID in the entry name. Entries need not be canonical text; surrounding
// whitespace is ignored.
func ImportWithOptions(r io.Reader, st storage.Store, opts ImportOptions) ([]cid.Cid, error) {
	if st == nil {
		return nil, fmt.Errorf("bundle: nil store")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var out []cid.Cid

	for {
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return out, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		// Non-authoritative metadata.
		if name == "index.json" {
			_, _ = io.Copy(io.Discard, tr)
			continue
		}

		if !strings.HasPrefix(name, entryPrefix) {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return out, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, derr := cidutil.Parse(strings.TrimPrefix(name, entryPrefix))
		if derr != nil || !id.Defined() {
			return out, storage.ErrInvalidCID
		}

		text, rerr := io.ReadAll(tr)
		if rerr != nil {
			return out, rerr
		}
		p, perr := psettext.ParseBytes(bytes.TrimSpace(text))
		if perr != nil {
			return out, fmt.Errorf("bundle: %s: %w", name, perr)
		}
		got, herr := p.ID()
		if herr != nil {
			return out, herr
		}
		if !got.Equals(id) {
			return out, storage.ErrCIDMismatch
		}

		key := id.String()
		if _, ok := seen[key]; ok {
			return out, fmt.Errorf("bundle: duplicate entry: %s", key)
		}
		seen[key] = struct{}{}

		putID, err := st.Put(p)
		if err != nil {
			return out, err
		}
		if !putID.Equals(id) {
			return out, storage.ErrCIDMismatch
		}
		out = append(out, id)
	}
}

type indexJSON struct {
	Version   int          `json:"version"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	PSETs     []indexEntry `json:"psets"`
	Labels    []indexLabel `json:"labels,omitempty"`
}

type indexEntry struct {
	CID       string `json:"cid"`
	Inputs    int    `json:"inputs"`
	Outputs   int    `json:"outputs"`
	TextBytes int    `json:"textBytes"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func marshalCanonicalIndexJSON(idx indexJSON) ([]byte, error) {
	// indexJSON is composed only of structs + slices; encoding/json will be deterministic.
	b, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Format:   tar.FormatUSTAR,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return strings.Join(parts, "/")
}
