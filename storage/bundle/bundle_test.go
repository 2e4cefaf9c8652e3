package bundle_test

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/pset/psettext"
	"xdao.co/pset/storage"
	"xdao.co/pset/storage/bundle"
	"xdao.co/pset/storage/localfs"
	"xdao.co/pset/storage/testkit"
)

func newStore(t *testing.T) *localfs.Store {
	t.Helper()
	s, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	st := newStore(t)

	id1, err := st.Put(testkit.SamplePSET(1))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := st.Put(testkit.SamplePSET(2))
	if err != nil {
		t.Fatal(err)
	}

	var outA bytes.Buffer
	if err := bundle.Export(&outA, st, []cid.Cid{id2, id1}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}
	var outB bytes.Buffer
	if err := bundle.Export(&outB, st, []cid.Cid{id1, id2, id1}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_EntriesAreCanonicalText(t *testing.T) {
	st := newStore(t)
	p := testkit.SamplePSET(3)
	id, err := st.Put(p)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := bundle.Export(&buf, st, []cid.Cid{id}, bundle.ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(&buf)
	h, err := tr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "psets/"+id.String() {
		t.Fatalf("unexpected entry name %q", h.Name)
	}
	body, err := io.ReadAll(tr)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != psettext.Render(p) {
		t.Fatalf("entry is not the canonical text")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	src := newStore(t)
	p := testkit.SamplePSET(4)
	id, err := src.Put(p)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	labels := map[string]cid.Cid{"offer": id}
	if err := bundle.Export(&buf, src, []cid.Cid{id}, bundle.ExportOptions{IncludeIndex: true, Labels: labels}); err != nil {
		t.Fatal(err)
	}

	dst := newStore(t)
	ids, err := bundle.Import(bytes.NewReader(buf.Bytes()), dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || !ids[0].Equals(id) {
		t.Fatalf("unexpected imported CIDs: %v", ids)
	}

	got, err := dst.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(p) {
		t.Fatalf("PSET mismatch")
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	good := testkit.SamplePSET(5)
	other := testkit.MustID(t, testkit.SamplePSET(6))

	// Name says "other" but the text parses to "good".
	bundleBytes := makeDeterministicTar(t, "psets/"+other.String(), []byte(psettext.Render(good)))

	if _, err := bundle.Import(bytes.NewReader(bundleBytes), newStore(t)); err != storage.ErrCIDMismatch {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportRejectsBadText(t *testing.T) {
	id := testkit.MustID(t, testkit.SamplePSET(7))
	bundleBytes := makeDeterministicTar(t, "psets/"+id.String(), []byte("Zm9v!mFy"))

	_, err := bundle.Import(bytes.NewReader(bundleBytes), newStore(t))
	if !psettext.IsEnvelope(err) {
		t.Fatalf("expected envelope error, got %v", err)
	}
}

func TestBundle_ImportUnknownEntry(t *testing.T) {
	bundleBytes := makeDeterministicTar(t, "notes.txt", []byte("hi"))

	if _, err := bundle.Import(bytes.NewReader(bundleBytes), newStore(t)); err == nil {
		t.Fatalf("expected unknown entry to fail closed")
	}
	ids, err := bundle.ImportWithOptions(bytes.NewReader(bundleBytes), newStore(t), bundle.ImportOptions{IgnoreUnknown: true})
	if err != nil {
		t.Fatalf("expected unknown entry to be ignored: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected nothing imported")
	}
}

func TestBundle_ImportRejectsTraversal(t *testing.T) {
	bundleBytes := makeDeterministicTar(t, "psets/../../etc/passwd", []byte("x"))
	_, err := bundle.Import(bytes.NewReader(bundleBytes), newStore(t))
	if err == nil || errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected invalid path error, got %v", err)
	}
}

func makeDeterministicTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
