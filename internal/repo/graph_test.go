package repo

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Faultbox/primio/pkg/rid"
	"github.com/Faultbox/primio/pkg/rpkg"
)

type testRecord struct {
	id   rid.ID
	typ  string
	data string
	refs []rpkg.Reference
}

func writeArchive(t *testing.T, dir, name string, records []testRecord, deletions ...rid.ID) {
	t.Helper()
	a := rpkg.New()
	for _, r := range records {
		if err := a.InsertFile(r.id, r.typ, []byte(r.data), r.refs); err != nil {
			t.Fatalf("InsertFile: %v", err)
		}
	}
	a.AddDeletions(deletions...)
	if err := a.Write(filepath.Join(dir, name)); err != nil {
		t.Fatalf("Write %s: %v", name, err)
	}
}

func TestSortArchives(t *testing.T) {
	paths := []string{
		"/rt/dlc1.rpkg",
		"/rt/chunk1patch2.rpkg",
		"/rt/chunk0patch1.rpkg",
		"/rt/readme.rpkg",
		"/rt/chunk1.rpkg",
		"/rt/chunk0.rpkg",
		"/rt/chunk1patch10.rpkg",
	}

	ordered, skipped := SortArchives(paths)
	want := []string{
		"/rt/chunk0.rpkg",
		"/rt/chunk0patch1.rpkg",
		"/rt/chunk1.rpkg",
		"/rt/chunk1patch2.rpkg",
		"/rt/chunk1patch10.rpkg",
		"/rt/dlc1.rpkg",
	}
	if !reflect.DeepEqual(ordered, want) {
		t.Errorf("ordered = %v, want %v", ordered, want)
	}
	if !reflect.DeepEqual(skipped, []string{"/rt/readme.rpkg"}) {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestGraphLayering(t *testing.T) {
	dir := t.TempDir()
	mesh := rid.ID(0x00d4a4a176a10980)
	mat := rid.ID(0x0011111111111111)
	old := rid.ID(0x0022222222222222)

	writeArchive(t, dir, "chunk0.rpkg", []testRecord{
		{id: mesh, typ: "PRIM", data: "base mesh"},
		{id: mat, typ: "MATI", data: "material"},
		{id: old, typ: "TEXD", data: "retired"},
	})
	writeArchive(t, dir, "chunk0patch1.rpkg", []testRecord{
		{id: mesh, typ: "PRIM", data: "patched mesh", refs: []rpkg.Reference{{ID: mat, Type: "MATI"}}},
	}, old)
	if err := os.WriteFile(filepath.Join(dir, "notes.rpkg"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer g.Close()

	if got := g.Archives(); !reflect.DeepEqual(got, []string{"chunk0.rpkg", "chunk0patch1.rpkg"}) {
		t.Errorf("Archives = %v", got)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}

	data, err := g.Resource(mesh)
	if err != nil {
		t.Fatalf("Resource: %v", err)
	}
	if string(data) != "patched mesh" {
		t.Errorf("Resource = %q, want patched mesh", data)
	}

	if g.Contains(old) {
		t.Error("deleted resource still resolves")
	}
	if _, err := g.Resource(old); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resource(deleted) error = %v, want ErrNotFound", err)
	}

	src, err := g.SourceStreamName(mesh)
	if err != nil || src != "chunk0patch1.rpkg" {
		t.Errorf("SourceStreamName(mesh) = %q, %v", src, err)
	}
	src, err = g.SourceStreamName(mat)
	if err != nil || src != "chunk0.rpkg" {
		t.Errorf("SourceStreamName(mat) = %q, %v", src, err)
	}

	typ, err := g.ResourceType(mat)
	if err != nil || typ != "MATI" {
		t.Errorf("ResourceType = %q, %v", typ, err)
	}
}

func TestGraphReferences(t *testing.T) {
	dir := t.TempDir()
	mesh := rid.ID(1)
	refs := []rpkg.Reference{
		{ID: 2, Type: "MATI"},
		{ID: 3, Type: "BORG"},
		{ID: 4, Type: "MATI"},
	}
	writeArchive(t, dir, "chunk2.rpkg", []testRecord{
		{id: mesh, typ: "PRIM", data: "m", refs: refs},
		{id: 2, typ: "MATI"},
		{id: 3, typ: "BORG"},
		{id: 4, typ: "MATI"},
	})

	g, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer g.Close()

	all, err := g.References(mesh)
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if !reflect.DeepEqual(all, refs) {
		t.Errorf("References = %v, want %v", all, refs)
	}

	mats, err := g.References(mesh, "MATI")
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(mats) != 2 || mats[0].ID != 2 || mats[1].ID != 4 {
		t.Errorf("References(MATI) = %v", mats)
	}

	none, err := g.References(mesh, "TEXD")
	if err != nil || len(none) != 0 {
		t.Errorf("References(TEXD) = %v, %v", none, err)
	}

	if _, err := g.References(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("References(missing) error = %v", err)
	}

	if got := g.IDsByType("MATI"); !reflect.DeepEqual(got, []rid.ID{2, 4}) {
		t.Errorf("IDsByType(MATI) = %v", got)
	}
}

func TestGraphCache(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "chunk0.rpkg", []testRecord{{id: 7, typ: "PRIM", data: "x"}})

	g, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer g.Close()

	for i := 0; i < 3; i++ {
		if _, err := g.Resource(7); err != nil {
			t.Fatalf("Resource: %v", err)
		}
	}
	hits, misses := g.CacheStats()
	if hits != 2 || misses != 1 {
		t.Errorf("CacheStats = %d/%d, want 2/1", hits, misses)
	}

	writeArchive(t, dir, "chunk0patch1.rpkg", []testRecord{{id: 7, typ: "PRIM", data: "y"}})
	if err := g.AddArchive(filepath.Join(dir, "chunk0patch1.rpkg")); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}
	data, err := g.Resource(7)
	if err != nil || string(data) != "y" {
		t.Errorf("Resource after patch = %q, %v", data, err)
	}
}

func TestOpenCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "chunk0.rpkg"), []byte("not an archive"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir, nil); err == nil {
		t.Error("expected error opening corrupt archive")
	}
}
