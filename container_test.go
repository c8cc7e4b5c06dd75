// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"os"
	"path/filepath"
	"testing"
)

func mustWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("Mkdir(%s): %v", path, err)
	}
}

func TestHeaderBitfieldRoundTrip(t *testing.T) {
	h := &header{subtype: SubtypeMod, hasExtendedHeader: true, indexHasTimestamps: true, payloadEncrypted: true}
	bf := h.bitfield()
	subtype, hasExt, idxTs, idxEnc, payEnc := parseBitfield(bf)
	if subtype != SubtypeMod || !hasExt || !idxTs || idxEnc || !payEnc {
		t.Fatalf("bitfield round trip mismatch: %v %v %v %v %v", subtype, hasExt, idxTs, idxEnc, payEnc)
	}
}

func TestHeaderEncodeDecodeRoundTripPFH0(t *testing.T) {
	h := &header{version: HeaderPFH0, subtype: SubtypeMod, packFileCount: 1, fileCount: 2}
	w := NewWriter()
	h.encode(w)

	decoded, err := decodeHeader(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if decoded.version != HeaderPFH0 || decoded.fileCount != 2 {
		t.Fatalf("unexpected decoded header: %+v", decoded)
	}
	if decoded.timestamp != 0 || decoded.gameVersion != 0 {
		t.Fatal("PFH0 should carry no timestamp/gameVersion fields")
	}
}

func TestHeaderEncodeDecodeRoundTripPFH5(t *testing.T) {
	h := &header{version: HeaderPFH5, subtype: SubtypeMovie, timestamp: 12345, gameVersion: 7}
	w := NewWriter()
	h.encode(w)

	decoded, err := decodeHeader(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if decoded.timestamp != 12345 || decoded.gameVersion != 7 {
		t.Fatalf("expected timestamp/gameVersion to round-trip, got %+v", decoded)
	}
}

func TestDecodeHeaderRejectsUnknownMagic(t *testing.T) {
	w := NewWriter()
	w.Raw([]byte("XXXX"))
	if _, err := decodeHeader(NewReader(w.Bytes())); err == nil {
		t.Fatal("expected an error for an unrecognised magic")
	}
}

func TestPackGetIsCaseInsensitive(t *testing.T) {
	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes("DB/Unit_Tables/Custom", []byte("x"))
	if p.Get("db/unit_tables/custom") == nil {
		t.Fatal("expected case-insensitive path resolution")
	}
}

func TestPackInsertBytesPreservesInsertionOrder(t *testing.T) {
	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes("b", []byte("1"))
	p.InsertBytes("a", []byte("2"))
	p.InsertBytes("b", []byte("3")) // override, same slot
	files := p.Files()
	if len(files) != 2 || files[0] != "b" || files[1] != "a" {
		t.Fatalf("unexpected order: %v", files)
	}
}

func TestPackRemoveSinglePathAndFolderPrefix(t *testing.T) {
	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes("db/unit_tables/a", nil)
	p.InsertBytes("db/unit_tables/b", nil)
	p.InsertBytes("text/db/local_en.loc", nil)

	removed := p.Remove("db/unit_tables")
	if len(removed) != 2 {
		t.Fatalf("expected 2 paths removed under folder prefix, got %v", removed)
	}
	if len(p.Files()) != 1 {
		t.Fatalf("expected 1 remaining file, got %v", p.Files())
	}

	removed = p.Remove("text/db/local_en.loc")
	if len(removed) != 1 {
		t.Fatalf("expected single-path removal, got %v", removed)
	}
	if len(p.Files()) != 0 {
		t.Fatal("expected Pack to be empty")
	}
}

func TestPackInsertFolderSkipsIgnoredPrefixes(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "keep.txt"), []byte("keep"))
	mustMkdir(t, filepath.Join(dir, "skip"))
	mustWriteFile(t, filepath.Join(dir, "skip", "dropped.txt"), []byte("drop"))

	p := NewPack(HeaderPFH5, SubtypeMod)
	if err := p.InsertFolder(dir, "", []string{"skip"}); err != nil {
		t.Fatalf("InsertFolder: %v", err)
	}
	if p.Get("keep.txt") == nil {
		t.Fatal("expected keep.txt to be inserted")
	}
	if p.Get("skip/dropped.txt") != nil {
		t.Fatal("expected skip/ contents to be ignored")
	}
}

func TestPackSaveAndOpenAndMergeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pack")

	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes("db/unit_tables/custom", []byte("hello"))
	if err := p.Save(path, nil, false, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	merged, errs := OpenAndMerge([]string{path}, nil)
	if errs.HasErrors() {
		t.Fatalf("OpenAndMerge errors: %v", errs)
	}
	e := merged.Get("db/unit_tables/custom")
	if e == nil {
		t.Fatal("expected entry to round-trip through Save/OpenAndMerge")
	}
	data, err := e.GetData()
	if err != nil || string(data) != "hello" {
		t.Fatalf("unexpected round-tripped data: %q, err=%v", data, err)
	}
	merged.Close()
}

func TestPackSaveRefusesNonEditableSubtypeWithoutOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "release.pack")
	p := NewPack(HeaderPFH5, SubtypeRelease)
	if err := p.Save(path, nil, false, false); err == nil {
		t.Fatal("expected Save to refuse a non-editable subtype without allowEditCA")
	}
	if err := p.Save(path, nil, true, false); err != nil {
		t.Fatalf("expected Save to succeed with allowEditCA, got %v", err)
	}
}

func TestOpenAndMergeLaterPackOverridesEarlier(t *testing.T) {
	dir := t.TempDir()
	p1 := NewPack(HeaderPFH5, SubtypeMod)
	p1.InsertBytes("db/unit_tables/custom", []byte("first"))
	path1 := filepath.Join(dir, "a.pack")
	if err := p1.Save(path1, nil, false, false); err != nil {
		t.Fatalf("Save p1: %v", err)
	}

	p2 := NewPack(HeaderPFH5, SubtypeMod)
	p2.InsertBytes("db/unit_tables/custom", []byte("second"))
	path2 := filepath.Join(dir, "b.pack")
	if err := p2.Save(path2, nil, false, false); err != nil {
		t.Fatalf("Save p2: %v", err)
	}

	merged, errs := OpenAndMerge([]string{path1, path2}, nil)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	data, err := merged.Get("db/unit_tables/custom").GetData()
	if err != nil || string(data) != "second" {
		t.Fatalf("expected later Pack to win, got %q, err=%v", data, err)
	}
	merged.Close()
}
