// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "testing"

func newDBPack(t *testing.T, path, tableName string, def *Definition, rows []Row) *Pack {
	t.Helper()
	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes(path, nil)
	e := p.Get(path)
	e.SetDecodedDB(&DB{TableName: tableName, Table: &Table{Definition: def, Rows: rows}})
	return p
}

func TestOptimizeRemovesRowsMatchingVanilla(t *testing.T) {
	def := unitDefV1()
	vanillaRows := []Row{{{Str: "wh_main_spear_men"}, {Int: 250}}}
	openRows := []Row{
		{{Str: "wh_main_spear_men"}, {Int: 250}}, // identical to vanilla: dropped
		{{Str: "wh_main_custom_unit"}, {Int: 999}}, // modded: kept
	}

	p := newDBPack(t, "db/unit_tables/custom", def, openRows)

	vanilla := newDBPack(t, "db/unit_tables/data__", def, vanillaRows)
	dep := NewDependencies()
	dep.vanilla = map[string]*decodedFile{
		"db/unit_tables/data__": {path: "db/unit_tables/data__", db: vanilla.Get("db/unit_tables/data__").Payload.(*DecodedPayload).DB, ft: FileTypeDB},
	}

	result := Optimize(nil, p, dep)
	if result.RowsRemovedBy["db/unit_tables/custom"] != 1 {
		t.Fatalf("expected 1 row removed, got %d", result.RowsRemovedBy["db/unit_tables/custom"])
	}

	remaining := p.Get("db/unit_tables/custom").Payload.(*DecodedPayload).DB.Table.Rows
	if len(remaining) != 1 || remaining[0][0].Str != "wh_main_custom_unit" {
		t.Fatalf("unexpected remaining rows: %+v", remaining)
	}
}

func TestOptimizeRemovesWholeEmptyFile(t *testing.T) {
	def := unitDefV1()
	p := newDBPack(t, "db/unit_tables/custom", def, []Row{{{Str: "wh_main_spear_men"}, {Int: 250}}})

	vanilla := newDBPack(t, "db/unit_tables/data__", def, []Row{{{Str: "wh_main_spear_men"}, {Int: 250}}})
	dep := NewDependencies()
	dep.vanilla = map[string]*decodedFile{
		"db/unit_tables/data__": {path: "db/unit_tables/data__", db: vanilla.Get("db/unit_tables/data__").Payload.(*DecodedPayload).DB, ft: FileTypeDB},
	}

	result := Optimize(nil, p, dep)
	if len(result.RemovedFiles) != 1 || result.RemovedFiles[0] != "db/unit_tables/custom" {
		t.Fatalf("expected custom file removed entirely, got %+v", result.RemovedFiles)
	}
	if p.Get("db/unit_tables/custom") != nil {
		t.Fatal("expected entry to be gone from the Pack")
	}
}

func TestOptimizeIsIdempotent(t *testing.T) {
	def := unitDefV1()
	p := newDBPack(t, "db/unit_tables/custom", def, []Row{{{Str: "wh_main_custom_unit"}, {Int: 999}}})
	dep := NewDependencies()

	first := Optimize(nil, p, dep)
	second := Optimize(nil, p, dep)
	if len(second.RemovedFiles) != 0 || len(second.RowsRemovedBy) != 0 {
		t.Fatalf("second Optimize pass should remove nothing further: %+v (first removed %+v)", second, first)
	}
}

func TestRemoveUnusedArtSets(t *testing.T) {
	artDef := &Definition{Fields: []Field{{Name: "key", Type: FieldStringU8, IsKey: true}}}
	referrerDef := &Definition{Fields: []Field{{Name: "art_set_id", Type: FieldStringU8}}}

	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes("db/unit_art_sets_tables/custom", nil)
	p.Get("db/unit_art_sets_tables/custom").SetDecodedDB(&DB{
		TableName: "unit_art_sets_tables",
		Table: &Table{Definition: artDef, Rows: []Row{
			{{Str: "used_set"}}, {{Str: "unused_set"}},
		}},
	})
	p.InsertBytes("db/unit_to_art_sets_tables/custom", nil)
	p.Get("db/unit_to_art_sets_tables/custom").SetDecodedDB(&DB{
		TableName: "unit_to_art_sets_tables",
		Table:     &Table{Definition: referrerDef, Rows: []Row{{{Str: "used_set"}}}},
	})

	dep := NewDependencies()
	removed := RemoveUnusedArtSets(nil, p, dep)
	if len(removed) != 1 || removed[0] != "unused_set" {
		t.Fatalf("expected unused_set removed, got %v", removed)
	}
}

func TestRemoveEmptyMasks(t *testing.T) {
	def := &Definition{Fields: []Field{
		{Name: "key", Type: FieldStringU8, IsKey: true},
		{Name: "mask", Type: FieldStringU8},
	}}
	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes("db/battle_set_pieces_tables/custom", nil)
	p.Get("db/battle_set_pieces_tables/custom").SetDecodedDB(&DB{
		TableName: "battle_set_pieces_tables",
		Table: &Table{Definition: def, Rows: []Row{
			{{Str: "a"}, {Str: "mask.dds"}},
			{{Str: "b"}, {Str: ""}},
		}},
	})

	removed := RemoveEmptyMasks(nil, p)
	if len(removed) != 1 {
		t.Fatalf("expected 1 row removed, got %d", len(removed))
	}
	remaining := p.Get("db/battle_set_pieces_tables/custom").Payload.(*DecodedPayload).DB.Table.Rows
	if len(remaining) != 1 || remaining[0][0].Str != "a" {
		t.Fatalf("unexpected remaining rows: %+v", remaining)
	}
}
