// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "testing"

func TestDBReferenceDataPrefersParentOverVanillaThenOpenPack(t *testing.T) {
	ref := &Reference{Table: "faction_tables", Column: "key", LookupColumns: []string{"name"}}
	def := &Definition{Fields: []Field{
		{Name: "faction", Type: FieldStringU8, Reference: ref},
	}}
	factionDef := &Definition{Fields: []Field{
		{Name: "key", Type: FieldStringU8, IsKey: true},
		{Name: "name", Type: FieldStringU8},
	}}

	dep := NewDependencies()
	dep.vanilla["db/faction_tables/data__"] = &decodedFile{
		path: "db/faction_tables/data__", ft: FileTypeDB,
		db: &DB{TableName: "faction_tables", Table: &Table{Definition: factionDef, Rows: []Row{
			{{Str: "empire"}, {Str: "Vanilla Empire"}},
		}}},
	}
	dep.parent["db/faction_tables/mod1"] = &decodedFile{
		path: "db/faction_tables/mod1", ft: FileTypeDB,
		db: &DB{TableName: "faction_tables", Table: &Table{Definition: factionDef, Rows: []Row{
			{{Str: "empire"}, {Str: "Parent Empire"}},
		}}},
	}

	data := dep.DBReferenceData("unit_tables", def, nil)
	dd := data["faction"]
	if dd == nil {
		t.Fatal("expected DependencyData for the faction field")
	}
	if dd.Values["empire"] != "Parent Empire" {
		t.Fatalf("expected parent value to win, got %q", dd.Values["empire"])
	}

	openPack := NewPack(HeaderPFH5, SubtypeMod)
	openPack.InsertBytes("db/faction_tables/custom", nil)
	openPack.Get("db/faction_tables/custom").SetDecodedDB(&DB{
		TableName: "faction_tables",
		Table: &Table{Definition: factionDef, Rows: []Row{
			{{Str: "empire"}, {Str: "Open Pack Empire"}},
		}},
	})

	dep.ForceRegenerate()
	data = dep.DBReferenceData("unit_tables", def, openPack)
	if data["faction"].Values["empire"] != "Open Pack Empire" {
		t.Fatalf("expected open-Pack value to win, got %q", data["faction"].Values["empire"])
	}
}

func TestDBReferenceDataMemoizes(t *testing.T) {
	def := &Definition{Fields: []Field{
		{Name: "faction", Type: FieldStringU8, Reference: &Reference{Table: "faction_tables", Column: "key"}},
	}}
	dep := NewDependencies()

	first := dep.DBReferenceData("unit_tables", def, nil)
	dep.vanilla["db/faction_tables/data__"] = &decodedFile{
		path: "db/faction_tables/data__", ft: FileTypeDB,
		db: &DB{TableName: "faction_tables", Table: &Table{
			Definition: &Definition{Fields: []Field{{Name: "key", Type: FieldStringU8, IsKey: true}}},
			Rows:       []Row{{{Str: "empire"}}},
		}},
	}
	second := dep.DBReferenceData("unit_tables", def, nil)
	if len(second["faction"].Values) != len(first["faction"].Values) {
		t.Fatal("expected the memoised result to be returned unchanged before ForceRegenerate")
	}

	dep.ForceRegenerate()
	third := dep.DBReferenceData("unit_tables", def, nil)
	if len(third["faction"].Values) == 0 {
		t.Fatal("expected ForceRegenerate to pick up the newly added vanilla row")
	}
}

func TestLocDataMergesParentOverVanilla(t *testing.T) {
	dep := NewDependencies()
	dep.vanilla["text/db/local_en.loc"] = &decodedFile{
		ft: FileTypeLoc,
		loc: &Loc{Table: &Table{Definition: LocDefinition(), Rows: []Row{
			{{Str: "k1"}, {Str: "vanilla text"}, {Bool: false}},
		}}},
	}
	dep.parent["text/db/local_en.loc"] = &decodedFile{
		ft: FileTypeLoc,
		loc: &Loc{Table: &Table{Definition: LocDefinition(), Rows: []Row{
			{{Str: "k1"}, {Str: "parent text"}, {Bool: false}},
		}}},
	}

	merged := dep.LocData(true, true)
	text, ok := merged.Get("k1")
	if !ok || text != "parent text" {
		t.Fatalf("expected parent text to win, got %q, %v", text, ok)
	}
}

func TestBruteforceLocOrder(t *testing.T) {
	loc := &Loc{Table: &Table{Definition: LocDefinition(), Rows: []Row{
		{{Str: "unit_onscreen_name_wh_main_hero_001"}, {Str: "Grombrindal"}, {Bool: false}},
		{{Str: "unit_onscreen_name_wh_main_hero_002"}, {Str: "Karl Franz"}, {Bool: false}},
		{{Str: "faction_onscreen_name_wh_main_emp"}, {Str: "Empire"}, {Bool: false}},
	}}}

	suffixes := BruteforceLocOrder(loc, "unit", "onscreen_name")
	if len(suffixes) != 2 {
		t.Fatalf("expected 2 matching suffixes, got %v", suffixes)
	}
}

func TestDBVersionFindsHighestAcrossCaches(t *testing.T) {
	dep := NewDependencies()
	dep.vanilla["a"] = &decodedFile{db: &DB{TableName: "unit_tables", Table: &Table{Definition: &Definition{Version: 1}}}}
	dep.parent["b"] = &decodedFile{db: &DB{TableName: "unit_tables", Table: &Table{Definition: &Definition{Version: 3}}}}

	v, ok := dep.DBVersion("unit_tables")
	if !ok || v != 3 {
		t.Fatalf("expected version 3, got %d, %v", v, ok)
	}
	if _, ok := dep.DBVersion("missing_tables"); ok {
		t.Fatal("expected no version found for an unknown table")
	}
}
