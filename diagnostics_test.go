// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "testing"

func TestDiagnoseRespectsIgnoreGlobs(t *testing.T) {
	def := &Definition{Fields: []Field{
		{Name: "key", Type: FieldStringU8, IsKey: true},
		{Name: "key", Type: FieldStringU8, IsKey: true},
	}}
	p := NewPack(HeaderPFH5, SubtypeMod)
	p.Settings.Set("diagnostics_files_to_ignore", "db/unit_tables/*")
	p.InsertBytes("db/unit_tables/custom", nil)
	p.Get("db/unit_tables/custom").SetDecodedDB(&DB{TableName: "unit_tables", Table: &Table{
		Definition: def,
		Rows:       []Row{{{Str: "a"}, {Str: "a"}}, {{Str: "a"}, {Str: "a"}}},
	}})

	diags := Diagnose(nil, p)
	if len(diags) != 0 {
		t.Fatalf("expected ignored path to produce no diagnostics, got %+v", diags)
	}
}

func TestCheckDuplicatePrimaryKeys(t *testing.T) {
	def := &Definition{Fields: []Field{
		{Name: "key", Type: FieldStringU8, IsKey: true},
		{Name: "cost", Type: FieldI32},
	}}
	db := &DB{TableName: "unit_tables", Table: &Table{
		Definition: def,
		Rows: []Row{
			{{Str: "wh_main_spear_men"}, {Int: 250}},
			{{Str: "wh_main_halberdiers"}, {Int: 300}},
			{{Str: "wh_main_spear_men"}, {Int: 260}},
		},
	}}

	diags := checkDuplicatePKs("db/unit_tables/custom", db)
	if len(diags) != 1 {
		t.Fatalf("expected 1 duplicate diagnostic, got %d: %+v", len(diags), diags)
	}
	if diags[0].Row != 2 {
		t.Fatalf("expected duplicate flagged at row 2, got %d", diags[0].Row)
	}
}

func TestCheckDuplicatePrimaryKeysCompositeKey(t *testing.T) {
	def := &Definition{Fields: []Field{
		{Name: "a", Type: FieldStringU8, IsKey: true},
		{Name: "b", Type: FieldStringU8, IsKey: true},
	}}
	db := &DB{TableName: "x_tables", Table: &Table{
		Definition: def,
		Rows: []Row{
			{{Str: "x"}, {Str: "1"}},
			{{Str: "x"}, {Str: "2"}}, // different composite key: fine
			{{Str: "x"}, {Str: "1"}}, // collides with row 0
		},
	}}
	diags := checkDuplicatePKs("db/x_tables/custom", db)
	if len(diags) != 1 || diags[0].Row != 2 {
		t.Fatalf("expected composite-key collision at row 2, got %+v", diags)
	}
}

func TestCheckLocOrphansFlagsMissingDerivedKey(t *testing.T) {
	def := &Definition{
		Fields: []Field{
			{Name: "key", Type: FieldStringU8, IsKey: true},
		},
		LocalisedFields: []string{"onscreen_name"},
	}
	db := &DB{TableName: "unit_tables", Table: &Table{
		Definition: def,
		Rows:       []Row{{{Str: "wh_main_spear_men"}}},
	}}

	allLocKeys := map[string]bool{}
	diags := checkLocOrphans("db/unit_tables/custom", db, allLocKeys)
	if len(diags) != 1 {
		t.Fatalf("expected 1 orphan diagnostic, got %+v", diags)
	}
	if diags[0].Kind != DiagLocKeyOrphan {
		t.Fatalf("expected DiagLocKeyOrphan, got %v", diags[0].Kind)
	}

	allLocKeys["unit_onscreen_name_wh_main_spear_men"] = true
	diags = checkLocOrphans("db/unit_tables/custom", db, allLocKeys)
	if len(diags) != 0 {
		t.Fatalf("expected no orphan once the Loc key exists, got %+v", diags)
	}
}

func TestCheckRefTargetsSkipsKnownMissingFields(t *testing.T) {
	def := &Definition{Fields: []Field{
		{Name: "art_set_id", Type: FieldStringU8, Reference: &Reference{Table: "unit_art_sets_tables", Column: "key"}},
	}}
	db := &DB{TableName: "unit_tables", Table: &Table{
		Definition: def,
		Rows:       []Row{{{Str: "missing_set"}}},
	}}

	game := &Game{KnownMissingFields: map[string][]string{"unit_tables": {"art_set_id"}}}
	dep := NewDependencies()
	ctx := &Context{Game: game, Dependencies: dep}

	diags := checkRefTargets(ctx, "db/unit_tables/custom", db)
	if len(diags) != 0 {
		t.Fatalf("expected suppression to skip the check entirely, got %+v", diags)
	}
}

func TestCheckRefTargetsFlagsUnresolvedReference(t *testing.T) {
	def := &Definition{Fields: []Field{
		{Name: "art_set_id", Type: FieldStringU8, Reference: &Reference{Table: "unit_art_sets_tables", Column: "key"}},
	}}
	db := &DB{TableName: "unit_tables", Table: &Table{
		Definition: def,
		Rows:       []Row{{{Str: "missing_set"}}},
	}}

	dep := NewDependencies()
	dep.vanilla["db/unit_art_sets_tables/data__"] = &decodedFile{
		ft: FileTypeDB,
		db: &DB{TableName: "unit_art_sets_tables", Table: &Table{
			Definition: &Definition{Fields: []Field{{Name: "key", Type: FieldStringU8, IsKey: true}}},
			Rows:       []Row{{{Str: "known_set"}}},
		}},
	}
	ctx := &Context{Dependencies: dep}

	diags := checkRefTargets(ctx, "db/unit_tables/custom", db)
	if len(diags) != 1 || diags[0].Kind != DiagRefTargetNotFound {
		t.Fatalf("expected 1 RefTargetNotFound diagnostic, got %+v", diags)
	}
}

func TestDiagnoseAggregatesAcrossChecks(t *testing.T) {
	def := &Definition{
		Fields: []Field{
			{Name: "key", Type: FieldStringU8, IsKey: true},
		},
		LocalisedFields: []string{"onscreen_name"},
	}
	p := NewPack(HeaderPFH5, SubtypeMod)
	p.InsertBytes("db/unit_tables/custom", nil)
	p.Get("db/unit_tables/custom").SetDecodedDB(&DB{TableName: "unit_tables", Table: &Table{
		Definition: def,
		Rows: []Row{
			{{Str: "wh_main_spear_men"}},
			{{Str: "wh_main_spear_men"}}, // duplicate PK
		},
	}})

	diags := Diagnose(nil, p)
	var sawDup, sawOrphan bool
	for _, d := range diags {
		switch d.Kind {
		case DiagDuplicatePrimaryKey:
			sawDup = true
		case DiagLocKeyOrphan:
			sawOrphan = true
		}
	}
	if !sawDup || !sawOrphan {
		t.Fatalf("expected both duplicate-PK and Loc-orphan diagnostics, got %+v", diags)
	}
}
