// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "testing"

func unitDefV1() *Definition {
	return &Definition{
		Version: 1,
		Fields: []Field{
			{Name: "key", Type: FieldStringU8, IsKey: true},
			{Name: "cost", Type: FieldI32},
		},
	}
}

func unitDefV2() *Definition {
	return &Definition{
		Version: 2,
		Fields: []Field{
			{Name: "key", Type: FieldStringU8, IsKey: true},
			{Name: "cost", Type: FieldI32},
			{Name: "upkeep", Type: FieldI32, Default: "100"},
		},
	}
}

func TestSchemaLastDefinitionPicksHighestVersion(t *testing.T) {
	s := NewSchema("warhammer_3")
	s.AddDefinition("unit_tables", unitDefV1())
	s.AddDefinition("unit_tables", unitDefV2())

	d, err := s.LastDefinition("unit_tables")
	if err != nil {
		t.Fatal(err)
	}
	if d.Version != 2 {
		t.Fatalf("expected version 2, got %d", d.Version)
	}
}

func TestSchemaDefinitionsNewestFirst(t *testing.T) {
	s := NewSchema("warhammer_3")
	s.AddDefinition("unit_tables", unitDefV1())
	s.AddDefinition("unit_tables", unitDefV2())

	defs := s.DefinitionsNewestFirst("unit_tables")
	if len(defs) != 2 || defs[0].Version != 2 || defs[1].Version != 1 {
		t.Fatalf("unexpected order: %+v", defs)
	}
}

func TestSchemaNotFound(t *testing.T) {
	s := NewSchema("warhammer_3")
	if _, err := s.LastDefinition("missing_tables"); err == nil {
		t.Fatal("expected SchemaNotFound error")
	} else if e, ok := err.(*Error); !ok || e.Kind != KindSchemaNotFound {
		t.Fatalf("expected KindSchemaNotFound, got %v", err)
	}
}

func TestPatchOverrideAppliesWithoutMutatingBase(t *testing.T) {
	s := NewSchema("warhammer_3")
	base := unitDefV1()
	s.AddDefinition("unit_tables", base)
	newDefault := "9999"
	s.Patch.Overrides = append(s.Patch.Overrides, PatchOverride{
		Table: "unit_tables", Version: 1, Field: "cost", NewDefault: &newDefault,
	})

	patched, err := s.DefinitionByNameAndVersion("unit_tables", 1)
	if err != nil {
		t.Fatal(err)
	}
	if patched.Fields[1].Default != "9999" {
		t.Fatalf("expected patched default 9999, got %q", patched.Fields[1].Default)
	}
	if base.Fields[1].Default != "" {
		t.Fatalf("patch mutated the base definition: %q", base.Fields[1].Default)
	}
}

func TestNewRowUsesFieldDefaults(t *testing.T) {
	row := unitDefV2().NewRow()
	if row[2].Int != 100 {
		t.Fatalf("expected default upkeep 100, got %d", row[2].Int)
	}
	if row[0].Str != "" {
		t.Fatalf("expected empty string default, got %q", row[0].Str)
	}
}

func TestLocalisedKeyAndTableStem(t *testing.T) {
	if got := TableStem("unit_tables"); got != "unit" {
		t.Fatalf("TableStem = %q", got)
	}
	if got := TableStem("unit"); got != "unit" {
		t.Fatalf("TableStem without suffix = %q", got)
	}
	if got := LocalisedKey("unit", "onscreen_name", "wh_main_hero_001"); got != "unit_onscreen_name_wh_main_hero_001" {
		t.Fatalf("LocalisedKey = %q", got)
	}
}

func TestKeyFieldIndexesAndFieldIndex(t *testing.T) {
	def := unitDefV2()
	if idx := def.KeyFieldIndexes(); len(idx) != 1 || idx[0] != 0 {
		t.Fatalf("KeyFieldIndexes = %v", idx)
	}
	if i := def.FieldIndex("upkeep"); i != 2 {
		t.Fatalf("FieldIndex(upkeep) = %d", i)
	}
	if i := def.FieldIndex("nonexistent"); i != -1 {
		t.Fatalf("FieldIndex(nonexistent) = %d", i)
	}
}
