// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "testing"

func TestEncodeDecodeTableRoundTrip(t *testing.T) {
	def := unitDefV1()
	table := &Table{
		Definition: def,
		Rows: []Row{
			{{Str: "wh_main_spear_men_01"}, {Int: 250}},
			{{Str: "wh_main_spear_men_02"}, {Int: 300}},
		},
	}

	encoded, err := EncodeTable(table)
	if err != nil {
		t.Fatalf("EncodeTable: %v", err)
	}

	decoded, err := DecodeTable(encoded, def)
	if err != nil {
		t.Fatalf("DecodeTable: %v", err)
	}
	if len(decoded.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(decoded.Rows))
	}
	if decoded.Rows[0][0].Str != "wh_main_spear_men_01" || decoded.Rows[0][1].Int != 250 {
		t.Fatalf("row 0 mismatch: %+v", decoded.Rows[0])
	}
	if decoded.Rows[1][1].Int != 300 {
		t.Fatalf("row 1 mismatch: %+v", decoded.Rows[1])
	}
}

func TestDecodeTableRejectsTrailingBytes(t *testing.T) {
	def := unitDefV1()
	table := &Table{Definition: def, Rows: []Row{{{Str: "x"}, {Int: 1}}}}
	encoded, err := EncodeTable(table)
	if err != nil {
		t.Fatal(err)
	}
	encoded = append(encoded, 0xFF)

	if _, err := DecodeTable(encoded, def); err == nil {
		t.Fatal("expected TrailingBytes error")
	} else if e, ok := err.(*Error); !ok || e.Kind != KindTrailingBytes {
		t.Fatalf("expected KindTrailingBytes, got %v", err)
	}
}

func TestDecodeTableBestVersionPicksExactMatch(t *testing.T) {
	v2 := unitDefV2()
	table := &Table{Definition: v2, Rows: []Row{{{Str: "x"}, {Int: 1}, {Int: 50}}}}
	encoded, err := EncodeTable(table)
	if err != nil {
		t.Fatal(err)
	}

	candidates := []*Definition{v2, unitDefV1()}
	decoded, err := DecodeTableBestVersion(encoded, candidates)
	if err != nil {
		t.Fatalf("DecodeTableBestVersion: %v", err)
	}
	if decoded.Definition.Version != 2 {
		t.Fatalf("expected version 2 picked, got %d", decoded.Definition.Version)
	}
}

func TestDecodeTableBestVersionNoneMatchReturnsPartial(t *testing.T) {
	// Three fields worth of payload, but only a one-field candidate exists:
	// nothing can consume the buffer exactly.
	def := &Definition{Version: 1, Fields: []Field{{Name: "only", Type: FieldI32}}}
	junk := []byte{3, 0, 0, 0, 1, 2, 3, 4, 5, 6}

	_, err := DecodeTableBestVersion(junk, []*Definition{def})
	if err == nil {
		t.Fatal("expected an error")
	}
	e, ok := err.(*Error)
	if !ok || (e.Kind != KindTableIncomplete && e.Kind != KindNoDefinitionMatches) {
		t.Fatalf("expected TableIncomplete or NoDefinitionMatches, got %v", err)
	}
}

func TestValueStringRendersEachFieldType(t *testing.T) {
	cases := []struct {
		v    Value
		t    FieldType
		want string
	}{
		{Value{Bool: true}, FieldBool, "true"},
		{Value{Bool: false}, FieldBool, "false"},
		{Value{Int: -7}, FieldI32, "-7"},
		{Value{Str: "raw"}, FieldStringU8, "raw"},
	}
	for _, c := range cases {
		if got := c.v.String(c.t); got != c.want {
			t.Fatalf("String(%v, %v) = %q, want %q", c.v, c.t, got, c.want)
		}
	}
}

func TestSequenceFieldRoundTrip(t *testing.T) {
	nested := &Definition{Fields: []Field{{Name: "n", Type: FieldI32}}}
	outer := &Definition{Fields: []Field{
		{Name: "seq", Type: FieldSequenceU16, Nested: nested},
	}}
	table := &Table{
		Definition: outer,
		Rows: []Row{
			{{Table: &Table{Definition: nested, Rows: []Row{{{Int: 1}}, {{Int: 2}}}}}},
		},
	}

	encoded, err := EncodeTable(table)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeTable(encoded, outer)
	if err != nil {
		t.Fatal(err)
	}
	nestedRows := decoded.Rows[0][0].Table.Rows
	if len(nestedRows) != 2 || nestedRows[0][0].Int != 1 || nestedRows[1][0].Int != 2 {
		t.Fatalf("nested sequence mismatch: %+v", nestedRows)
	}
}
