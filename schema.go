// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"fmt"
	"sort"
	"strconv"
)

// FieldType is the closed set of column types a Definition's Fields may
// declare.
type FieldType uint8

const (
	FieldBool FieldType = iota
	FieldF32
	FieldF64
	FieldI16
	FieldI32
	FieldI64
	FieldColorRGB
	FieldStringU8
	FieldStringU16
	FieldOptionalStringU8
	FieldOptionalStringU16
	FieldSequenceU16
	FieldSequenceU32
)

func (t FieldType) String() string {
	switch t {
	case FieldBool:
		return "Bool"
	case FieldF32:
		return "F32"
	case FieldF64:
		return "F64"
	case FieldI16:
		return "I16"
	case FieldI32:
		return "I32"
	case FieldI64:
		return "I64"
	case FieldColorRGB:
		return "ColorRGB"
	case FieldStringU8:
		return "StringU8"
	case FieldStringU16:
		return "StringU16"
	case FieldOptionalStringU8:
		return "OptionalStringU8"
	case FieldOptionalStringU16:
		return "OptionalStringU16"
	case FieldSequenceU16:
		return "SequenceU16"
	case FieldSequenceU32:
		return "SequenceU32"
	default:
		return "Unknown"
	}
}

// Reference points a Field at a target table/column, with optional extra
// "lookup" columns used to render a human-readable display value for the
// referenced row.
type Reference struct {
	Table         string
	Column        string
	LookupColumns []string
}

// Field describes one column of a Definition.
type Field struct {
	Name        string
	Type        FieldType
	IsKey       bool
	Default     string
	MaxLength   int
	Reference   *Reference
	FilenameRelativePath string
	Description string

	// Nested is the column Definition for SequenceU16/SequenceU32 fields.
	// Nil for every other FieldType.
	Nested *Definition
}

// Definition is one versioned layout of a DB table or singleton file.
type Definition struct {
	Version int
	Fields  []Field

	// LocalisedFields lists column names whose values are keys into the
	// Loc table rather than literal strings. The Loc key for row r is
	// <table-stem>_<field>_<value of r's first key field>.
	LocalisedFields []string
}

// KeyFieldIndexes returns the positions of every Field with IsKey set.
func (d *Definition) KeyFieldIndexes() []int {
	var idx []int
	for i, f := range d.Fields {
		if f.IsKey {
			idx = append(idx, i)
		}
	}
	return idx
}

// FieldIndex returns the position of the named field, or -1.
func (d *Definition) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// NewRow returns a Row whose cells are each Field's declared default, or
// the type's zero value when no default is set.
func (d *Definition) NewRow() Row {
	row := make(Row, len(d.Fields))
	for i, f := range d.Fields {
		row[i] = zeroValue(f)
	}
	return row
}

func zeroValue(f Field) Value {
	if f.Default != "" {
		if v, err := parseDefault(f, f.Default); err == nil {
			return v
		}
	}
	switch f.Type {
	case FieldBool:
		return Value{Bool: false}
	case FieldF32, FieldF64:
		return Value{Float: 0}
	case FieldI16, FieldI32, FieldI64, FieldColorRGB:
		return Value{Int: 0}
	case FieldStringU8, FieldStringU16, FieldOptionalStringU8, FieldOptionalStringU16:
		return Value{Str: ""}
	case FieldSequenceU16, FieldSequenceU32:
		return Value{Table: &Table{Definition: f.Nested}}
	default:
		return Value{}
	}
}

func parseDefault(f Field, s string) (Value, error) {
	switch f.Type {
	case FieldBool:
		return Value{Bool: s == "true" || s == "1"}, nil
	case FieldF32, FieldF64:
		v, err := strconv.ParseFloat(s, 64)
		return Value{Float: v}, err
	case FieldI16, FieldI32, FieldI64, FieldColorRGB:
		v, err := strconv.ParseInt(s, 10, 64)
		return Value{Int: v}, err
	default:
		return Value{Str: s}, nil
	}
}

// PatchOverride is a single field-level override layered onto a base
// Definition on read.
type PatchOverride struct {
	Table   string
	Version int
	Field   string

	NewType      *FieldType
	NewReference *Reference
	NewDefault   *string
}

// Patch is the per-schema set of field-level overrides, edited and saved
// independently of the base Schema document.
type Patch struct {
	Overrides []PatchOverride
}

// apply returns a copy of def with every matching override applied. The
// base Schema is never mutated: apply always works off a copy.
func (p *Patch) apply(table string, def *Definition) *Definition {
	if p == nil || len(p.Overrides) == 0 {
		return def
	}
	out := *def
	out.Fields = append([]Field(nil), def.Fields...)
	for _, ov := range p.Overrides {
		if ov.Table != table || ov.Version != def.Version {
			continue
		}
		idx := out.FieldIndex(ov.Field)
		if idx < 0 {
			continue
		}
		f := out.Fields[idx]
		if ov.NewType != nil {
			f.Type = *ov.NewType
		}
		if ov.NewReference != nil {
			f.Reference = ov.NewReference
		}
		if ov.NewDefault != nil {
			f.Default = *ov.NewDefault
		}
		out.Fields[idx] = f
	}
	return &out
}

// LocDefinition is the fixed, single-version (version 1) Loc layout.
func LocDefinition() *Definition {
	return &Definition{
		Version: 1,
		Fields: []Field{
			{Name: "key", Type: FieldStringU16, IsKey: true},
			{Name: "text", Type: FieldStringU16},
			{Name: "tooltip", Type: FieldBool},
		},
	}
}

// Schema is the full set of Definitions for one Game: a table name maps to
// every version of that table's layout (newest last is not guaranteed;
// LastDefinition scans for the max), plus singleton definitions and a
// Patch overlay.
type Schema struct {
	GameKey     string
	Tables      map[string][]*Definition
	Singletons  map[string]*Definition
	Patch       *Patch
}

// NewSchema returns an empty Schema for the given game key.
func NewSchema(gameKey string) *Schema {
	return &Schema{
		GameKey:    gameKey,
		Tables:     make(map[string][]*Definition),
		Singletons: make(map[string]*Definition),
		Patch:      &Patch{},
	}
}

// AddDefinition registers one versioned Definition for a "<name>_tables"
// table. Re-adding the same version overwrites it.
func (s *Schema) AddDefinition(table string, def *Definition) {
	defs := s.Tables[table]
	for i, d := range defs {
		if d.Version == def.Version {
			defs[i] = def
			s.Tables[table] = defs
			return
		}
	}
	s.Tables[table] = append(defs, def)
}

// DefinitionByNameAndVersion returns an exact (table, version) match.
func (s *Schema) DefinitionByNameAndVersion(table string, version int) (*Definition, error) {
	for _, d := range s.Tables[table] {
		if d.Version == version {
			return s.Patch.apply(table, d), nil
		}
	}
	return nil, newErr(KindSchemaNotFound).withPath(table)
}

// LastDefinition returns the highest-version Definition for table.
func (s *Schema) LastDefinition(table string) (*Definition, error) {
	defs := s.Tables[table]
	if len(defs) == 0 {
		return nil, newErr(KindSchemaNotFound).withPath(table)
	}
	best := defs[0]
	for _, d := range defs[1:] {
		if d.Version > best.Version {
			best = d
		}
	}
	return s.Patch.apply(table, best), nil
}

// DefinitionsNewestFirst returns every Definition registered for table,
// ordered from the newest version to the oldest. Used by the version-0
// decode fallback that tries each candidate Definition until one parses
// cleanly.
func (s *Schema) DefinitionsNewestFirst(table string) []*Definition {
	defs := append([]*Definition(nil), s.Tables[table]...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Version > defs[j].Version })
	out := make([]*Definition, len(defs))
	for i, d := range defs {
		out[i] = s.Patch.apply(table, d)
	}
	return out
}

// Singleton returns the fixed-layout Definition for a non-versioned file
// kind (AnimTable, AnimFragment, Loc, MatchedCombat).
func (s *Schema) Singleton(kind string) (*Definition, error) {
	if d, ok := s.Singletons[kind]; ok {
		return d, nil
	}
	if kind == "Loc" {
		return LocDefinition(), nil
	}
	return nil, newErr(KindSchemaNotFound).withPath(kind)
}

// TableNames returns every "<name>_tables" key the Schema knows, sorted.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for k := range s.Tables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LocalisedKey derives the Loc key for a localised field value:
// <table-stem>_<field>_<row-primary-key>.
func LocalisedKey(tableStem, field, primaryKey string) string {
	return fmt.Sprintf("%s_%s_%s", tableStem, field, primaryKey)
}

// TableStem strips the "_tables" suffix from a table's logical name, as
// used when deriving localisation keys. Any other prefix is kept as is.
func TableStem(tableName string) string {
	const suffix = "_tables"
	if len(tableName) > len(suffix) && tableName[len(tableName)-len(suffix):] == suffix {
		return tableName[:len(tableName)-len(suffix)]
	}
	return tableName
}
