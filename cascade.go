// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

// ColumnChange is one old->new rename requested on an edited column.
type ColumnChange struct {
	Old string
	New string
}

// ReferrerMap is table -> the referrer columns pointing at one edited
// (table, column) pair.
type ReferrerMap map[string][]string

// CascadeEdition is a batch rename description: the edited table, its
// Definition at edit time, the per-column (old,new) changes, and the
// precomputed referrer map plus PK flag used to drive Loc-key rewrites.
type CascadeEdition struct {
	Table      string
	Definition *Definition
	Changes    map[string][]ColumnChange // column name -> changes
	Referrers  map[string]ReferrerMap    // column name -> ReferrerMap
	IsPK       map[string]bool           // column name -> is-primary-key
}

// BuildCascadeEdition precomputes, for every column in def that has at
// least one pending change, the referrers map: every Field in every
// Definition across schema whose Reference targets (table, column).
func BuildCascadeEdition(schema *Schema, table string, def *Definition, changes map[string][]ColumnChange) *CascadeEdition {
	ce := &CascadeEdition{
		Table:      table,
		Definition: def,
		Changes:    changes,
		Referrers:  make(map[string]ReferrerMap),
		IsPK:       make(map[string]bool),
	}

	for _, col := range def.Fields {
		if _, pending := changes[col.Name]; !pending {
			continue
		}
		ce.IsPK[col.Name] = col.IsKey
		ce.Referrers[col.Name] = computeReferrers(schema, table, col.Name)
	}
	return ce
}

func computeReferrers(schema *Schema, table, column string) ReferrerMap {
	rm := make(ReferrerMap)
	// Self-references (table == table) are legal and walked the same way.
	for _, tableName := range schema.TableNames() {
		for _, def := range schema.Tables[tableName] {
			for _, f := range def.Fields {
				if f.Reference == nil {
					continue
				}
				if f.Reference.Table == table && f.Reference.Column == column {
					rm[tableName] = appendUnique(rm[tableName], f.Name)
				}
			}
		}
	}
	return rm
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// Apply walks every referrer table present in p and rewrites cells whose
// string form exactly equals an Old value with the matching New value.
// When an edited column is a primary key and def carries at least one
// localised field, every Loc file in p also has its `key` column rewritten
// for the derived localisation keys. Only the open Pack is ever touched;
// the affected paths are returned for UI refresh. Entries not yet decoded
// are decoded on demand against ctx.Schema.
func (ce *CascadeEdition) Apply(ctx *Context, p *Pack) []string {
	touched := make(map[string]bool)

	for col, changes := range ce.Changes {
		rm := ce.Referrers[col]
		for referrerTable, referrerCols := range rm {
			for _, path := range p.Files() {
				e := p.Get(path)
				if e == nil || !e.Type.EqualFamily(FileTypeDB) {
					continue
				}
				dp, err := e.Decoded(ctx)
				if err != nil || dp.DB == nil || dp.DB.TableName != referrerTable {
					continue
				}
				if rewriteReferrerRows(dp.DB.Table, referrerCols, changes) {
					touched[path] = true
				}
			}
		}

		if ce.IsPK[col] && len(ce.Definition.LocalisedFields) > 0 {
			stem := TableStem(ce.Table)
			for _, locField := range ce.Definition.LocalisedFields {
				for _, path := range p.Files() {
					e := p.Get(path)
					if e == nil || !e.Type.EqualFamily(FileTypeLoc) {
						continue
					}
					dp, err := e.Decoded(ctx)
					if err != nil || dp.Loc == nil {
						continue
					}
					if rewriteLocKeys(dp.Loc.Table, stem, locField, changes) {
						touched[path] = true
					}
				}
			}
		}
	}

	var affected []string
	for path := range touched {
		affected = append(affected, path)
	}
	return affected
}

func rewriteReferrerRows(t *Table, cols []string, changes []ColumnChange) bool {
	modified := false
	for _, colName := range cols {
		idx := t.Definition.FieldIndex(colName)
		if idx < 0 {
			continue
		}
		fType := t.Definition.Fields[idx].Type
		for rowIdx, row := range t.Rows {
			cell := row[idx].String(fType)
			for _, ch := range changes {
				if cell == ch.Old {
					t.Rows[rowIdx][idx] = Value{Str: ch.New}
					modified = true
					break
				}
			}
		}
	}
	return modified
}

func rewriteLocKeys(t *Table, stem, field string, changes []ColumnChange) bool {
	keyIdx := t.Definition.FieldIndex("key")
	if keyIdx < 0 {
		return false
	}
	modified := false
	for rowIdx, row := range t.Rows {
		for _, ch := range changes {
			oldKey := LocalisedKey(stem, field, ch.Old)
			if row[keyIdx].Str == oldKey {
				t.Rows[rowIdx][keyIdx].Str = LocalisedKey(stem, field, ch.New)
				modified = true
			}
		}
	}
	return modified
}
