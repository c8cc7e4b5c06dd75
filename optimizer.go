// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"fmt"
	"sort"
	"strings"
)

// rowKey canonicalises a row for duplicate detection: floats are
// formatted to 4 decimals before hashing, everything else compares by
// its verbatim string form.
func rowKey(t *Table, row Row) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		ft := t.Definition.Fields[i].Type
		if ft == FieldF32 || ft == FieldF64 {
			fmt.Fprintf(&b, "%.4f", v.Float)
		} else {
			b.WriteString(v.String(ft))
		}
	}
	return b.String()
}

// OptimizeResult is the set of paths removed (whole files) and, per file
// that lost any rows, the count of rows removed.
type OptimizeResult struct {
	RemovedFiles  []string
	RowsRemovedBy map[string]int
}

// Optimize runs the per-table and per-Loc duplicate-row passes followed
// by the whole-empty-file pass over every DB/Loc entry in p, using dep
// as the vanilla+parent comparison set. It is idempotent:
// Optimize(Optimize(p), dep) removes nothing further. Entries not yet
// decoded are decoded on demand against ctx.Schema.
func Optimize(ctx *Context, p *Pack, dep *Dependencies) *OptimizeResult {
	result := &OptimizeResult{RowsRemovedBy: make(map[string]int)}

	for _, path := range p.Files() {
		e := p.Get(path)
		if e == nil || !(e.Type.EqualFamily(FileTypeDB) || e.Type.EqualFamily(FileTypeLoc)) {
			continue
		}
		dp, err := e.Decoded(ctx)
		if err != nil {
			continue
		}

		var t *Table
		var seen map[string]bool
		var emptyRow Row

		if dp.DB != nil {
			t = dp.DB.Table
			seen = make(map[string]bool)
			for _, m := range []map[string]*decodedFile{dep.vanilla, dep.parent} {
				for _, f := range m {
					if f.db != nil && f.db.TableName == dp.DB.TableName && f.db.Table.Definition.Version == t.Definition.Version {
						for _, row := range f.db.Table.Rows {
							seen[rowKey(f.db.Table, row)] = true
						}
					}
				}
			}
			emptyRow = t.Definition.NewRow()
		} else if dp.Loc != nil {
			t = dp.Loc.Table
			merged := dep.LocData(true, true)
			seen = buildSeenSet(merged.Table)
			emptyRow = t.Definition.NewRow()
		} else {
			continue
		}

		removed := pruneDuplicateRows(t, seen, emptyRow)
		if removed > 0 {
			result.RowsRemovedBy[path] = removed
		}

		if len(t.Rows) == 0 {
			result.RemovedFiles = append(result.RemovedFiles, path)
		}
	}

	for _, path := range result.RemovedFiles {
		p.Remove(path)
	}

	return result
}

func buildSeenSet(t *Table) map[string]bool {
	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		seen[rowKey(t, row)] = true
	}
	return seen
}

// pruneDuplicateRows removes any row that's either in seen or equal to
// emptyRow, then sorts by the first key column and de-duplicates,
// returning the removed-row count.
func pruneDuplicateRows(t *Table, seen map[string]bool, emptyRow Row) int {
	emptyKey := rowKey(t, emptyRow)
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		k := rowKey(t, row)
		if (seen != nil && seen[k]) || k == emptyKey {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept

	keyIdxs := t.Definition.KeyFieldIndexes()
	if len(keyIdxs) == 0 {
		return removed
	}
	keyIdx := keyIdxs[0]
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i][keyIdx].String(t.Definition.Fields[keyIdx].Type) <
			t.Rows[j][keyIdx].String(t.Definition.Fields[keyIdx].Type)
	})

	dedupeSeen := make(map[string]bool)
	kept = t.Rows[:0]
	for _, row := range t.Rows {
		k := rowKey(t, row)
		if dedupeSeen[k] {
			removed++
			continue
		}
		dedupeSeen[k] = true
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

// removeUnreferencedRows backs the opt-in RemoveUnusedArtSets and
// RemoveUnusedVariants passes: it collects referencingColumn values from
// the open Pack's referencingTable and from dep.DBData, and removes every
// tableName row whose keyColumn value none of them reference.
func removeUnreferencedRows(ctx *Context, p *Pack, dep *Dependencies, tableName, keyColumn, referencingTable, referencingColumn string) []string {
	_, dp := findDBEntry(ctx, p, tableName)
	if dp == nil {
		return nil
	}
	t := dp.DB.Table
	keyIdx := t.Definition.FieldIndex(keyColumn)
	if keyIdx < 0 {
		return nil
	}

	referenced := make(map[string]bool)
	_, refDP := findDBEntry(ctx, p, referencingTable)
	if refDP != nil {
		refIdx := refDP.DB.Table.Definition.FieldIndex(referencingColumn)
		if refIdx >= 0 {
			for _, row := range refDP.DB.Table.Rows {
				referenced[row[refIdx].Str] = true
			}
		}
	}
	if dbData := dep.DBData(referencingTable, true, true); dbData != nil {
		refIdx := dbData.Table.Definition.FieldIndex(referencingColumn)
		if refIdx >= 0 {
			for _, row := range dbData.Table.Rows {
				referenced[row[refIdx].Str] = true
			}
		}
	}

	var removedKeys []string
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		key := row[keyIdx].Str
		if referenced[key] {
			kept = append(kept, row)
			continue
		}
		removedKeys = append(removedKeys, key)
	}
	t.Rows = kept
	return removedKeys
}

// RemoveUnusedArtSets drops unit_art_sets rows no unit_to_art_sets row
// references.
func RemoveUnusedArtSets(ctx *Context, p *Pack, dep *Dependencies) []string {
	return removeUnreferencedRows(ctx, p, dep, "unit_art_sets_tables", "key", "unit_to_art_sets_tables", "art_set_id")
}

// RemoveUnusedVariants drops variants rows no unit_variants_tables row
// references.
func RemoveUnusedVariants(ctx *Context, p *Pack, dep *Dependencies) []string {
	return removeUnreferencedRows(ctx, p, dep, "variants_tables", "variant_filename", "unit_variants_tables", "variant_filename")
}

// RemoveEmptyMasks drops battle_set_pieces mask rows with an empty
// texture column.
func RemoveEmptyMasks(ctx *Context, p *Pack) []string {
	_, dp := findDBEntry(ctx, p, "battle_set_pieces_tables")
	if dp == nil {
		return nil
	}
	t := dp.DB.Table
	maskIdx := t.Definition.FieldIndex("mask")
	if maskIdx < 0 {
		return nil
	}
	var removed []string
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if row[maskIdx].Str == "" {
			removed = append(removed, rowKey(t, row))
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

// findDBEntry decodes every DB entry in p on demand until it finds one
// named tableName, returning both the Entry and its decoded payload.
func findDBEntry(ctx *Context, p *Pack, tableName string) (*Entry, *DecodedPayload) {
	for _, path := range p.Files() {
		e := p.Get(path)
		if e == nil || !e.Type.EqualFamily(FileTypeDB) {
			continue
		}
		dp, err := e.Decoded(ctx)
		if err != nil || dp.DB == nil {
			continue
		}
		if dp.DB.TableName == tableName {
			return e, dp
		}
	}
	return nil, nil
}
