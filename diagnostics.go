// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"path/filepath"
	"strconv"
)

// DiagnosticKind tags one Diagnostic record by which check produced it.
type DiagnosticKind uint8

const (
	DiagRefTargetNotFound DiagnosticKind = iota
	DiagLocKeyOrphan
	DiagDuplicatePrimaryKey
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagRefTargetNotFound:
		return "RefTargetNotFound"
	case DiagLocKeyOrphan:
		return "LocKeyOrphan"
	case DiagDuplicatePrimaryKey:
		return "DuplicatePrimaryKey"
	default:
		return "Unknown"
	}
}

// Diagnostic is one non-fatal finding, reported but never blocking a
// save.
type Diagnostic struct {
	Kind    DiagnosticKind
	Path    string
	Row     int
	Column  int
	Message string
}

// Diagnose runs every check over p's DB/Loc entries, respecting the
// Pack's diagnostics_files_to_ignore setting and ctx.Game's known-missing-
// field suppression list.
func Diagnose(ctx *Context, p *Pack) []Diagnostic {
	var out []Diagnostic
	ignore := p.Settings.DiagnosticsIgnoreGlobs()

	allLocKeys := make(map[string]bool)
	for _, path := range p.Files() {
		if ignoredByGlobs(path, ignore) {
			continue
		}
		e := p.Get(path)
		if e == nil || !e.Type.EqualFamily(FileTypeLoc) {
			continue
		}
		dp, err := e.Decoded(ctx)
		if err != nil || dp.Loc == nil {
			continue
		}
		keyIdx := dp.Loc.Table.Definition.FieldIndex("key")
		for _, row := range dp.Loc.Table.Rows {
			allLocKeys[row[keyIdx].Str] = true
		}
	}

	for _, path := range p.Files() {
		if ignoredByGlobs(path, ignore) {
			continue
		}
		e := p.Get(path)
		if e == nil || !e.Type.EqualFamily(FileTypeDB) {
			continue
		}
		dp, err := e.Decoded(ctx)
		if err != nil || dp.DB == nil {
			continue
		}

		out = append(out, checkRefTargets(ctx, path, dp.DB)...)
		out = append(out, checkDuplicatePKs(path, dp.DB)...)
		out = append(out, checkLocOrphans(path, dp.DB, allLocKeys)...)
	}

	return out
}

func ignoredByGlobs(path string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, path); ok {
			return true
		}
	}
	return false
}

// checkRefTargets verifies every Reference-typed cell resolves to a known
// key in the Dependencies cache (vanilla+parent), skipping fields on
// ctx.Game's known-missing-field suppression list. Rows of the open Pack
// itself are not consulted as reference targets.
func checkRefTargets(ctx *Context, path string, db *DB) []Diagnostic {
	var out []Diagnostic
	def := db.Table.Definition
	for colIdx, f := range def.Fields {
		if f.Reference == nil {
			continue
		}
		if ctx != nil && ctx.Game != nil && ctx.Game.IsKnownMissingField(db.TableName, f.Name) {
			continue
		}
		if ctx == nil || ctx.Dependencies == nil {
			continue
		}
		data := ctx.Dependencies.DBReferenceData(db.TableName, def, nil)[f.Name]
		if data == nil {
			continue
		}
		for rowIdx, row := range db.Table.Rows {
			key := row[colIdx].String(f.Type)
			if key == "" {
				continue
			}
			if _, ok := data.Values[key]; !ok {
				out = append(out, Diagnostic{
					Kind:    DiagRefTargetNotFound,
					Path:    path,
					Row:     rowIdx,
					Column:  colIdx,
					Message: "reference to " + f.Reference.Table + "." + f.Reference.Column + " not found: " + key,
				})
			}
		}
	}
	return out
}

// checkLocOrphans flags localised-field values whose derived Loc key is
// absent from the Pack's merged Loc set.
func checkLocOrphans(path string, db *DB, allLocKeys map[string]bool) []Diagnostic {
	var out []Diagnostic
	def := db.Table.Definition
	if len(def.LocalisedFields) == 0 {
		return nil
	}
	keyIdxs := def.KeyFieldIndexes()
	if len(keyIdxs) == 0 {
		return nil
	}
	pkIdx := keyIdxs[0]
	stem := TableStem(db.TableName)

	for _, field := range def.LocalisedFields {
		for rowIdx, row := range db.Table.Rows {
			pk := row[pkIdx].String(def.Fields[pkIdx].Type)
			key := LocalisedKey(stem, field, pk)
			if !allLocKeys[key] {
				out = append(out, Diagnostic{
					Kind:    DiagLocKeyOrphan,
					Path:    path,
					Row:     rowIdx,
					Column:  pkIdx,
					Message: "missing localisation key: " + key,
				})
			}
		}
	}
	return out
}

// checkDuplicatePKs flags rows whose primary-key cell(s) collide.
func checkDuplicatePKs(path string, db *DB) []Diagnostic {
	def := db.Table.Definition
	keyIdxs := def.KeyFieldIndexes()
	if len(keyIdxs) == 0 {
		return nil
	}

	seen := make(map[string]int) // composite key -> first row index
	var out []Diagnostic
	for rowIdx, row := range db.Table.Rows {
		composite := ""
		for _, ki := range keyIdxs {
			composite += row[ki].String(def.Fields[ki].Type) + "\x1f"
		}
		if first, ok := seen[composite]; ok {
			out = append(out, Diagnostic{
				Kind:    DiagDuplicatePrimaryKey,
				Path:    path,
				Row:     rowIdx,
				Column:  keyIdxs[0],
				Message: "duplicate primary key, first seen at row " + strconv.Itoa(first),
			})
			continue
		}
		seen[composite] = rowIdx
	}
	return out
}
