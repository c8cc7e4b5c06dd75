// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DependencyData is the per-column lookup table used to resolve a
// reference field: referenced key -> a concatenated human-readable
// display value built from the reference's lookup columns, plus two
// flags.
type DependencyData struct {
	Values            map[string]string
	AssetKitOnly      bool
	ReferencedIsLocalised bool
}

// decodedFile is one decoded vanilla/parent file kept by the Dependencies
// cache, addressed by its in-Pack path.
type decodedFile struct {
	path string
	db   *DB
	loc  *Loc
	ft   FileType
}

// NewDependencies returns an empty Dependencies cache. Call Rebuild before
// using any accessor.
func NewDependencies() *Dependencies {
	return &Dependencies{
		vanilla:                make(map[string]*decodedFile),
		parent:                 make(map[string]*decodedFile),
		assetKitShadow:         make(map[string]*Definition),
		localTablesReferences:  make(map[string]map[string]*DependencyData),
	}
}

// Dependencies is the cache of vanilla + parent Pack data used to resolve
// cross-table references. It is consistent with exactly one Schema;
// Rebuild must be called again after a Schema reload.
type Dependencies struct {
	game   *Game
	schema *Schema

	vanilla map[string]*decodedFile
	parent  map[string]*decodedFile

	// assetKitShadow holds table shadows known by name+columns without
	// full row data beyond what the asset kit itself provided.
	assetKitShadow map[string]*Definition

	// localTablesReferences memoises db_reference_data results, keyed by
	// table name. Invalidated by any Rebuild or
	// ForceRegenerate call.
	localTablesReferences map[string]map[string]*DependencyData
}

// RebuildOptions configures Dependencies.Rebuild.
type RebuildOptions struct {
	InstallPath          string
	SecondaryInstallPath string
	ParentPackPaths      []string
	AssetKitPath         string
}

// Rebuild loads vanilla Packs (in the Game's canonical order), then every
// declared parent Pack, and eagerly decodes every DB/Loc file against
// schema. Decoding fans out across an errgroup bounded by GOMAXPROCS.
// opts.AssetKitPath is not read: the asset-kit shadow set is left empty.
func (d *Dependencies) Rebuild(game *Game, schema *Schema, opts RebuildOptions) *ErrorList {
	d.game = game
	d.schema = schema
	d.vanilla = make(map[string]*decodedFile)
	d.parent = make(map[string]*decodedFile)
	d.assetKitShadow = make(map[string]*Definition)
	d.localTablesReferences = make(map[string]map[string]*DependencyData)

	errs := &ErrorList{}

	var vanillaPaths []string
	for _, name := range game.VanillaPackNames {
		for _, root := range []string{opts.InstallPath, opts.SecondaryInstallPath} {
			if root == "" {
				continue
			}
			p := filepath.Join(root, game.InstallSubpath, name)
			if _, err := os.Stat(p); err == nil {
				vanillaPaths = append(vanillaPaths, p)
			}
		}
	}
	d.loadInto(d.vanilla, vanillaPaths, schema, errs)

	var parentPaths []string
	parentPaths = append(parentPaths, opts.ParentPackPaths...)
	d.loadInto(d.parent, parentPaths, schema, errs)

	return errs
}

func (d *Dependencies) loadInto(dst map[string]*decodedFile, paths []string, schema *Schema, errs *ErrorList) {
	merged, loadErrs := OpenAndMerge(paths, nil)
	for _, e := range loadErrs.Errors {
		errs.Add(e)
	}
	defer merged.Close()

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	var mu sync.Mutex
	for _, path := range merged.Files() {
		path := path
		g.Go(func() error {
			e := merged.Get(path)
			if e == nil {
				return nil
			}
			df, err := decodeDependencyFile(e, schema)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs.Add((&Error{Kind: errKind(err), Cause: err}).withPath(path))
				return nil
			}
			if df != nil {
				dst[path] = df
			}
			return nil
		})
	}
	_ = g.Wait()
}

func decodeDependencyFile(e *Entry, schema *Schema) (*decodedFile, error) {
	ft := e.Type
	switch {
	case ft.EqualFamily(FileTypeDB):
		data, err := e.GetData()
		if err != nil {
			return nil, err
		}
		tableName := dbTableNameFromPath(e.Path)
		db, err := DecodeDB(tableName, data, schema)
		if err != nil {
			if ie, ok := err.(*Error); ok && ie.Kind == KindTableIncomplete {
				return &decodedFile{path: e.Path, db: db, ft: ft}, nil
			}
			return nil, err
		}
		return &decodedFile{path: e.Path, db: db, ft: ft}, nil
	case ft.EqualFamily(FileTypeLoc):
		data, err := e.GetData()
		if err != nil {
			return nil, err
		}
		loc, err := DecodeLoc(data)
		if err != nil {
			return nil, err
		}
		return &decodedFile{path: e.Path, loc: loc, ft: ft}, nil
	default:
		return nil, nil
	}
}

// dbTableNameFromPath derives "<table>_tables" from a "db/<table>_tables/<file>"
// path.
func dbTableNameFromPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return path
}

// File returns a dependency-cache entry by path, restricted to vanilla
// and/or parent per the flags.
func (d *Dependencies) File(path string, inVanilla, inParent bool) *decodedFile {
	if inParent {
		if f, ok := d.parent[path]; ok {
			return f
		}
	}
	if inVanilla {
		if f, ok := d.vanilla[path]; ok {
			return f
		}
	}
	return nil
}

// FilesByType returns every dependency-cache path matching one of types.
func (d *Dependencies) FilesByType(types []FileType, inVanilla, inParent bool) []string {
	var out []string
	add := func(m map[string]*decodedFile) {
		for path, f := range m {
			for _, t := range types {
				if f.ft.EqualFamily(t) {
					out = append(out, path)
					break
				}
			}
		}
	}
	if inParent {
		add(d.parent)
	}
	if inVanilla {
		add(d.vanilla)
	}
	return out
}

// DBData returns the decoded DB rows for tableName, preferring parent
// over vanilla, from whichever caches are enabled.
func (d *Dependencies) DBData(tableName string, inVanilla, inParent bool) *DB {
	check := func(m map[string]*decodedFile) *DB {
		for _, f := range m {
			if f.db != nil && f.db.TableName == tableName {
				return f.db
			}
		}
		return nil
	}
	if inParent {
		if db := check(d.parent); db != nil {
			return db
		}
	}
	if inVanilla {
		if db := check(d.vanilla); db != nil {
			return db
		}
	}
	return nil
}

// DBVersion returns the highest table version found for tableName across
// vanilla and parent caches.
func (d *Dependencies) DBVersion(tableName string) (int, bool) {
	best := -1
	for _, m := range []map[string]*decodedFile{d.vanilla, d.parent} {
		for _, f := range m {
			if f.db != nil && f.db.TableName == tableName && f.db.Table.Definition.Version > best {
				best = f.db.Table.Definition.Version
			}
		}
	}
	return best, best >= 0
}

// LocData returns every decoded Loc from the enabled caches, merged with
// parent winning over vanilla on duplicate key.
func (d *Dependencies) LocData(inVanilla, inParent bool) *Loc {
	merged := &Loc{Table: &Table{Definition: LocDefinition()}}
	seen := make(map[string]bool)
	apply := func(m map[string]*decodedFile) {
		for _, f := range m {
			if f.loc == nil {
				continue
			}
			for _, row := range f.loc.Table.Rows {
				key := row[0].Str
				if seen[key] {
					continue
				}
				seen[key] = true
				merged.Table.Rows = append(merged.Table.Rows, row)
			}
		}
	}
	if inParent {
		apply(d.parent)
	}
	if inVanilla {
		apply(d.vanilla)
	}
	return merged
}

// AsskitOnlyDBTables returns the table names known only via the asset-kit
// shadow set (no vanilla/parent rows back them).
func (d *Dependencies) AsskitOnlyDBTables() []string {
	var out []string
	for name := range d.assetKitShadow {
		if d.DBData(name, true, true) == nil {
			out = append(out, name)
		}
	}
	return out
}

// DBReferenceData computes the per-column DependencyData for def's
// reference-typed fields, scanning asset-kit shadow first (for the
// "asset-kit-only" flag), then vanilla+parent, then openPack (added last
// so local rows mask vanilla rows sharing a key). Results memoise in
// localTablesReferences, keyed by table name; ForceRegenerate or
// a Schema change invalidates the memo.
func (d *Dependencies) DBReferenceData(tableName string, def *Definition, openPack *Pack) map[string]*DependencyData {
	memoKey := tableName
	if cached, ok := d.localTablesReferences[memoKey]; ok {
		return cached
	}

	result := make(map[string]*DependencyData)
	for _, f := range def.Fields {
		if f.Reference == nil {
			continue
		}
		dd := &DependencyData{Values: make(map[string]string)}

		if _, ok := d.assetKitShadow[f.Reference.Table]; ok {
			if d.DBData(f.Reference.Table, true, true) == nil {
				dd.AssetKitOnly = true
			}
		}

		d.collectReferenceValues(dd, f.Reference, d.vanilla)
		d.collectReferenceValues(dd, f.Reference, d.parent)
		if openPack != nil {
			d.collectReferenceValuesFromPack(dd, f.Reference, openPack)
		}

		result[f.Name] = dd
	}

	d.localTablesReferences[memoKey] = result
	return result
}

// ForceRegenerate drops every memoised DBReferenceData result.
func (d *Dependencies) ForceRegenerate() {
	d.localTablesReferences = make(map[string]map[string]*DependencyData)
}

func (d *Dependencies) collectReferenceValues(dd *DependencyData, ref *Reference, m map[string]*decodedFile) {
	for _, f := range m {
		if f.db == nil || f.db.TableName != ref.Table {
			continue
		}
		def := f.db.Table.Definition
		colIdx := def.FieldIndex(ref.Column)
		if colIdx < 0 {
			continue
		}
		for _, row := range f.db.Table.Rows {
			key := row[colIdx].String(def.Fields[colIdx].Type)
			dd.Values[key] = buildLookupDisplay(def, row, ref.LookupColumns)
		}
	}
}

func (d *Dependencies) collectReferenceValuesFromPack(dd *DependencyData, ref *Reference, p *Pack) {
	for _, path := range p.Files() {
		e := p.Get(path)
		dp, ok := e.Payload.(*DecodedPayload)
		if !ok || dp.DB == nil || dp.DB.TableName != ref.Table {
			continue
		}
		def := dp.DB.Table.Definition
		colIdx := def.FieldIndex(ref.Column)
		if colIdx < 0 {
			continue
		}
		for _, row := range dp.DB.Table.Rows {
			key := row[colIdx].String(def.Fields[colIdx].Type)
			dd.Values[key] = buildLookupDisplay(def, row, ref.LookupColumns)
		}
	}
}

func buildLookupDisplay(def *Definition, row Row, lookupColumns []string) string {
	if len(lookupColumns) == 0 {
		return ""
	}
	var parts []string
	for _, col := range lookupColumns {
		idx := def.FieldIndex(col)
		if idx < 0 {
			continue
		}
		parts = append(parts, row[idx].String(def.Fields[idx].Type))
	}
	return strings.Join(parts, " ")
}

// LocLookup resolves the Loc text for a localised field value on a given
// table row, forming the derived key and looking it up across open Pack
// (wins), parents (later-declared wins), vanilla (later-loaded wins) —
// here simplified to "open Pack, then merged parent+vanilla" since the
// Pack's own internal declaration order is the caller's concern at load
// time (OpenAndMerge), not the Dependencies layer's.
func (d *Dependencies) LocLookup(openPack *Pack, tableStem, field, primaryKey string) (string, bool) {
	key := LocalisedKey(tableStem, field, primaryKey)
	if openPack != nil {
		for _, path := range openPack.Files() {
			e := openPack.Get(path)
			if dp, ok := e.Payload.(*DecodedPayload); ok && dp.Loc != nil {
				if text, ok := dp.Loc.Get(key); ok {
					return text, true
				}
			}
		}
	}
	merged := d.LocData(true, true)
	return merged.Get(key)
}

// BruteforceLocOrder scans Loc keys matching "<table-stem>_<field>_..."
// and infers which trailing suffix segments form the primary key, for
// tables whose asset-kit XML omitted localised_key_order. It returns the
// inferred key order as a best-effort slice of candidate suffixes; this
// is intentionally narrow bootstrap logic, not a general schema inference
// system.
func BruteforceLocOrder(loc *Loc, tableStem, field string) []string {
	prefix := tableStem + "_" + field + "_"
	var suffixes []string
	keyIdx := loc.Table.Definition.FieldIndex("key")
	for _, row := range loc.Table.Rows {
		k := row[keyIdx].Str
		if strings.HasPrefix(k, prefix) {
			suffixes = append(suffixes, strings.TrimPrefix(k, prefix))
		}
	}
	return suffixes
}
