// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SourceSelector picks which file populations a Search scans. Only
// OpenPack and Schema are scanned; Parent, Vanilla and AssetKit are
// accepted but no files from them are searched.
type SourceSelector struct {
	OpenPack bool
	Parent   bool
	Vanilla  bool
	AssetKit bool
	Schema   bool
}

// SearchQuery is one global-search request.
type SearchQuery struct {
	Pattern         string
	UseRegex        bool
	CaseSensitive   bool
	Sources         SourceSelector
	Types           []FileType
	usedPlainFallback bool
	compiled        *regexp.Regexp
}

// TableMatch is one matched DB or Loc cell.
type TableMatch struct {
	Path        string
	ColumnName  string
	ColumnIndex int
	RowIndex    int
	MatchedText string
}

// TextMatch is a per-line match inside a Text file.
type TextMatch struct {
	Path     string
	Line     int
	Column   int
	Length   int
	LineText string
}

// SchemaMatch is a matched Field name inside a Definition.
type SchemaMatch struct {
	Kind              string // "DB" or singleton kind name
	TableName         string
	DefinitionVersion int
	FieldIndex        int
	FieldName         string
}

// SearchResult aggregates every match class, plus whether the regex
// pattern failed to compile and the engine silently fell back to a plain
// substring match.
type SearchResult struct {
	TableMatches      []TableMatch
	TextMatches       []TextMatch
	SchemaMatches     []SchemaMatch
	UsedPlainFallback bool
}

// Search holds the query plus enough context to re-run itself
// incrementally via Update.
type Search struct {
	query  SearchQuery
	ctx    *Context
	pack   *Pack
	result SearchResult

	// tableByPath/textByPath index TableMatches/TextMatches by path so Update can drop
	// and recompute just the edited subset.
	tableByPath map[string][]TableMatch
	textByPath  map[string][]TextMatch
}

func compilePattern(q *SearchQuery) {
	if !q.UseRegex {
		return
	}
	flags := ""
	if !q.CaseSensitive {
		flags = "(?i)"
	}
	re, err := regexp.Compile(flags + q.Pattern)
	if err != nil {
		q.usedPlainFallback = true
		return
	}
	q.compiled = re
}

func matchString(q *SearchQuery, s string) (string, bool) {
	if q.compiled != nil {
		loc := q.compiled.FindString(s)
		if loc == "" && !q.compiled.MatchString(s) {
			return "", false
		}
		return loc, true
	}
	hay, needle := s, q.Pattern
	if !q.CaseSensitive {
		hay = strings.ToLower(hay)
		needle = strings.ToLower(needle)
	}
	if strings.Contains(hay, needle) {
		return q.Pattern, true
	}
	return "", false
}

// NewSearch compiles query and runs a full search over pack using ctx.
func NewSearch(ctx *Context, p *Pack, query SearchQuery) *Search {
	compilePattern(&query)
	s := &Search{
		query:       query,
		ctx:         ctx,
		pack:        p,
		tableByPath: make(map[string][]TableMatch),
		textByPath:  make(map[string][]TextMatch),
	}
	s.result.UsedPlainFallback = query.usedPlainFallback
	s.runFull()
	return s
}

func (s *Search) matchesType(ft FileType) bool {
	if len(s.query.Types) == 0 {
		return true
	}
	for _, t := range s.query.Types {
		if ft.EqualFamily(t) {
			return true
		}
	}
	return false
}

func (s *Search) runFull() {
	var paths []string
	if s.query.Sources.OpenPack && s.pack != nil {
		paths = s.pack.Files()
	}

	var g errgroup.Group
	type perFile struct {
		path   string
		tables []TableMatch
		texts  []TextMatch
	}
	results := make([]perFile, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			e := s.pack.Get(path)
			if e == nil || !s.matchesType(e.Type) {
				return nil
			}
			pf := perFile{path: path}
			switch {
			case e.Type.EqualFamily(FileTypeDB):
				pf.tables = searchDBEntry(s.ctx, &s.query, e, path)
			case e.Type.EqualFamily(FileTypeLoc):
				pf.tables = searchLocEntry(s.ctx, &s.query, e, path)
			case e.Type.EqualFamily(FileTypeText(TextPlain)):
				data, err := e.GetData()
				if err == nil {
					pf.texts = searchTextBytes(&s.query, path, data)
				}
			}
			results[i] = pf
			return nil
		})
	}
	_ = g.Wait()

	for _, pf := range results {
		if len(pf.tables) > 0 {
			s.tableByPath[pf.path] = pf.tables
			s.result.TableMatches = append(s.result.TableMatches, pf.tables...)
		}
		if len(pf.texts) > 0 {
			s.textByPath[pf.path] = pf.texts
			s.result.TextMatches = append(s.result.TextMatches, pf.texts...)
		}
	}

	if s.query.Sources.Schema && s.ctx != nil && s.ctx.Schema != nil {
		s.result.SchemaMatches = searchSchemaNames(&s.query, s.ctx.Schema)
	}
}

func searchDBEntry(ctx *Context, q *SearchQuery, e *Entry, path string) []TableMatch {
	dp, err := e.Decoded(ctx)
	if err != nil || dp.DB == nil {
		return nil
	}
	return searchTable(q, path, dp.DB.Table)
}

func searchLocEntry(ctx *Context, q *SearchQuery, e *Entry, path string) []TableMatch {
	dp, err := e.Decoded(ctx)
	if err != nil || dp.Loc == nil {
		return nil
	}
	return searchTable(q, path, dp.Loc.Table)
}

func searchTable(q *SearchQuery, path string, t *Table) []TableMatch {
	var out []TableMatch
	def := t.Definition
	for rowIdx, row := range t.Rows {
		for colIdx, v := range row {
			if colIdx >= len(def.Fields) {
				continue
			}
			cell := v.String(def.Fields[colIdx].Type)
			if matched, ok := matchString(q, cell); ok {
				out = append(out, TableMatch{
					Path:        path,
					ColumnName:  def.Fields[colIdx].Name,
					ColumnIndex: colIdx,
					RowIndex:    rowIdx,
					MatchedText: matched,
				})
			}
		}
	}
	return out
}

func searchTextBytes(q *SearchQuery, path string, data []byte) []TextMatch {
	var out []TextMatch
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if matched, ok := matchString(q, line); ok {
			col := strings.Index(line, matched)
			out = append(out, TextMatch{
				Path:     path,
				Line:     i,
				Column:   col,
				Length:   len(matched),
				LineText: line,
			})
		}
	}
	return out
}

func searchSchemaNames(q *SearchQuery, schema *Schema) []SchemaMatch {
	var out []SchemaMatch
	for _, tableName := range schema.TableNames() {
		for _, def := range schema.Tables[tableName] {
			for fi, f := range def.Fields {
				if _, ok := matchString(q, f.Name); ok {
					out = append(out, SchemaMatch{
						Kind:              "DB",
						TableName:         tableName,
						DefinitionVersion: def.Version,
						FieldIndex:        fi,
						FieldName:         f.Name,
					})
				}
			}
		}
	}
	return out
}

// Replace writes replacement into every TableMatch cell currently held,
// parsing replacement back into the column's type. A cell whose column
// is a Sequence fails UnsupportedReplaceTarget; a cell whose parse fails
// fails ReplaceTypeError — in both cases the row is left untouched and
// other rows/files proceed.
func (s *Search) Replace(replacement string) (affected []string, errs *ErrorList) {
	errs = &ErrorList{}
	touched := make(map[string]bool)

	for path, matches := range s.tableByPath {
		e := s.pack.Get(path)
		if e == nil {
			continue
		}
		dp, ok := e.Payload.(*DecodedPayload)
		if !ok {
			continue
		}
		var t *Table
		if dp.DB != nil {
			t = dp.DB.Table
		} else if dp.Loc != nil {
			t = dp.Loc.Table
		} else {
			continue
		}

		pending := make([]Value, len(matches))
		failedRows := make(map[int]bool)
		for i, m := range matches {
			if m.ColumnIndex >= len(t.Definition.Fields) || m.RowIndex >= len(t.Rows) {
				continue
			}
			f := t.Definition.Fields[m.ColumnIndex]
			if f.Type == FieldSequenceU16 || f.Type == FieldSequenceU32 {
				errs.Add((&Error{Kind: KindUnsupportedReplaceTarget, Row: m.RowIndex, Column: m.ColumnIndex}).withPath(path))
				failedRows[m.RowIndex] = true
				continue
			}
			nv, err := parseReplacementValue(f, replacement)
			if err != nil {
				errs.Add((&Error{Kind: KindReplaceTypeError, Row: m.RowIndex, Column: m.ColumnIndex}).withPath(path))
				failedRows[m.RowIndex] = true
				continue
			}
			pending[i] = nv
		}
		modified := false
		for i, m := range matches {
			if m.ColumnIndex >= len(t.Definition.Fields) || m.RowIndex >= len(t.Rows) || failedRows[m.RowIndex] {
				continue
			}
			t.Rows[m.RowIndex][m.ColumnIndex] = pending[i]
			modified = true
		}
		if modified {
			touched[path] = true
		}
	}

	for path := range touched {
		affected = append(affected, path)
	}
	return affected, errs
}

func parseReplacementValue(f Field, s string) (Value, error) {
	switch f.Type {
	case FieldBool:
		if s == "true" {
			return Value{Bool: true}, nil
		}
		if s == "false" {
			return Value{Bool: false}, nil
		}
		return Value{}, newErr(KindReplaceTypeError)
	case FieldF32, FieldF64:
		fv, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, newErr(KindReplaceTypeError)
		}
		return Value{Float: fv}, nil
	case FieldI16, FieldI32, FieldI64, FieldColorRGB:
		iv, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, newErr(KindReplaceTypeError)
		}
		return Value{Int: iv}, nil
	default:
		return Value{Str: s}, nil
	}
}

// Update removes prior matches for paths and re-searches only those,
// keeping the rest of the result set intact. A no-op when the source
// selector is anything other than the open Pack.
func (s *Search) Update(paths []string) {
	if !s.query.Sources.OpenPack {
		return
	}
	pathSet := make(map[string]bool, len(paths))
	for _, p := range paths {
		pathSet[p] = true
	}

	s.result.TableMatches = filterOutPaths(s.result.TableMatches, pathSet)
	s.result.TextMatches = filterOutTextPaths(s.result.TextMatches, pathSet)
	for _, p := range paths {
		delete(s.tableByPath, p)
		delete(s.textByPath, p)
	}

	for _, path := range paths {
		e := s.pack.Get(path)
		if e == nil || !s.matchesType(e.Type) {
			continue
		}
		switch {
		case e.Type.EqualFamily(FileTypeDB):
			if m := searchDBEntry(s.ctx, &s.query, e, path); len(m) > 0 {
				s.tableByPath[path] = m
				s.result.TableMatches = append(s.result.TableMatches, m...)
			}
		case e.Type.EqualFamily(FileTypeLoc):
			if m := searchLocEntry(s.ctx, &s.query, e, path); len(m) > 0 {
				s.tableByPath[path] = m
				s.result.TableMatches = append(s.result.TableMatches, m...)
			}
		case e.Type.EqualFamily(FileTypeText(TextPlain)):
			data, err := e.GetData()
			if err == nil {
				if m := searchTextBytes(&s.query, path, data); len(m) > 0 {
					s.textByPath[path] = m
					s.result.TextMatches = append(s.result.TextMatches, m...)
				}
			}
		}
	}
}

// Result returns the current aggregated result.
func (s *Search) Result() SearchResult { return s.result }

func filterOutPaths(matches []TableMatch, drop map[string]bool) []TableMatch {
	out := matches[:0]
	for _, m := range matches {
		if !drop[m.Path] {
			out = append(out, m)
		}
	}
	return out
}

func filterOutTextPaths(matches []TextMatch, drop map[string]bool) []TextMatch {
	out := matches[:0]
	for _, m := range matches {
		if !drop[m.Path] {
			out = append(out, m)
		}
	}
	return out
}
