// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeTSV renders a Table (DB or Loc) as a two-line-header TSV format.
// tableName is the table's logical name, or "Loc PackedFile" for a Loc
// file. useOldColumnOrder, when true, keeps the
// Definition's declared field order instead of any UI-preferred order
// (the core has no UI ordering of its own, so this is always the
// Definition order, but the flag is threaded through for callers that
// layer one on top).
func EncodeTSV(tableName string, t *Table, useOldColumnOrder bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%d\n", tableName, t.Definition.Version)

	names := make([]string, len(t.Definition.Fields))
	for i, f := range t.Definition.Fields {
		names[i] = f.Name
	}
	b.WriteString(strings.Join(names, "\t"))
	b.WriteByte('\n')

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, f := range t.Definition.Fields {
			cells[i] = tsvQuote(row[i].String(f.Type))
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// tsvQuote quotes a cell only when it contains a tab, newline, or a
// leading/trailing quote; embedded quotes are doubled.
func tsvQuote(s string) string {
	needsQuote := strings.ContainsAny(s, "\t\n") ||
		strings.HasPrefix(s, "\"") || strings.HasSuffix(s, "\"")
	if !needsQuote {
		return s
	}
	return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
}

// DecodeTSV parses a TSV document written by EncodeTSV back into a Table
// matching def. The table name/version on line 1 is validated against
// tableName/def.Version; a mismatch fails TsvHeaderMismatch.
func DecodeTSV(doc string, tableName string, def *Definition) (*Table, error) {
	lines := splitTSVLines(doc)
	if len(lines) < 2 {
		return nil, newErr(KindTsvHeaderMismatch)
	}

	head := strings.SplitN(lines[0], "\t", 2)
	if len(head) != 2 || head[0] != tableName {
		return nil, newErr(KindTsvHeaderMismatch)
	}
	version, err := strconv.Atoi(head[1])
	if err != nil || version != def.Version {
		return nil, newErr(KindTsvHeaderMismatch)
	}

	cols := strings.Split(lines[1], "\t")
	if len(cols) != len(def.Fields) {
		return nil, newErr(KindTsvHeaderMismatch)
	}
	for i, f := range def.Fields {
		if cols[i] != f.Name {
			return nil, newErr(KindTsvHeaderMismatch)
		}
	}

	t := &Table{Definition: def}
	for rowIdx, line := range lines[2:] {
		if line == "" {
			continue
		}
		cells := splitTSVRow(line)
		if len(cells) != len(def.Fields) {
			return nil, &Error{Kind: KindTsvFieldParse, Row: rowIdx, Expected: "column count mismatch"}
		}
		row := make(Row, len(def.Fields))
		for colIdx, f := range def.Fields {
			v, err := parseTSVCell(f, tsvUnquote(cells[colIdx]))
			if err != nil {
				return nil, &Error{Kind: KindTsvFieldParse, Row: rowIdx, Column: colIdx, Expected: f.Type.String()}
			}
			row[colIdx] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseTSVCell(f Field, s string) (Value, error) {
	switch f.Type {
	case FieldBool:
		return Value{Bool: s == "true"}, nil
	case FieldF32, FieldF64:
		v, err := strconv.ParseFloat(s, 64)
		return Value{Float: v}, err
	case FieldI16, FieldI32, FieldI64, FieldColorRGB:
		v, err := strconv.ParseInt(s, 10, 64)
		return Value{Int: v}, err
	case FieldSequenceU16, FieldSequenceU32:
		return Value{}, newErr(KindUnsupportedReplaceTarget)
	default:
		return Value{Str: s}, nil
	}
}

func tsvUnquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") {
		inner := s[1 : len(s)-1]
		return strings.ReplaceAll(inner, "\"\"", "\"")
	}
	return s
}

// splitTSVLines accepts either LF or CRLF line terminators on read.
func splitTSVLines(doc string) []string {
	doc = strings.TrimPrefix(doc, "﻿")
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	doc = strings.TrimSuffix(doc, "\n")
	if doc == "" {
		return nil
	}
	return strings.Split(doc, "\n")
}

// splitTSVRow splits on tabs that are not inside a quoted field.
func splitTSVRow(line string) []string {
	var cells []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == '\t' && !inQuote:
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	cells = append(cells, cur.String())
	return cells
}
