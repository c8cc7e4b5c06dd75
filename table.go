// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "fmt"

// Value is a single decoded cell. Exactly one field is meaningful,
// selected by the owning Field's Type — a tagged union rather than an
// interface{}, since columns are schema-driven at runtime rather than
// known at compile time.
type Value struct {
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Table *Table // SequenceU16 / SequenceU32
}

// String renders v in the canonical textual form used by TSV export and
// global search (bool -> "true"/"false", numerics -> base-10, strings
// verbatim).
func (v Value) String(t FieldType) string {
	switch t {
	case FieldBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case FieldF32, FieldF64:
		return trimFloat(v.Float)
	case FieldI16, FieldI32, FieldI64, FieldColorRGB:
		return fmt.Sprintf("%d", v.Int)
	default:
		return v.Str
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// Row is one decoded record: one Value per Field, in Definition order.
type Row []Value

// Table is a Definition paired with its decoded rows.
type Table struct {
	Definition *Definition
	Rows       []Row
}

// NewTable returns an empty Table for def.
func NewTable(def *Definition) *Table {
	return &Table{Definition: def}
}

// decodeRow decodes one row's worth of Fields starting at r's current
// cursor.
func decodeRow(r *Reader, def *Definition, rowIdx int) (Row, error) {
	row := make(Row, len(def.Fields))
	for colIdx, f := range def.Fields {
		v, err := decodeValue(r, f)
		if err != nil {
			if e, ok := err.(*Error); ok && e.Kind != KindTableDecode {
				return row, &Error{
					Kind:     KindTableDecode,
					Row:      rowIdx,
					Column:   colIdx,
					Expected: f.Type.String(),
					Got:      e.Kind.String(),
					Cause:    e,
				}
			}
			return row, err
		}
		row[colIdx] = v
	}
	return row, nil
}

func decodeValue(r *Reader, f Field) (Value, error) {
	switch f.Type {
	case FieldBool:
		b, err := r.Bool()
		return Value{Bool: b}, err
	case FieldF32:
		v, err := r.F32()
		return Value{Float: float64(v)}, err
	case FieldF64:
		v, err := r.F64()
		return Value{Float: v}, err
	case FieldI16:
		v, err := r.I16()
		return Value{Int: int64(v)}, err
	case FieldI32:
		v, err := r.I32()
		return Value{Int: int64(v)}, err
	case FieldI64:
		v, err := r.I64()
		return Value{Int: v}, err
	case FieldColorRGB:
		v, err := r.ColorRGB()
		return Value{Int: int64(v)}, err
	case FieldStringU8:
		s, err := r.StringU8()
		return Value{Str: s}, err
	case FieldStringU16:
		s, err := r.StringU16()
		return Value{Str: s}, err
	case FieldOptionalStringU8:
		s, err := r.OptionalStringU8()
		return Value{Str: s}, err
	case FieldOptionalStringU16:
		s, err := r.OptionalStringU16()
		return Value{Str: s}, err
	case FieldSequenceU16, FieldSequenceU32:
		return decodeSequence(r, f)
	default:
		return Value{}, newErr(KindTableDecode)
	}
}

func decodeSequence(r *Reader, f Field) (Value, error) {
	var count uint32
	var err error
	if f.Type == FieldSequenceU16 {
		var n uint16
		n, err = r.U16()
		count = uint32(n)
	} else {
		count, err = r.U32()
	}
	if err != nil {
		return Value{}, err
	}
	nested := &Table{Definition: f.Nested}
	for i := uint32(0); i < count; i++ {
		row, err := decodeRow(r, f.Nested, int(i))
		if err != nil {
			return Value{}, err
		}
		nested.Rows = append(nested.Rows, row)
	}
	return Value{Table: nested}, nil
}

func encodeValue(w *Writer, f Field, v Value) error {
	switch f.Type {
	case FieldBool:
		w.Bool(v.Bool)
		return nil
	case FieldF32:
		w.F32(float32(v.Float))
		return nil
	case FieldF64:
		w.F64(v.Float)
		return nil
	case FieldI16:
		w.I16(int16(v.Int))
		return nil
	case FieldI32:
		w.I32(int32(v.Int))
		return nil
	case FieldI64:
		w.I64(v.Int)
		return nil
	case FieldColorRGB:
		w.ColorRGB(uint32(v.Int))
		return nil
	case FieldStringU8:
		return w.StringU8(v.Str)
	case FieldStringU16:
		return w.StringU16(v.Str)
	case FieldOptionalStringU8:
		return w.OptionalStringU8(v.Str)
	case FieldOptionalStringU16:
		return w.OptionalStringU16(v.Str)
	case FieldSequenceU16, FieldSequenceU32:
		return encodeSequence(w, f, v)
	default:
		return newErr(KindTableDecode)
	}
}

func encodeSequence(w *Writer, f Field, v Value) error {
	rows := v.Table.Rows
	if f.Type == FieldSequenceU16 {
		if len(rows) > 0xFFFF {
			return newErr(KindValueTooLong)
		}
		w.U16(uint16(len(rows)))
	} else {
		w.U32(uint32(len(rows)))
	}
	for _, row := range rows {
		if err := encodeRow(w, f.Nested, row); err != nil {
			return err
		}
	}
	return nil
}

func encodeRow(w *Writer, def *Definition, row Row) error {
	for i, f := range def.Fields {
		if err := encodeValue(w, f, row[i]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTable decodes payload against an exact Definition (the version is
// already known, e.g. from the DB header's VERSION_MARKER). It fails
// TrailingBytes if the cursor does not land exactly on the end of the
// buffer.
func DecodeTable(payload []byte, def *Definition) (*Table, error) {
	r := NewReader(payload)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	t := &Table{Definition: def}
	for i := uint32(0); i < count; i++ {
		row, err := decodeRow(r, def, int(i))
		if err != nil {
			return t, err
		}
		t.Rows = append(t.Rows, row)
	}
	if !r.AtEnd() {
		return t, newErr(KindTrailingBytes)
	}
	return t, nil
}

// DecodeTableBestVersion implements version selection for v0 tables:
// when no VERSION_MARKER pins a version, the Schema's candidate
// Definitions (newest first) are each tried in turn; the first whose
// decode consumes the payload exactly wins. If none does, the best
// (highest-coverage) partial attempt is returned together with
// TableIncomplete; NoDefinitionMatches (with a nil Table) is returned only
// when no candidate could read the row count. There is no strict mode that
// fails NoDefinitionMatches whenever a partial attempt exists.
func DecodeTableBestVersion(payload []byte, candidates []*Definition) (*Table, error) {
	var best *Table
	var bestConsumed int
	for _, def := range candidates {
		r := NewReader(payload)
		count, err := r.U32()
		if err != nil {
			continue
		}
		t := &Table{Definition: def}
		ok := true
		for i := uint32(0); i < count; i++ {
			row, err := decodeRow(r, def, int(i))
			if err != nil {
				ok = false
				break
			}
			t.Rows = append(t.Rows, row)
		}
		if ok && r.AtEnd() {
			return t, nil
		}
		if r.Pos() > bestConsumed {
			bestConsumed = r.Pos()
			best = t
		}
	}
	if best == nil {
		return nil, newErr(KindNoDefinitionMatches)
	}
	return best, newErr(KindTableIncomplete)
}

// EncodeTable mirrors DecodeTable: row count, then rows in Definition
// column order. No reordering ever happens; Definition order is
// authoritative.
func EncodeTable(t *Table) ([]byte, error) {
	w := NewWriter()
	w.U32(uint32(len(t.Rows)))
	for _, row := range t.Rows {
		if err := encodeRow(w, t.Definition, row); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
