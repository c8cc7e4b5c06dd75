// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

var locMagic = []byte{0xFF, 0xFE, 'L', 'O', 'C'}

// IsLoc reports whether data begins with the UTF-16 BOM immediately
// followed by the ASCII "LOC" tag, the signature used to distinguish
// Loc payloads from every other format.
func IsLoc(data []byte) bool {
	if len(data) < len(locMagic) {
		return false
	}
	for i, b := range locMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}

// Loc is a decoded three-column localisation table.
type Loc struct {
	Table *Table
}

// DecodeLoc parses a Loc payload: the 5-byte magic, then the standard
// row-count + rows body against the fixed Loc Definition.
func DecodeLoc(payload []byte) (*Loc, error) {
	if !IsLoc(payload) {
		return nil, newErr(KindWrongHeader)
	}
	def := LocDefinition()
	table, err := DecodeTable(payload[len(locMagic):], def)
	if err != nil {
		return nil, err
	}
	return &Loc{Table: table}, nil
}

// EncodeLoc writes the magic followed by the encoded row body.
func EncodeLoc(l *Loc) ([]byte, error) {
	body, err := EncodeTable(l.Table)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(locMagic)+len(body))
	out = append(out, locMagic...)
	out = append(out, body...)
	return out, nil
}

// Get returns the text for key, and whether it was found.
func (l *Loc) Get(key string) (string, bool) {
	def := l.Table.Definition
	keyIdx := def.FieldIndex("key")
	textIdx := def.FieldIndex("text")
	for _, row := range l.Table.Rows {
		if row[keyIdx].Str == key {
			return row[textIdx].Str, true
		}
	}
	return "", false
}

// Set inserts or overwrites the row for key.
func (l *Loc) Set(key, text string, tooltip bool) {
	def := l.Table.Definition
	keyIdx := def.FieldIndex("key")
	for i, row := range l.Table.Rows {
		if row[keyIdx].Str == key {
			l.Table.Rows[i][1].Str = text
			l.Table.Rows[i][2].Bool = tooltip
			return
		}
	}
	l.Table.Rows = append(l.Table.Rows, Row{
		{Str: key}, {Str: text}, {Bool: tooltip},
	})
}
