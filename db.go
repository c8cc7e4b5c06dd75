// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "github.com/google/uuid"

var guidMarker = [4]byte{0xFD, 0xFE, 0xFC, 0xFF}
var versionMarker = [4]byte{0xFC, 0xFD, 0xFE, 0xFF}

// DB is a decoded "<table>_tables" file: a Table plus the bookkeeping the
// DB header carries alongside the rows (table name, GUID, reserved byte).
type DB struct {
	TableName string
	GUID      string // empty for pre-GUID-era games
	Reserved  byte   // preserved verbatim; never normalised
	Table     *Table
}

// DecodeDB parses a DB header + row payload. schema supplies the
// candidate Definitions when no VERSION_MARKER pins a version.
func DecodeDB(tableName string, payload []byte, schema *Schema) (*DB, error) {
	r := NewReader(payload)

	db := &DB{TableName: tableName}

	if hasPrefix(r, guidMarker[:]) {
		if _, err := r.Bytes(4); err != nil {
			return nil, err
		}
		guid, err := r.StringU16()
		if err != nil {
			return nil, err
		}
		db.GUID = guid
	}

	version := 0
	if hasPrefix(r, versionMarker[:]) {
		if _, err := r.Bytes(4); err != nil {
			return nil, err
		}
		v, err := r.I32()
		if err != nil {
			return nil, err
		}
		version = int(v)
	}

	reserved, err := r.U8()
	if err != nil {
		return nil, err
	}
	db.Reserved = reserved

	rest := r.Rest()

	var table *Table
	if version != 0 {
		def, err := schema.DefinitionByNameAndVersion(tableName, version)
		if err != nil {
			return nil, err
		}
		table, err = DecodeTable(rest, def)
		if err != nil {
			return nil, err
		}
	} else {
		candidates := schema.DefinitionsNewestFirst(tableName)
		if len(candidates) == 0 {
			return nil, newErr(KindTableEmptyNoDefinition).withPath(tableName)
		}
		var err error
		table, err = DecodeTableBestVersion(rest, candidates)
		if err != nil {
			if e, ok := err.(*Error); ok && e.Kind == KindTableIncomplete {
				db.Table = table
				return db, e
			}
			return nil, err
		}
	}
	db.Table = table
	return db, nil
}

func hasPrefix(r *Reader, prefix []byte) bool {
	if r.Remaining() < len(prefix) {
		return false
	}
	rest := r.Rest()
	for i, b := range prefix {
		if rest[i] != b {
			return false
		}
	}
	return true
}

// EncodeDB writes a header (optional GUID block, then the version marker
// and version, which are always written, then the reserved byte)
// followed by the row payload. game gates whether the GUID block
// is emitted at all (writing one for a pre-GUID title is known to crash
// that game) and whether a fresh UUID is generated.
func EncodeDB(db *DB, game *Game, pinGUID bool) ([]byte, error) {
	w := NewWriter()

	if game.DBTablesHaveGUID {
		guid := db.GUID
		if !pinGUID || guid == "" {
			guid = uuid.NewString()
		}
		w.Raw(guidMarker[:])
		if err := w.StringU16(guid); err != nil {
			return nil, err
		}
	}

	w.Raw(versionMarker[:])
	w.I32(int32(db.Table.Definition.Version))

	w.U8(db.Reserved)

	body, err := EncodeTable(db.Table)
	if err != nil {
		return nil, err
	}
	w.Raw(body)
	return w.Bytes(), nil
}
