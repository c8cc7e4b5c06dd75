// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"os"
	"path/filepath"
)

// indexEntry is one parsed file-index record, not yet turned into an
// Entry (that needs the running payload offset, computed after every
// entry in the index has been read).
type indexEntry struct {
	size         uint32
	timestamp    uint32
	hasTimestamp bool
	compressed   bool
	path         string
}

// OpenAndMerge loads each Pack at paths, in order, and merges them into a
// single Pack: later Packs override earlier ones on duplicate path, and
// the merged Pack's metadata (subtype, dependency names, ...) is taken
// from the last Pack loaded. Per-file parse errors are collected and the
// caller still receives every Pack that did parse successfully.
func OpenAndMerge(paths []string, allowedVersions func(HeaderVersion) bool) (*Pack, *ErrorList) {
	errs := &ErrorList{}
	merged := &Pack{entries: make(map[string]*Entry)}

	for _, path := range paths {
		loaded, err := openOne(path)
		if err != nil {
			errs.Add(&Error{Kind: errKind(err), Path: path, Cause: err})
			continue
		}
		if allowedVersions != nil && !allowedVersions(loaded.HeaderVersion) {
			errs.Add((&Error{Kind: KindWrongHeader}).withPath(path))
			continue
		}

		merged.HeaderVersion = loaded.HeaderVersion
		merged.Subtype = loaded.Subtype
		merged.IndexHasTimestamps = loaded.IndexHasTimestamps
		merged.IndexEncrypted = loaded.IndexEncrypted
		merged.PayloadEncrypted = loaded.PayloadEncrypted
		merged.DependencyPackNames = loaded.DependencyPackNames
		merged.GameVersion = loaded.GameVersion
		merged.Timestamp = loaded.Timestamp
		merged.Settings = loaded.Settings

		for _, key := range loaded.order {
			e := loaded.entries[key]
			merged.insertEntry(e)
		}
		merged.sources = append(merged.sources, loaded.sources...)
	}

	return merged, errs
}

func errKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindIoError
}

func openOne(path string) (*Pack, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}

	r := NewReader(src.data)
	h, err := decodeHeader(r)
	if err != nil {
		src.close()
		return nil, err
	}

	p := &Pack{
		HeaderVersion:       h.version,
		Subtype:             h.subtype,
		IndexHasTimestamps:  h.indexHasTimestamps,
		IndexEncrypted:      h.indexEncrypted,
		PayloadEncrypted:    h.payloadEncrypted,
		Timestamp:           h.timestamp,
		GameVersion:         h.gameVersion,
		Settings:            NewSettings(),
		entries:             make(map[string]*Entry),
		sources:             []*source{src},
	}

	// Pack-file index: dependency Pack names, zero-terminated.
	depNames := make([]string, 0, h.packFileCount)
	for i := uint32(0); i < h.packFileCount; i++ {
		name, err := r.ZeroTerminated()
		if err != nil {
			src.close()
			return nil, err
		}
		depNames = append(depNames, name)
	}
	p.DependencyPackNames = depNames

	// File index, optionally encrypted as a whole blob.
	indexBytes, err := r.Bytes(int(h.fileIndexSize))
	if err != nil {
		src.close()
		return nil, err
	}
	if h.indexEncrypted {
		indexBytes = decrypt(indexBytes, RegionIndex, int(h.version))
	}

	entries, err := parseFileIndex(indexBytes, int(h.fileCount), h.indexHasTimestamps, h.version)
	if err != nil {
		src.close()
		return nil, err
	}

	payloadBase := int64(r.Pos())
	var running int64
	for _, ie := range entries {
		offset := payloadBase + running
		running += int64(ie.size)

		path := normalisePath(ie.path)
		if path == SettingsPath {
			data, err := src.readAt(offset, int64(ie.size))
			if err != nil {
				src.close()
				return nil, err
			}
			if h.payloadEncrypted {
				data = decrypt(data, RegionPayload, int(h.version))
			}
			if ie.compressed {
				data, err = decompress(data)
				if err != nil {
					src.close()
					return nil, err
				}
			}
			settings, err := DecodeSettings(data)
			if err == nil {
				p.Settings = settings
			}
			continue
		}

		e := &Entry{
			Path: path,
			Type: Classify(path, nil),
			Payload: &OnDiskPayload{
				src:         src,
				offset:      offset,
				length:      int64(ie.size),
				compression: compressionOf(ie.compressed),
				encrypted:   h.payloadEncrypted,
				headerVer:   int(h.version),
			},
		}
		if ie.hasTimestamp {
			ts := ie.timestamp
			e.Timestamp = &ts
		}
		e.ShouldCompress = ie.compressed
		e.ShouldEncrypt = h.payloadEncrypted
		p.insertEntry(e)
	}

	return p, nil
}

func compressionOf(flag bool) CompressionFormat {
	if flag {
		return CompressionZstd // actual format is frame-tagged; this only
		// marks "some compression is present" pending the frame tag read
		// during decompress, which re-derives the real codec.
	}
	return CompressionNone
}

func parseFileIndex(data []byte, count int, hasTimestamps bool, version HeaderVersion) ([]indexEntry, error) {
	r := NewReader(data)
	out := make([]indexEntry, 0, count)
	for i := 0; i < count; i++ {
		var ie indexEntry
		size, err := r.U32()
		if err != nil {
			return nil, err
		}
		ie.size = size

		if hasTimestamps {
			ts, err := r.U32()
			if err != nil {
				return nil, err
			}
			ie.timestamp = ts
			ie.hasTimestamp = true
		}

		if version >= HeaderPFH5 {
			compressed, err := r.Bool()
			if err != nil {
				return nil, err
			}
			ie.compressed = compressed
		}

		path, err := r.ZeroTerminated()
		if err != nil {
			return nil, err
		}
		ie.path = path

		out = append(out, ie)
	}
	if !r.AtEnd() {
		return nil, newErr(KindTrailingBytes)
	}
	return out, nil
}

// Save writes the Pack to targetPath, which callers must supply; this
// core never tracks "the original path" implicitly, so an empty
// targetPath is not replaced by one. Subtypes other than Mod/Movie are
// refused unless allowEditCA is set. The write is atomic: a temp file is
// written and fsynced, then renamed over the target; on any earlier
// error the target is left untouched.
func (p *Pack) Save(targetPath string, game *Game, allowEditCA bool, pinGUIDs bool) error {
	if !p.Subtype.editable() && !allowEditCA {
		return newErr(KindCannotEditCaPack).withPath(targetPath)
	}

	body, err := p.encode(game, pinGUIDs)
	if err != nil {
		return err
	}

	tmp := targetPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return wrapErr(KindIoError, err)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(tmp)
		return wrapErr(KindIoError, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return wrapErr(KindIoError, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return wrapErr(KindIoError, err)
	}
	if err := os.Rename(tmp, targetPath); err != nil {
		os.Remove(tmp)
		return wrapErr(KindIoError, err)
	}
	return nil
}

// encode builds the full on-disk byte image in one shot: per-entry
// compression, index, header, pack-file index, payloads, in that order.
func (p *Pack) encode(game *Game, pinGUIDs bool) ([]byte, error) {
	type encoded struct {
		path       string
		payload    []byte
		compressed bool
		timestamp  uint32
		hasTs      bool
	}

	out := make([]encoded, 0, len(p.order)+1)
	for _, key := range p.order {
		e := p.entries[key]
		data, compressed, err := p.encodeEntryPayload(e, game, pinGUIDs)
		if err != nil {
			return nil, (&Error{Kind: errKind(err), Cause: err}).withPath(e.Path)
		}
		if p.PayloadEncrypted {
			data = encrypt(data, RegionPayload, int(p.HeaderVersion))
		}
		enc := encoded{path: e.Path, payload: data, compressed: compressed}
		if e.Timestamp != nil {
			enc.hasTs = true
			enc.timestamp = *e.Timestamp
		}
		out = append(out, enc)
	}

	if len(p.Settings.values) > 0 {
		settingsBytes, err := p.Settings.Encode()
		if err != nil {
			return nil, err
		}
		out = append(out, encoded{path: SettingsPath, payload: settingsBytes})
	}

	// File index.
	idxW := NewWriter()
	for _, enc := range out {
		idxW.U32(uint32(len(enc.payload)))
		if p.IndexHasTimestamps {
			idxW.U32(enc.timestamp)
		}
		if p.HeaderVersion >= HeaderPFH5 {
			idxW.Bool(enc.compressed)
		}
		idxW.ZeroTerminated(enc.path)
	}
	indexBytes := idxW.Bytes()
	if p.IndexEncrypted {
		indexBytes = encrypt(indexBytes, RegionIndex, int(p.HeaderVersion))
	}

	// Pack-file index (dependency names).
	depW := NewWriter()
	for _, name := range p.DependencyPackNames {
		depW.ZeroTerminated(name)
	}
	depBytes := depW.Bytes()

	h := &header{
		version:            p.HeaderVersion,
		subtype:            p.Subtype,
		indexHasTimestamps: p.IndexHasTimestamps,
		indexEncrypted:     p.IndexEncrypted,
		payloadEncrypted:   p.PayloadEncrypted,
		packFileCount:      uint32(len(p.DependencyPackNames)),
		packFileIndexSize:  uint32(len(depBytes)),
		fileCount:          uint32(len(out)),
		fileIndexSize:      uint32(len(indexBytes)),
		timestamp:          p.Timestamp,
		gameVersion:        p.GameVersion,
	}

	w := NewWriter()
	h.encode(w)
	w.Raw(depBytes)
	w.Raw(indexBytes)
	for _, enc := range out {
		w.Raw(enc.payload)
	}
	return w.Bytes(), nil
}

func (p *Pack) encodeEntryPayload(e *Entry, game *Game, pinGUIDs bool) ([]byte, bool, error) {
	var raw []byte
	var err error

	switch dp := e.Payload.(type) {
	case *DecodedPayload:
		if dp.DB != nil {
			raw, err = EncodeDB(dp.DB, game, pinGUIDs)
		} else if dp.Loc != nil {
			raw, err = EncodeLoc(dp.Loc)
		} else {
			raw = dp.Raw
		}
	default:
		raw, err = e.GetData()
	}
	if err != nil {
		return nil, false, err
	}

	shouldCompress := e.ShouldCompress && game != nil && len(game.Compression()) > 0
	if !shouldCompress {
		return raw, false, nil
	}
	compressed, err := compress(raw, game.DefaultCompression())
	if err != nil {
		return nil, false, err
	}
	return compressed, true, nil
}

// Extract writes path's decoded bytes to destFSPath, recreating
// intermediate directories. If schema is non-nil and the entry is a DB or
// Loc, it is transcoded to TSV instead of raw bytes.
func (p *Pack) Extract(entryPath, destFSPath string, schema *Schema) error {
	e := p.Get(entryPath)
	if e == nil {
		return newErr(KindIoError).withPath(entryPath)
	}

	if err := os.MkdirAll(filepath.Dir(destFSPath), 0o755); err != nil {
		return wrapErr(KindIoError, err)
	}

	if schema != nil {
		if dp, ok := e.Payload.(*DecodedPayload); ok {
			if dp.DB != nil {
				tsv := EncodeTSV(dp.DB.TableName, dp.DB.Table, false)
				return os.WriteFile(destFSPath, []byte(tsv), 0o644)
			}
			if dp.Loc != nil {
				tsv := EncodeTSV("Loc PackedFile", dp.Loc.Table, false)
				return os.WriteFile(destFSPath, []byte(tsv), 0o644)
			}
		}
	}

	data, err := e.GetData()
	if err != nil {
		return err
	}
	if err := os.WriteFile(destFSPath, data, 0o644); err != nil {
		return wrapErr(KindIoError, err)
	}
	return nil
}
