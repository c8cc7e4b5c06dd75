// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"os"
	"path/filepath"
	"strings"
)

// Pack subtype bitfield layout: the low byte is the PackSubtype enum,
// the remaining bits are flags.
const (
	pfSubtypeMask           = 0x000000FF
	pfFlagHasExtendedHeader = 1 << 8
	pfFlagIndexWithTimestamps = 1 << 9
	pfFlagIndexEncrypted    = 1 << 10
	pfFlagPayloadEncrypted  = 1 << 11
)

var headerMagic = map[HeaderVersion]string{
	HeaderPFH0: "PFH0",
	HeaderPFH2: "PFH2",
	HeaderPFH3: "PFH3",
	HeaderPFH4: "PFH4",
	HeaderPFH5: "PFH5",
	HeaderPFH6: "PFH6",
}

func magicForVersion(v HeaderVersion) (string, bool) {
	m, ok := headerMagic[v]
	return m, ok
}

func versionForMagic(magic string) (HeaderVersion, bool) {
	for v, m := range headerMagic {
		if m == magic {
			return v, true
		}
	}
	return 0, false
}

// header is the parsed fixed-size Pack header.
type header struct {
	version            HeaderVersion
	subtype            PackSubtype
	hasExtendedHeader  bool
	indexHasTimestamps bool
	indexEncrypted     bool
	payloadEncrypted   bool
	packFileCount      uint32
	packFileIndexSize  uint32
	fileCount          uint32
	fileIndexSize      uint32
	timestamp          uint32
	gameVersion        uint32
}

func (h *header) bitfield() uint32 {
	v := uint32(h.subtype) & pfSubtypeMask
	if h.hasExtendedHeader {
		v |= pfFlagHasExtendedHeader
	}
	if h.indexHasTimestamps {
		v |= pfFlagIndexWithTimestamps
	}
	if h.indexEncrypted {
		v |= pfFlagIndexEncrypted
	}
	if h.payloadEncrypted {
		v |= pfFlagPayloadEncrypted
	}
	return v
}

func parseBitfield(v uint32) (PackSubtype, bool, bool, bool, bool) {
	subtype := PackSubtype(v & pfSubtypeMask)
	return subtype,
		v&pfFlagHasExtendedHeader != 0,
		v&pfFlagIndexWithTimestamps != 0,
		v&pfFlagIndexEncrypted != 0,
		v&pfFlagPayloadEncrypted != 0
}

func decodeHeader(r *Reader) (*header, error) {
	magic, err := r.Bytes(4)
	if err != nil {
		return nil, err
	}
	version, ok := versionForMagic(string(magic))
	if !ok {
		return nil, newErr(KindWrongHeader)
	}

	bitfield, err := r.U32()
	if err != nil {
		return nil, err
	}
	subtype, hasExt, idxTs, idxEnc, payEnc := parseBitfield(bitfield)

	h := &header{
		version:            version,
		subtype:            subtype,
		hasExtendedHeader:  hasExt,
		indexHasTimestamps: idxTs,
		indexEncrypted:     idxEnc,
		payloadEncrypted:   payEnc,
	}

	if h.packFileCount, err = r.U32(); err != nil {
		return nil, err
	}
	if h.packFileIndexSize, err = r.U32(); err != nil {
		return nil, err
	}
	if h.fileCount, err = r.U32(); err != nil {
		return nil, err
	}
	if h.fileIndexSize, err = r.U32(); err != nil {
		return nil, err
	}

	if version >= HeaderPFH4 {
		if h.timestamp, err = r.U32(); err != nil {
			return nil, err
		}
	}
	if version >= HeaderPFH5 {
		if h.gameVersion, err = r.U32(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *header) encode(w *Writer) {
	magic, _ := magicForVersion(h.version)
	w.Raw([]byte(magic))
	w.U32(h.bitfield())
	w.U32(h.packFileCount)
	w.U32(h.packFileIndexSize)
	w.U32(h.fileCount)
	w.U32(h.fileIndexSize)
	if h.version >= HeaderPFH4 {
		w.U32(h.timestamp)
	}
	if h.version >= HeaderPFH5 {
		w.U32(h.gameVersion)
	}
}

// Pack is an ordered collection of Entries plus the bookkeeping needed
// to open, edit, and save a Total War container file.
type Pack struct {
	HeaderVersion HeaderVersion
	Subtype       PackSubtype

	IndexHasTimestamps bool
	IndexEncrypted     bool
	PayloadEncrypted   bool

	DependencyPackNames []string
	GameVersion         uint32
	Timestamp           uint32

	Settings *Settings

	order   []string
	entries map[string]*Entry

	sources []*source // open backing files, kept alive for lazy reads
}

// NewPack returns an empty Pack of the given subtype, targeting version.
func NewPack(version HeaderVersion, subtype PackSubtype) *Pack {
	return &Pack{
		HeaderVersion: version,
		Subtype:       subtype,
		Settings:      NewSettings(),
		entries:       make(map[string]*Entry),
	}
}

func normalisePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Files returns every entry's lookup key (its forward-slash path,
// lowercased; Entry.Path keeps the inserter's casing) in stable iteration
// order (insertion order, with removed paths gone and overrides keeping
// their original slot).
func (p *Pack) Files() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Get returns the entry at path (case-insensitively resolved), or nil.
func (p *Pack) Get(path string) *Entry {
	return p.entries[strings.ToLower(normalisePath(path))]
}

func (p *Pack) insertEntry(e *Entry) {
	key := strings.ToLower(normalisePath(e.Path))
	if _, exists := p.entries[key]; !exists {
		p.order = append(p.order, key)
	}
	p.entries[key] = e
}

// InsertBytes inserts or replaces path with raw in-memory bytes.
func (p *Pack) InsertBytes(path string, data []byte) {
	path = normalisePath(path)
	e := &Entry{
		Path:    path,
		Type:    Classify(path, data),
		Payload: &InMemoryPayload{Data: data},
	}
	p.insertEntry(e)
}

// InsertFromDisk inserts path (the in-Pack path) with the content of the
// on-disk file fsPath, read into memory at insert time.
func (p *Pack) InsertFromDisk(path, fsPath string) error {
	data, err := os.ReadFile(fsPath)
	if err != nil {
		return wrapErr(KindIoError, err)
	}
	p.InsertBytes(path, data)
	return nil
}

// InsertFolder recursively inserts every file under fsFolder, preserving
// relative paths under destPrefix, skipping anything whose relative path
// is prefixed by an entry in ignore.
func (p *Pack) InsertFolder(fsFolder, destPrefix string, ignore []string) error {
	return filepath.Walk(fsFolder, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(fsFolder, walkPath)
		if err != nil {
			return err
		}
		rel = normalisePath(rel)
		for _, ig := range ignore {
			if strings.HasPrefix(rel, ig) {
				return nil
			}
		}
		destPath := normalisePath(filepath.Join(destPrefix, rel))
		return p.InsertFromDisk(destPath, walkPath)
	})
}

// Remove drops path, or every path under the folder prefix path+"/". It
// returns the removed paths for UI refresh.
func (p *Pack) Remove(path string) []string {
	path = strings.ToLower(normalisePath(path))
	var removed []string

	if _, ok := p.entries[path]; ok {
		removed = append(removed, path)
	} else {
		prefix := path + "/"
		for _, k := range p.order {
			if strings.HasPrefix(k, prefix) {
				removed = append(removed, k)
			}
		}
	}

	if len(removed) == 0 {
		return nil
	}
	removedSet := make(map[string]bool, len(removed))
	for _, r := range removed {
		removedSet[r] = true
		delete(p.entries, r)
	}
	newOrder := p.order[:0]
	for _, k := range p.order {
		if !removedSet[k] {
			newOrder = append(newOrder, k)
		}
	}
	p.order = newOrder
	return removed
}

// Close releases every backing on-disk source this Pack still holds open.
func (p *Pack) Close() error {
	var firstErr error
	for _, s := range p.sources {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.sources = nil
	return firstErr
}
