// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"crypto/sha256"
	"os"
	"sync"

	mmap "github.com/edsrzf/mmap-go"
)

// source is one opened backing Pack file shared read-only among every
// on-disk payload reference into it. A single mutex guards both the seek
// and the one-time content-hash transition on first read: concurrent
// decode of independent entries only serialises the read itself, never
// the decompress that follows.
type source struct {
	mu   sync.Mutex
	path string
	f    *os.File
	data mmap.MMap
}

func openSource(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(KindIoError, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, wrapErr(KindIoError, err)
	}
	return &source{path: path, f: f, data: data}, nil
}

func (s *source) close() error {
	var err error
	if s.data != nil {
		err = s.data.Unmap()
	}
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// readAt reads length bytes at offset, guarded by s.mu.
func (s *source) readAt(offset, length int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || length < 0 || offset+length > int64(len(s.data)) {
		return nil, newErr(KindUnexpectedEof).withPath(s.path)
	}
	out := make([]byte, length)
	copy(out, s.data[offset:offset+length])
	return out, nil
}

// OnDiskPayload is a lazy reference into an already-open Pack file: the
// bytes are not read until GetData is called, and a content hash captured
// on that first read guards every subsequent read against the underlying
// file having mutated out from under us.
type OnDiskPayload struct {
	src         *source
	offset      int64
	length      int64
	compression CompressionFormat
	encrypted   bool
	headerVer   int

	hash   [32]byte
	hashOK bool
}

func (p *OnDiskPayload) isPayload() {}

// InMemoryPayload holds raw bytes directly, in whatever compression/
// encryption state they currently carry.
type InMemoryPayload struct {
	Data        []byte
	Compression CompressionFormat
	Encrypted   bool
	HeaderVer   int
}

func (p *InMemoryPayload) isPayload() {}

// DecodedPayload holds a typed value (DB, Loc, or raw bytes for an
// unrecognised/opaque type) that supersedes the backing bytes until the
// entry is re-encoded on save.
type DecodedPayload struct {
	DB  *DB
	Loc *Loc
	Raw []byte // opaque/AnimPack/etc content kept verbatim
}

func (p *DecodedPayload) isPayload() {}

// Payload is the sum type an Entry's content can be in: on-disk,
// in-memory, or decoded.
type Payload interface{ isPayload() }

// Entry is one Pack-contained file.
type Entry struct {
	Path string

	ShouldCompress bool
	ShouldEncrypt  bool

	// Timestamp is present only when the owning Pack's bitmask requests
	// per-entry timestamps.
	Timestamp *uint32

	Type FileType

	Payload Payload
}

// rawCompressed returns the entry's bytes in their current compressed
// (but not yet decompressed) and possibly still-encrypted state, reading
// from disk and verifying the hash if needed.
func (e *Entry) rawCompressed() ([]byte, CompressionFormat, bool, int, error) {
	switch p := e.Payload.(type) {
	case *InMemoryPayload:
		return p.Data, p.Compression, p.Encrypted, p.HeaderVer, nil
	case *OnDiskPayload:
		data, err := p.src.readAt(p.offset, p.length)
		if err != nil {
			return nil, 0, false, 0, err
		}
		sum := sha256.Sum256(data)
		p.src.mu.Lock()
		if !p.hashOK {
			p.hash = sum
			p.hashOK = true
		} else if p.hash != sum {
			p.src.mu.Unlock()
			return nil, 0, false, 0, newErr(KindChecksumFailed).withPath(e.Path)
		}
		p.src.mu.Unlock()
		return data, p.compression, p.encrypted, p.headerVer, nil
	case *DecodedPayload:
		return nil, 0, false, 0, nil
	default:
		return nil, 0, false, 0, newErr(KindIoError).withPath(e.Path)
	}
}

// GetData returns the entry's fully decoded, decompressed, decrypted
// bytes. Decoded payloads (DB/Loc) are re-encoded on demand so callers
// always see bytes that match the current in-memory value.
func (e *Entry) GetData() ([]byte, error) {
	if dp, ok := e.Payload.(*DecodedPayload); ok {
		return e.reencodeDecoded(dp)
	}

	raw, compression, encrypted, headerVer, err := e.rawCompressed()
	if err != nil {
		return nil, err
	}
	// Encryption is outermost: decrypt first, then decompress.
	if encrypted {
		raw = decrypt(raw, RegionPayload, headerVer)
	}
	if compression != CompressionNone {
		raw, err = decompress(raw)
		if err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func (e *Entry) reencodeDecoded(dp *DecodedPayload) ([]byte, error) {
	if dp.DB != nil {
		// Encoding a DB back to bytes requires knowing the target Game
		// (for the GUID policy); callers that need that precision should
		// use EncodeDB directly. GetData here returns only the encoded row
		// block (row count + rows), without the DB header (GUID, version
		// marker, reserved byte).
		return EncodeTable(dp.DB.Table)
	}
	if dp.Loc != nil {
		return EncodeLoc(dp.Loc)
	}
	return dp.Raw, nil
}

// Decoded returns the entry's payload as a *DecodedPayload, decoding it on
// first access and caching the result on the Entry itself so repeated calls
// are free. DB/Loc entries decode against ctx.Schema; every other FileType
// decodes to a DecodedPayload carrying only the raw bytes, so callers can
// treat "decoded" uniformly regardless of kind.
func (e *Entry) Decoded(ctx *Context) (*DecodedPayload, error) {
	if dp, ok := e.Payload.(*DecodedPayload); ok {
		return dp, nil
	}

	data, err := e.GetData()
	if err != nil {
		return nil, err
	}

	var dp *DecodedPayload
	switch {
	case e.Type.EqualFamily(FileTypeDB):
		if ctx == nil || ctx.Schema == nil {
			return nil, newErr(KindTableEmptyNoDefinition).withPath(e.Path)
		}
		db, err := DecodeDB(dbTableNameFromPath(e.Path), data, ctx.Schema)
		if err != nil {
			if ie, ok := err.(*Error); ok && ie.Kind == KindTableIncomplete {
				dp = &DecodedPayload{DB: db}
				break
			}
			return nil, err
		}
		dp = &DecodedPayload{DB: db}
	case e.Type.EqualFamily(FileTypeLoc):
		loc, err := DecodeLoc(data)
		if err != nil {
			return nil, err
		}
		dp = &DecodedPayload{Loc: loc}
	default:
		dp = &DecodedPayload{Raw: data}
	}

	e.Payload = dp
	return dp, nil
}

// SetDecodedDB replaces the entry's payload with a decoded DB value.
func (e *Entry) SetDecodedDB(db *DB) { e.Payload = &DecodedPayload{DB: db}; e.Type = FileTypeDB }

// SetDecodedLoc replaces the entry's payload with a decoded Loc value.
func (e *Entry) SetDecodedLoc(loc *Loc) { e.Payload = &DecodedPayload{Loc: loc}; e.Type = FileTypeLoc }

// SetBytes replaces the entry's payload with raw in-memory bytes.
func (e *Entry) SetBytes(data []byte) {
	e.Payload = &InMemoryPayload{Data: data}
}
