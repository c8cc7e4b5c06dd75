// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"
)

// CompressionFormat identifies how a Pack entry's payload is framed on
// disk. The zero value, CompressionNone, means the payload bytes are
// stored verbatim.
type CompressionFormat uint8

const (
	CompressionNone CompressionFormat = iota
	CompressionLZMA1
	CompressionLZ4
	CompressionZstd
)

func (f CompressionFormat) String() string {
	switch f {
	case CompressionLZMA1:
		return "lzma1"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "none"
	}
}

// frame tags precede every compressed blob so decompress never has to be
// told the format; only compress (which must respect the Game's permitted
// set) needs to choose one.
const (
	frameTagNone  = 0x00
	frameTagLZMA1 = 0x01
	frameTagLZ4   = 0x02
	frameTagZstd  = 0x03
)

// zstd encoders/decoders are expensive to set up; a Pack can hold tens of
// thousands of files, so both are pooled rather than rebuilt per call.
var (
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
	zstdDecOnce sync.Once
	zstdDec     *zstd.Decoder
)

func getZstdEncoder() *zstd.Encoder {
	zstdEncOnce.Do(func() {
		zstdEnc, _ = zstd.NewWriter(nil)
	})
	return zstdEnc
}

func getZstdDecoder() *zstd.Decoder {
	zstdDecOnce.Do(func() {
		zstdDec, _ = zstd.NewReader(nil)
	})
	return zstdDec
}

// compress encodes raw into a framed blob in the requested format. format
// must be one of the Game's Compression() list; callers are expected to
// have already checked that.
func compress(raw []byte, format CompressionFormat) ([]byte, error) {
	var tag byte
	var body []byte
	var err error

	switch format {
	case CompressionNone:
		tag, body = frameTagNone, raw
	case CompressionLZMA1:
		tag = frameTagLZMA1
		body, err = compressLZMA1(raw)
	case CompressionLZ4:
		tag = frameTagLZ4
		body, err = compressLZ4(raw)
	case CompressionZstd:
		tag = frameTagZstd
		body = getZstdEncoder().EncodeAll(raw, nil)
	default:
		return nil, newErr(KindUnsupportedCompression)
	}
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 5+len(body))
	out = append(out, tag)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	out = append(out, lenBuf[:]...)
	out = append(out, body...)
	return out, nil
}

// decompress inverts compress. It is detection-based: the leading tag byte
// says which codec produced the frame, so the caller's Game does not need
// to be consulted.
func decompress(framed []byte) ([]byte, error) {
	if len(framed) < 5 {
		return nil, newErr(KindUnexpectedEof)
	}
	tag := framed[0]
	n := binary.LittleEndian.Uint32(framed[1:5])
	if uint32(len(framed)-5) < n {
		return nil, newErr(KindUnexpectedEof)
	}
	body := framed[5 : 5+n]

	switch tag {
	case frameTagNone:
		return body, nil
	case frameTagLZMA1:
		return decompressLZMA1(body)
	case frameTagLZ4:
		return decompressLZ4(body)
	case frameTagZstd:
		out, err := getZstdDecoder().DecodeAll(body, nil)
		if err != nil {
			return nil, wrapErr(KindUnsupportedCompression, err)
		}
		return out, nil
	default:
		return nil, newErr(KindUnsupportedCompression)
	}
}

// compressLZMA1 writes a raw LZMA1 stream (no .xz container framing: the
// Pack format length-prefixes the frame itself).
func compressLZMA1(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, wrapErr(KindUnsupportedCompression, err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, wrapErr(KindUnsupportedCompression, err)
	}
	if err := w.Close(); err != nil {
		return nil, wrapErr(KindUnsupportedCompression, err)
	}
	return buf.Bytes(), nil
}

func decompressLZMA1(body []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, wrapErr(KindUnsupportedCompression, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapErr(KindUnsupportedCompression, err)
	}
	return out, nil
}

// compressLZ4 uses block-mode compression: each Pack payload is exactly
// one frame, never a multi-block stream, so the lighter block API is a
// better fit than lz4.Writer.
func compressLZ4(raw []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(raw)))
	var c lz4.Compressor
	n, err := c.CompressBlock(raw, buf)
	if err != nil {
		return nil, wrapErr(KindUnsupportedCompression, err)
	}
	if n == 0 && len(raw) > 0 {
		// incompressible input: lz4 declines, store raw behind a zero size
		// prefix, which decompress reads as "stored, not compressed".
		return encodeLZ4Incompressible(raw), nil
	}
	return append(encodeLZ4Size(len(raw)), buf[:n]...), nil
}

func encodeLZ4Size(n int) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(n))
	return b[:]
}

func encodeLZ4Incompressible(raw []byte) []byte {
	b := encodeLZ4Size(0)
	return append(b, raw...)
}

func decompressLZ4(body []byte) ([]byte, error) {
	if len(body) < 4 {
		return nil, newErr(KindUnexpectedEof)
	}
	originalSize := binary.LittleEndian.Uint32(body[:4])
	rest := body[4:]
	if originalSize == 0 {
		return rest, nil
	}
	out := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(rest, out)
	if err != nil {
		return nil, wrapErr(KindUnsupportedCompression, err)
	}
	return out[:n], nil
}
