// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Reader is a cursor over a byte slice offering the typed, boundary-checked
// little-endian decoders used throughout the container and table codecs.
// It advances an internal cursor instead of making callers track offsets
// by hand.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Pos returns the current cursor position.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// AtEnd reports whether the cursor has consumed the whole buffer.
func (r *Reader) AtEnd() bool { return r.pos == len(r.data) }

// Seek repositions the cursor to an absolute offset.
func (r *Reader) Seek(pos int) { r.pos = pos }

func (r *Reader) need(n int) error {
	if n < 0 || r.pos+n > len(r.data) || r.pos+n < r.pos {
		return newErr(KindUnexpectedEof)
	}
	return nil
}

// Bytes reads n raw bytes and advances the cursor.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Rest returns every remaining unread byte without advancing the cursor.
func (r *Reader) Rest() []byte { return r.data[r.pos:] }

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ColorRGB decodes a color packed into the low 3 bytes of a little-endian
// uint32, as used by ColorRGB-typed table fields.
func (r *Reader) ColorRGB() (uint32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return v & 0x00FFFFFF, nil
}

// Bool decodes a strict 0/1 byte. Any other value fails InvalidBool.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, newErr(KindInvalidBool)
	}
}

// StringU8 decodes a u16 byte-length prefix followed by that many UTF-8
// bytes.
func (r *Reader) StringU8() (string, error) {
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	if !isValidUTF8(b) {
		return "", newErr(KindInvalidUtf8)
	}
	return string(b), nil
}

// StringU16 decodes a u16 code-unit-length prefix followed by that many
// UTF-16LE code units.
func (r *Reader) StringU16() (string, error) {
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n) * 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16LE(b)
}

// OptionalStringU8 decodes a bool flag followed, if true, by a StringU8.
func (r *Reader) OptionalStringU8() (string, error) {
	present, err := r.Bool()
	if err != nil {
		return "", err
	}
	if !present {
		return "", nil
	}
	return r.StringU8()
}

// OptionalStringU16 decodes a bool flag followed, if true, by a StringU16.
func (r *Reader) OptionalStringU16() (string, error) {
	present, err := r.Bool()
	if err != nil {
		return "", err
	}
	if !present {
		return "", nil
	}
	return r.StringU16()
}

// ZeroPaddedStringU8 decodes exactly n bytes and returns everything before
// the first NUL.
func (r *Reader) ZeroPaddedStringU8(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if !isValidUTF8(b) {
		return "", newErr(KindInvalidUtf8)
	}
	return string(b), nil
}

// ZeroTerminated reads bytes up to (and consuming) the next NUL byte.
// Used by the Pack's pack-file index and file index path entries.
func (r *Reader) ZeroTerminated() (string, error) {
	i := bytes.IndexByte(r.data[r.pos:], 0)
	if i < 0 {
		return "", newErr(KindUnexpectedEof)
	}
	s := r.data[r.pos : r.pos+i]
	r.pos += i + 1
	if !isValidUTF8(s) {
		return "", newErr(KindInvalidUtf8)
	}
	return string(s), nil
}

// Writer accumulates encoded bytes using the same typed vocabulary as
// Reader.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) Raw(b []byte) { w.buf.Write(b) }

func (w *Writer) U8(v uint8) { w.buf.WriteByte(v) }

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) I16(v int16) { w.U16(uint16(v)) }
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }
func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

func (w *Writer) ColorRGB(v uint32) { w.U32(v & 0x00FFFFFF) }

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

func (w *Writer) StringU8(s string) error {
	b := []byte(s)
	if len(b) > 0xFFFF {
		return newErr(KindValueTooLong)
	}
	w.U16(uint16(len(b)))
	w.buf.Write(b)
	return nil
}

func (w *Writer) StringU16(s string) error {
	b, err := encodeUTF16LE(s)
	if err != nil {
		return err
	}
	units := len(b) / 2
	if units > 0xFFFF {
		return newErr(KindValueTooLong)
	}
	w.U16(uint16(units))
	w.buf.Write(b)
	return nil
}

func (w *Writer) OptionalStringU8(s string) error {
	if s == "" {
		w.Bool(false)
		return nil
	}
	w.Bool(true)
	return w.StringU8(s)
}

func (w *Writer) OptionalStringU16(s string) error {
	if s == "" {
		w.Bool(false)
		return nil
	}
	w.Bool(true)
	return w.StringU16(s)
}

// ZeroPaddedStringU8 encodes s into exactly n bytes, NUL-padded. Fails
// ValueTooLong if s does not fit.
func (w *Writer) ZeroPaddedStringU8(s string, n int) error {
	b := []byte(s)
	if len(b) > n {
		return newErr(KindValueTooLong)
	}
	padded := make([]byte, n)
	copy(padded, b)
	w.buf.Write(padded)
	return nil
}

// ZeroTerminated writes s followed by a NUL byte.
func (w *Writer) ZeroTerminated(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

var utf16Codec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeUTF16LE(b []byte) (string, error) {
	s, err := utf16Codec.NewDecoder().Bytes(b)
	if err != nil {
		return "", wrapErr(KindInvalidUtf8, err)
	}
	return string(s), nil
}

func encodeUTF16LE(s string) ([]byte, error) {
	b, err := utf16Codec.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, wrapErr(KindInvalidUtf8, err)
	}
	return b, nil
}
