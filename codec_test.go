// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "testing"

func TestReaderWriterRoundTripScalars(t *testing.T) {
	w := NewWriter()
	w.U8(0xAB)
	w.U16(0x1234)
	w.U32(0xDEADBEEF)
	w.U64(0x1122334455667788)
	w.I32(-42)
	w.F32(1.5)
	w.F64(2.25)
	w.Bool(true)
	w.ColorRGB(0xFF112233)
	if err := w.StringU8("hello"); err != nil {
		t.Fatalf("StringU8 encode: %v", err)
	}
	if err := w.StringU16("héllo"); err != nil {
		t.Fatalf("StringU16 encode: %v", err)
	}
	w.ZeroTerminated("zpath")

	r := NewReader(w.Bytes())
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8 = %v, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x1234 {
		t.Fatalf("U16 = %v, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32 = %v, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x1122334455667788 {
		t.Fatalf("U64 = %v, %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -42 {
		t.Fatalf("I32 = %v, %v", v, err)
	}
	if v, err := r.F32(); err != nil || v != 1.5 {
		t.Fatalf("F32 = %v, %v", v, err)
	}
	if v, err := r.F64(); err != nil || v != 2.25 {
		t.Fatalf("F64 = %v, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("Bool = %v, %v", v, err)
	}
	if v, err := r.ColorRGB(); err != nil || v != 0x00112233 {
		t.Fatalf("ColorRGB = %x, %v", v, err)
	}
	if v, err := r.StringU8(); err != nil || v != "hello" {
		t.Fatalf("StringU8 = %q, %v", v, err)
	}
	if v, err := r.StringU16(); err != nil || v != "héllo" {
		t.Fatalf("StringU16 = %q, %v", v, err)
	}
	if v, err := r.ZeroTerminated(); err != nil || v != "zpath" {
		t.Fatalf("ZeroTerminated = %q, %v", v, err)
	}
	if !r.AtEnd() {
		t.Fatalf("expected cursor at end, %d bytes remaining", r.Remaining())
	}
}

func TestReaderBoolRejectsNonZeroOne(t *testing.T) {
	r := NewReader([]byte{2})
	if _, err := r.Bool(); err == nil {
		t.Fatal("expected InvalidBool error")
	} else if e, ok := err.(*Error); !ok || e.Kind != KindInvalidBool {
		t.Fatalf("expected KindInvalidBool, got %v", err)
	}
}

func TestReaderUnexpectedEOF(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.U32(); err == nil {
		t.Fatal("expected UnexpectedEof error")
	} else if e, ok := err.(*Error); !ok || e.Kind != KindUnexpectedEof {
		t.Fatalf("expected KindUnexpectedEof, got %v", err)
	}
}

func TestOptionalStringRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.OptionalStringU8(""); err != nil {
		t.Fatal(err)
	}
	if err := w.OptionalStringU8("present"); err != nil {
		t.Fatal(err)
	}

	r := NewReader(w.Bytes())
	if v, err := r.OptionalStringU8(); err != nil || v != "" {
		t.Fatalf("expected empty optional, got %q, %v", v, err)
	}
	if v, err := r.OptionalStringU8(); err != nil || v != "present" {
		t.Fatalf("expected \"present\", got %q, %v", v, err)
	}
}

func TestZeroPaddedStringU8(t *testing.T) {
	w := NewWriter()
	if err := w.ZeroPaddedStringU8("abc", 8); err != nil {
		t.Fatal(err)
	}
	r := NewReader(w.Bytes())
	v, err := r.ZeroPaddedStringU8(8)
	if err != nil {
		t.Fatal(err)
	}
	if v != "abc" {
		t.Fatalf("got %q", v)
	}
	if !r.AtEnd() {
		t.Fatal("expected cursor at end")
	}
}

func TestZeroPaddedStringU8TooLong(t *testing.T) {
	w := NewWriter()
	if err := w.ZeroPaddedStringU8("toolongvalue", 4); err == nil {
		t.Fatal("expected ValueTooLong error")
	}
}
