// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "testing"

func TestSettingsEncodeDecodeRoundTrip(t *testing.T) {
	s := NewSettings()
	s.Set("disable_autosaves", "true")
	s.Set("diagnostics_files_to_ignore", "db/unit_tables/*\r\ndb/faction_tables/*")

	encoded, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeSettings(encoded)
	if err != nil {
		t.Fatalf("DecodeSettings: %v", err)
	}
	if !decoded.DisableAutosaves() {
		t.Fatal("expected disable_autosaves to round-trip true")
	}
	globs := decoded.DiagnosticsIgnoreGlobs()
	if len(globs) != 2 || globs[0] != "db/unit_tables/*" || globs[1] != "db/faction_tables/*" {
		t.Fatalf("unexpected globs: %v", globs)
	}
}

func TestSettingsUnknownKeyDefaultsFalse(t *testing.T) {
	s := NewSettings()
	if s.DisableAutosaves() || s.DisableUUIDRegeneration() {
		t.Fatal("expected unset boolean keys to default false")
	}
	if globs := s.DiagnosticsIgnoreGlobs(); globs != nil {
		t.Fatalf("expected nil globs for unset key, got %v", globs)
	}
}

func TestSettingsGetSet(t *testing.T) {
	s := NewSettings()
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss on unset key")
	}
	s.Set("k", "v")
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Fatalf("Get(k) = %q, %v", v, ok)
	}
}
