// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

// Context carries the values every top-level operation needs instead of
// reaching for process-wide globals: Context is an explicit parameter,
// never a package variable, so switching Game or reloading Schema never
// has spooky action at a distance on a caller that hasn't re-read it.
type Context struct {
	Game         *Game
	Schema       *Schema
	Dependencies *Dependencies
	Settings     *Settings
}

// SettingsPath is the reserved in-Pack path for the embedded settings blob.
const SettingsPath = ".rpfm_reserved/settings"

// Settings is the Pack's embedded key->string settings blob. The core
// reads and writes it but only interprets a small set of known keys.
type Settings struct {
	values map[string]string
}

// NewSettings returns an empty Settings blob.
func NewSettings() *Settings { return &Settings{values: make(map[string]string)} }

// DecodeSettings parses the reserved-path payload: a u32 entry count
// followed by that many StringU8 key/StringU8 value pairs.
func DecodeSettings(data []byte) (*Settings, error) {
	r := NewReader(data)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	s := NewSettings()
	for i := uint32(0); i < n; i++ {
		k, err := r.StringU8()
		if err != nil {
			return nil, err
		}
		v, err := r.StringU8()
		if err != nil {
			return nil, err
		}
		s.values[k] = v
	}
	return s, nil
}

// Encode serialises the settings blob back to bytes.
func (s *Settings) Encode() ([]byte, error) {
	w := NewWriter()
	w.U32(uint32(len(s.values)))
	for k, v := range s.values {
		if err := w.StringU8(k); err != nil {
			return nil, err
		}
		if err := w.StringU8(v); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func (s *Settings) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Settings) Set(key, value string) { s.values[key] = value }

// DisableAutosaves is the "disable_autosaves" known key.
func (s *Settings) DisableAutosaves() bool { return s.boolKey("disable_autosaves") }

// DisableUUIDRegeneration is the
// "disable_uuid_regeneration_on_db_tables" known key.
func (s *Settings) DisableUUIDRegeneration() bool {
	return s.boolKey("disable_uuid_regeneration_on_db_tables")
}

func (s *Settings) boolKey(key string) bool {
	v, ok := s.values[key]
	return ok && v == "true"
}

// DiagnosticsIgnoreGlobs returns the newline-separated path globs stored
// under "diagnostics_files_to_ignore".
func (s *Settings) DiagnosticsIgnoreGlobs() []string {
	v, ok := s.values["diagnostics_files_to_ignore"]
	if !ok || v == "" {
		return nil
	}
	return splitLines(v)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if line := trimCR(s[start:i]); line != "" {
				out = append(out, line)
			}
			start = i + 1
		}
	}
	if line := trimCR(s[start:]); line != "" {
		out = append(out, line)
	}
	return out
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
