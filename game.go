// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

// HeaderVersion is the PFH? magic byte identifying a Pack's on-disk
// layout. Only the six values the container format actually defines are
// legal; anything else fails WrongHeader.
type HeaderVersion uint8

const (
	HeaderPFH0 HeaderVersion = 0
	HeaderPFH2 HeaderVersion = 2
	HeaderPFH3 HeaderVersion = 3
	HeaderPFH4 HeaderVersion = 4
	HeaderPFH5 HeaderVersion = 5
	HeaderPFH6 HeaderVersion = 6
)

func (h HeaderVersion) valid() bool {
	switch h {
	case HeaderPFH0, HeaderPFH2, HeaderPFH3, HeaderPFH4, HeaderPFH5, HeaderPFH6:
		return true
	default:
		return false
	}
}

// PackSubtype is the low bits of the Pack's subtype bitfield.
type PackSubtype uint32

const (
	SubtypeBoot PackSubtype = iota
	SubtypeRelease
	SubtypePatch
	SubtypeMod
	SubtypeMovie
)

func (s PackSubtype) String() string {
	switch s {
	case SubtypeBoot:
		return "Boot"
	case SubtypeRelease:
		return "Release"
	case SubtypePatch:
		return "Patch"
	case SubtypeMod:
		return "Mod"
	case SubtypeMovie:
		return "Movie"
	default:
		return "Unknown"
	}
}

// editable reports whether save() allows this subtype without an explicit
// policy override.
func (s PackSubtype) editable() bool {
	return s == SubtypeMod || s == SubtypeMovie
}

// Game is the set of per-title constants that the rest of the core treats
// as data rather than code: header version per subtype, the permitted
// compression formats (most-preferred first), vanilla Pack load order,
// install layout, schema identity, and assorted per-title GUID/locale
// quirks.
type Game struct {
	// Key is the short machine name ("warhammer_3", "attila", ...).
	Key string

	// DisplayName is the human-readable title.
	DisplayName string

	// HeaderVersion is the PFH? version this Game writes by default.
	HeaderVersion HeaderVersion

	// CompressionFormats lists the formats this Game's engine can load, in
	// save-time preference order. compress() itself does not consult this
	// list; AllowsCompression reports whether a format is in it.
	CompressionFormats []CompressionFormat

	// VanillaPackNames is the canonical, load-order-significant list of
	// shipped Pack file names under the install path. Later entries
	// override earlier ones on duplicate paths.
	VanillaPackNames []string

	// InstallSubpath is the path, relative to the install root, containing
	// the vanilla Packs (e.g. "data").
	InstallSubpath string

	// SchemaFileName is the base name of this Game's schema document
	// (without extension; the Schema layer appends ".yaml").
	SchemaFileName string

	// LocFileName is the reserved path of the game's primary loc file
	// inside a Pack (not every Game keeps locs in one place, but this is
	// the conventional default).
	LocFileName string

	// DBTablesHaveGUID gates whether EncodeDB emits the GUID_MARKER
	// block. Several pre-Warhammer titles crash if one is present.
	DBTablesHaveGUID bool

	// RawDBReservedByteMustBe1 documents, as data, which games require the
	// DB header's reserved byte to read back as 1. The codec never
	// normalises this byte regardless of the flag.
	RawDBReservedByteMustBe1 bool

	// KnownMissingFields silences reference/diagnostic complaints about
	// fields the asset kit lists but the game code ignores. Keyed by
	// "<table>_tables" -> field names.
	KnownMissingFields map[string][]string
}

// Compression returns the Game's permitted compression formats, most
// preferred first. Index 0 is the default save-time target.
func (g *Game) Compression() []CompressionFormat { return g.CompressionFormats }

// AllowsCompression reports whether format is in the Game's permitted set.
func (g *Game) AllowsCompression(format CompressionFormat) bool {
	for _, f := range g.CompressionFormats {
		if f == format {
			return true
		}
	}
	return format == CompressionNone
}

// DefaultCompression is the first (most preferred) entry of
// CompressionFormats, or CompressionNone if the Game defines none.
func (g *Game) DefaultCompression() CompressionFormat {
	if len(g.CompressionFormats) == 0 {
		return CompressionNone
	}
	return g.CompressionFormats[0]
}

// IsKnownMissingField reports whether field is on table's suppression
// list, so Dependencies/Diagnostics can silence a reference complaint the
// asset kit itself got wrong.
func (g *Game) IsKnownMissingField(table, field string) bool {
	for _, f := range g.KnownMissingFields[table] {
		if f == field {
			return true
		}
	}
	return false
}

// Registry is a lookup of supported Games by key. Callers own construction
// (the core carries no process-wide default); NewRegistry seeds the set of
// titles the toolkit ships definitions for.
type Registry struct {
	games map[string]*Game
}

// NewRegistry returns a Registry preloaded with the built-in Game
// definitions.
func NewRegistry() *Registry {
	r := &Registry{games: make(map[string]*Game)}
	for _, g := range builtinGames() {
		r.games[g.Key] = g
	}
	return r
}

// Get returns the Game registered under key, or nil if unknown.
func (r *Registry) Get(key string) *Game { return r.games[key] }

// Register adds or overwrites a Game definition (used by callers that ship
// their own registry extensions for unlisted titles).
func (r *Registry) Register(g *Game) { r.games[g.Key] = g }

// Keys returns every registered Game key, unordered.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.games))
	for k := range r.games {
		keys = append(keys, k)
	}
	return keys
}

func builtinGames() []*Game {
	return []*Game{
		{
			Key:           "warhammer_3",
			DisplayName:   "Total War: WARHAMMER III",
			HeaderVersion: HeaderPFH5,
			CompressionFormats: []CompressionFormat{
				CompressionZstd, CompressionLZ4, CompressionLZMA1,
			},
			VanillaPackNames: []string{
				"data.pack", "local_en.pack", "models.pack", "terrain.pack",
				"warmachines.pack", "campaign.pack",
			},
			InstallSubpath:    "data",
			SchemaFileName:    "schema_wh3",
			LocFileName:       "text/db/local_en.loc",
			DBTablesHaveGUID:  true,
			KnownMissingFields: map[string][]string{},
		},
		{
			Key:           "three_kingdoms",
			DisplayName:   "Total War: Three Kingdoms",
			HeaderVersion: HeaderPFH5,
			CompressionFormats: []CompressionFormat{
				CompressionLZ4, CompressionLZMA1,
			},
			VanillaPackNames: []string{"data.pack", "local_en.pack"},
			InstallSubpath:   "data",
			SchemaFileName:   "schema_3k",
			LocFileName:      "text/db/local_en.loc",
			DBTablesHaveGUID: true,
		},
		{
			Key:           "warhammer_2",
			DisplayName:   "Total War: WARHAMMER II",
			HeaderVersion: HeaderPFH5,
			CompressionFormats: []CompressionFormat{
				CompressionLZMA1,
			},
			VanillaPackNames: []string{"data.pack", "local_en.pack"},
			InstallSubpath:   "data",
			SchemaFileName:   "schema_wh2",
			LocFileName:      "text/db/local_en.loc",
			DBTablesHaveGUID: true,
		},
		{
			Key:                "attila",
			DisplayName:        "Total War: Attila",
			HeaderVersion:      HeaderPFH4,
			CompressionFormats: nil,
			VanillaPackNames:   []string{"data.pack", "local_en.pack"},
			InstallSubpath:     "data",
			SchemaFileName:     "schema_att",
			LocFileName:        "text/db/local_en.loc",
			DBTablesHaveGUID:   false,
		},
		{
			Key:                      "shogun_2",
			DisplayName:              "Total War: Shogun 2",
			HeaderVersion:            HeaderPFH0,
			CompressionFormats:       nil,
			VanillaPackNames:         []string{"data.pack", "localisation.pack"},
			InstallSubpath:           "data",
			SchemaFileName:           "schema_sho2",
			LocFileName:              "localisation/local_en.loc",
			DBTablesHaveGUID:         false,
			RawDBReservedByteMustBe1: true,
		},
	}
}
