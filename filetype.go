// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "strings"

// TextKind distinguishes the Text(<subtype>) family of classified
// plain-text file kinds.
type TextKind uint8

const (
	TextPlain TextKind = iota
	TextLua
	TextXML
	TextJSON
	TextCSV
	TextHTML
)

// FileType is the closed set of semantic classifications an in-container
// entry can be assigned. All variants other than AnimPack/DB/Loc/Text
// pass through as opaque bytes.
type FileType struct {
	kind     fileTypeKind
	textKind TextKind
}

type fileTypeKind uint8

const (
	ftUnknown fileTypeKind = iota
	ftAnimPack
	ftDB
	ftLoc
	ftText
	ftImage
	ftVideo
	ftRigidModel
	ftAnimTable
	ftAnimFragment
	ftMatchedCombat
	ftPortraitSettings
	ftGroupFormations
	ftESF
)

var (
	FileTypeUnknown          = FileType{kind: ftUnknown}
	FileTypeAnimPack         = FileType{kind: ftAnimPack}
	FileTypeDB               = FileType{kind: ftDB}
	FileTypeLoc              = FileType{kind: ftLoc}
	FileTypeImage            = FileType{kind: ftImage}
	FileTypeVideo            = FileType{kind: ftVideo}
	FileTypeRigidModel       = FileType{kind: ftRigidModel}
	FileTypeAnimTable        = FileType{kind: ftAnimTable}
	FileTypeAnimFragment     = FileType{kind: ftAnimFragment}
	FileTypeMatchedCombat    = FileType{kind: ftMatchedCombat}
	FileTypePortraitSettings = FileType{kind: ftPortraitSettings}
	FileTypeGroupFormations  = FileType{kind: ftGroupFormations}
	FileTypeESF              = FileType{kind: ftESF}
)

// FileTypeText returns the Text variant tagged with the given subtype.
func FileTypeText(kind TextKind) FileType { return FileType{kind: ftText, textKind: kind} }

// Equal compares in "strict" mode: Text(Plain) != Text(Lua).
func (t FileType) Equal(other FileType) bool {
	return t.kind == other.kind && (t.kind != ftText || t.textKind == other.textKind)
}

// EqualFamily compares in "family" mode: all Text variants are equal.
func (t FileType) EqualFamily(other FileType) bool { return t.kind == other.kind }

func (t FileType) String() string {
	switch t.kind {
	case ftAnimPack:
		return "AnimPack"
	case ftDB:
		return "DB"
	case ftLoc:
		return "Loc"
	case ftText:
		return "Text"
	case ftImage:
		return "Image"
	case ftVideo:
		return "Video"
	case ftRigidModel:
		return "RigidModel"
	case ftAnimTable:
		return "AnimTable"
	case ftAnimFragment:
		return "AnimFragment"
	case ftMatchedCombat:
		return "MatchedCombat"
	case ftPortraitSettings:
		return "PortraitSettings"
	case ftGroupFormations:
		return "GroupFormations"
	case ftESF:
		return "ESF"
	default:
		return "Unknown"
	}
}

var textExtensions = map[string]TextKind{
	".txt":  TextPlain,
	".lua":  TextLua,
	".xml":  TextXML,
	".json": TextJSON,
	".csv":  TextCSV,
	".htm":  TextHTML,
	".html": TextHTML,
}

var imageExtensions = map[string]bool{
	".png": true, ".dds": true, ".tga": true, ".jpg": true, ".jpeg": true,
}

const videoExtension = ".bik"

var plainExtensions = map[string]FileType{
	".loc":              FileTypeLoc,
	".animpack":         FileTypeAnimPack,
	".anim":             FileTypeAnimFragment,
	".rigid_model_v2":   FileTypeRigidModel,
	".esf":              FileTypeESF,
	".group_formations": FileTypeGroupFormations,
}

// Classify assigns a FileType to path, consulting firstBytes (which may be
// nil) only when the extension/path-shape rules are inconclusive.
func Classify(path string, firstBytes []byte) FileType {
	lower := strings.ToLower(path)

	if ft, ok := plainExtensions[extOf(lower)]; ok {
		return ft
	}
	if kind, ok := textExtensions[extOf(lower)]; ok {
		return FileTypeText(kind)
	}
	if imageExtensions[extOf(lower)] {
		return FileTypeImage
	}
	if extOf(lower) == videoExtension {
		return FileTypeVideo
	}

	if isDBPath(lower) {
		return FileTypeDB
	}

	if firstBytes != nil {
		if IsLoc(firstBytes) {
			return FileTypeLoc
		}
		if looksLikeDBHeader(firstBytes) {
			return FileTypeDB
		}
		if looksLikeVideo(firstBytes) {
			return FileTypeVideo
		}
	}

	return FileTypeUnknown
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}

// isDBPath reports whether path looks like db/<table>/<file>, i.e. has
// exactly depth 3 and starts with "db/".
func isDBPath(path string) bool {
	if !strings.HasPrefix(path, "db/") {
		return false
	}
	parts := strings.Split(path, "/")
	return len(parts) == 3 && parts[1] != "" && parts[2] != ""
}

func looksLikeDBHeader(b []byte) bool {
	if len(b) >= 4 && bytesEqual(b[:4], guidMarker[:]) {
		return true
	}
	if len(b) >= 4 && bytesEqual(b[:4], versionMarker[:]) {
		return true
	}
	// No markers: a bare reserved-byte + row-count header still needs at
	// least 5 bytes to be plausible.
	return len(b) >= 5
}

func looksLikeVideo(b []byte) bool {
	// Bink container magic "BIKi"/"BIKb"/"BIKd"/"BIKf".
	return len(b) >= 3 && b[0] == 'B' && b[1] == 'I' && b[2] == 'K'
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
