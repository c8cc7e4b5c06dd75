// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema documents are a human-readable YAML serialisation, stable
// across versions by adding fields. Rather than pull in a full YAML
// library for a grammar this narrow — one map of table name to a list
// of fixed-shape records — the loader below walks a restricted subset
// (2-space indents, no anchors/tags/flow collections); see DESIGN.md
// for why this one path stays off a third-party YAML dependency.

// EncodeSchemaDocument renders schema as the restricted YAML subset
// DecodeSchemaDocument can read back.
func EncodeSchemaDocument(schema *Schema) string {
	var b strings.Builder
	for _, tableName := range schema.TableNames() {
		fmt.Fprintf(&b, "%s:\n", tableName)
		for _, def := range schema.Tables[tableName] {
			fmt.Fprintf(&b, "  - version: %d\n", def.Version)
			b.WriteString("    fields:\n")
			for _, f := range def.Fields {
				writeFieldYAML(&b, f)
			}
			if len(def.LocalisedFields) > 0 {
				b.WriteString("    localised_fields:\n")
				for _, lf := range def.LocalisedFields {
					fmt.Fprintf(&b, "      - %s\n", lf)
				}
			}
		}
	}
	return b.String()
}

func writeFieldYAML(b *strings.Builder, f Field) {
	fmt.Fprintf(b, "      - name: %s\n", f.Name)
	fmt.Fprintf(b, "        type: %s\n", f.Type.String())
	if f.IsKey {
		b.WriteString("        is_key: true\n")
	}
	if f.Default != "" {
		fmt.Fprintf(b, "        default: %s\n", f.Default)
	}
	if f.MaxLength > 0 {
		fmt.Fprintf(b, "        max_length: %d\n", f.MaxLength)
	}
	if f.Description != "" {
		fmt.Fprintf(b, "        description: %s\n", f.Description)
	}
	if f.Reference != nil {
		fmt.Fprintf(b, "        ref_table: %s\n", f.Reference.Table)
		fmt.Fprintf(b, "        ref_column: %s\n", f.Reference.Column)
		if len(f.Reference.LookupColumns) > 0 {
			fmt.Fprintf(b, "        ref_lookup: %s\n", strings.Join(f.Reference.LookupColumns, ","))
		}
	}
}

// DecodeSchemaDocument parses the restricted subset written by
// EncodeSchemaDocument into a Schema for gameKey.
func DecodeSchemaDocument(gameKey, doc string) (*Schema, error) {
	schema := NewSchema(gameKey)

	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	var currentTable string
	var currentDef *Definition
	var currentField *Field
	section := ""

	flushField := func() {
		if currentField != nil && currentDef != nil {
			currentDef.Fields = append(currentDef.Fields, *currentField)
			currentField = nil
		}
	}
	flushDef := func() {
		flushField()
		if currentDef != nil && currentTable != "" {
			schema.AddDefinition(currentTable, currentDef)
			currentDef = nil
		}
	}

	for _, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		indent := leadingSpaces(raw)
		line := strings.TrimSpace(raw)

		switch {
		case indent == 0 && strings.HasSuffix(line, ":"):
			flushDef()
			currentTable = strings.TrimSuffix(line, ":")
			section = ""
		case strings.HasPrefix(line, "- version:"):
			flushDef()
			v, _ := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "- version:")))
			currentDef = &Definition{Version: v}
			section = ""
		case line == "fields:":
			flushField()
			section = "fields"
		case line == "localised_fields:":
			flushField()
			section = "localised_fields"
		case section == "localised_fields" && strings.HasPrefix(line, "- "):
			if currentDef != nil {
				currentDef.LocalisedFields = append(currentDef.LocalisedFields, strings.TrimPrefix(line, "- "))
			}
		case section == "fields" && strings.HasPrefix(line, "- name:"):
			flushField()
			name := strings.TrimSpace(strings.TrimPrefix(line, "- name:"))
			currentField = &Field{Name: name}
		case currentField != nil && strings.HasPrefix(line, "type:"):
			currentField.Type = parseFieldType(strings.TrimSpace(strings.TrimPrefix(line, "type:")))
		case currentField != nil && strings.HasPrefix(line, "is_key:"):
			currentField.IsKey = strings.TrimSpace(strings.TrimPrefix(line, "is_key:")) == "true"
		case currentField != nil && strings.HasPrefix(line, "default:"):
			currentField.Default = strings.TrimSpace(strings.TrimPrefix(line, "default:"))
		case currentField != nil && strings.HasPrefix(line, "max_length:"):
			n, _ := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "max_length:")))
			currentField.MaxLength = n
		case currentField != nil && strings.HasPrefix(line, "description:"):
			currentField.Description = strings.TrimSpace(strings.TrimPrefix(line, "description:"))
		case currentField != nil && strings.HasPrefix(line, "ref_table:"):
			ensureRef(currentField).Table = strings.TrimSpace(strings.TrimPrefix(line, "ref_table:"))
		case currentField != nil && strings.HasPrefix(line, "ref_column:"):
			ensureRef(currentField).Column = strings.TrimSpace(strings.TrimPrefix(line, "ref_column:"))
		case currentField != nil && strings.HasPrefix(line, "ref_lookup:"):
			cols := strings.TrimSpace(strings.TrimPrefix(line, "ref_lookup:"))
			ensureRef(currentField).LookupColumns = strings.Split(cols, ",")
		}
	}
	flushDef()

	return schema, nil
}

func ensureRef(f *Field) *Reference {
	if f.Reference == nil {
		f.Reference = &Reference{}
	}
	return f.Reference
}

func leadingSpaces(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

func parseFieldType(s string) FieldType {
	switch s {
	case "Bool":
		return FieldBool
	case "F32":
		return FieldF32
	case "F64":
		return FieldF64
	case "I16":
		return FieldI16
	case "I32":
		return FieldI32
	case "I64":
		return FieldI64
	case "ColorRGB":
		return FieldColorRGB
	case "StringU8":
		return FieldStringU8
	case "StringU16":
		return FieldStringU16
	case "OptionalStringU8":
		return FieldOptionalStringU8
	case "OptionalStringU16":
		return FieldOptionalStringU16
	case "SequenceU16":
		return FieldSequenceU16
	case "SequenceU32":
		return FieldSequenceU32
	default:
		return FieldStringU8
	}
}

// EncodePatchDocument renders the sibling "<same-name>.patches.<ext>" file: the
// same restricted line grammar, one override per field changed.
func EncodePatchDocument(p *Patch) string {
	var b strings.Builder
	for _, ov := range p.Overrides {
		fmt.Fprintf(&b, "- table: %s\n", ov.Table)
		fmt.Fprintf(&b, "  version: %d\n", ov.Version)
		fmt.Fprintf(&b, "  field: %s\n", ov.Field)
		if ov.NewType != nil {
			fmt.Fprintf(&b, "  new_type: %s\n", ov.NewType.String())
		}
		if ov.NewDefault != nil {
			fmt.Fprintf(&b, "  new_default: %s\n", *ov.NewDefault)
		}
		if ov.NewReference != nil {
			fmt.Fprintf(&b, "  new_ref_table: %s\n", ov.NewReference.Table)
			fmt.Fprintf(&b, "  new_ref_column: %s\n", ov.NewReference.Column)
		}
	}
	return b.String()
}

func DecodePatchDocument(doc string) (*Patch, error) {
	patch := &Patch{}
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	var current *PatchOverride
	flush := func() {
		if current != nil {
			patch.Overrides = append(patch.Overrides, *current)
			current = nil
		}
	}
	for _, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "- table:"):
			flush()
			current = &PatchOverride{Table: strings.TrimSpace(strings.TrimPrefix(line, "- table:"))}
		case current != nil && strings.HasPrefix(line, "version:"):
			v, _ := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "version:")))
			current.Version = v
		case current != nil && strings.HasPrefix(line, "field:"):
			current.Field = strings.TrimSpace(strings.TrimPrefix(line, "field:"))
		case current != nil && strings.HasPrefix(line, "new_type:"):
			t := parseFieldType(strings.TrimSpace(strings.TrimPrefix(line, "new_type:")))
			current.NewType = &t
		case current != nil && strings.HasPrefix(line, "new_default:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "new_default:"))
			current.NewDefault = &v
		case current != nil && strings.HasPrefix(line, "new_ref_table:"):
			ensurePatchRef(current).Table = strings.TrimSpace(strings.TrimPrefix(line, "new_ref_table:"))
		case current != nil && strings.HasPrefix(line, "new_ref_column:"):
			ensurePatchRef(current).Column = strings.TrimSpace(strings.TrimPrefix(line, "new_ref_column:"))
		}
	}
	flush()
	return patch, nil
}

func ensurePatchRef(ov *PatchOverride) *Reference {
	if ov.NewReference == nil {
		ov.NewReference = &Reference{}
	}
	return ov.NewReference
}

// SchemaFileName returns "schema_<code>.yaml" per the Game registry
// convention.
func SchemaFileName(game *Game) string { return game.SchemaFileName + ".yaml" }

// PatchFileName returns the sibling patch document name for game.
func PatchFileName(game *Game) string { return game.SchemaFileName + ".patches.yaml" }
