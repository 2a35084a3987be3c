// Package export reads and writes BibTeX for bibliographic records.
package export

import (
	"fmt"
	"strings"

	"github.com/matsen/bibfetch/internal/reference"
)

// DefaultEntryType is used for records without a type.
const DefaultEntryType = "misc"

// monthMacros are the predefined BibTeX month strings, written without braces.
var monthMacros = map[string]bool{
	"jan": true, "feb": true, "mar": true, "apr": true, "may": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "oct": true, "nov": true, "dec": true,
}

// ToBibTeX converts a record to BibTeX. Fields are written in sorted order.
// Values are written as given; they are expected to already be BibTeX text.
func ToBibTeX(rec *reference.Record) string {
	entryType := rec.Type
	if entryType == "" {
		entryType = DefaultEntryType
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, rec.Key))

	for _, name := range rec.FieldNames() {
		b.WriteString(fmt.Sprintf("  %s = %s,\n", name, formatValue(name, rec.Fields[name])))
	}

	b.WriteString("}\n")
	return b.String()
}

// formatValue braces a value, except month macros which BibTeX expects bare.
func formatValue(name, value string) string {
	if name == reference.FieldMonth && monthMacros[value] {
		return value
	}
	return "{" + value + "}"
}
