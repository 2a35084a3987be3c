// Package normalize rewrites the fields of a resolved record before it is saved.
package normalize

import (
	"strings"

	"github.com/matsen/bibfetch/internal/reference"
)

// TitleAbbreviator abbreviates a journal title. *abbrev.Abbreviator implements it.
type TitleAbbreviator interface {
	Abbreviate(title string) string
}

// Normalizer adds the abbreviated journal name and lowercases the month.
type Normalizer struct {
	abbrev TitleAbbreviator
}

// New creates a Normalizer.
func New(a TitleAbbreviator) *Normalizer {
	return &Normalizer{abbrev: a}
}

// Normalize updates rec in place.
//
// shortjournal is set only when the abbreviated journal differs from the
// journal field. month is lowercased. Other fields are left alone.
func (n *Normalizer) Normalize(rec *reference.Record) {
	if journal, ok := rec.Get(reference.FieldJournal); ok && n.abbrev != nil {
		if short := n.abbrev.Abbreviate(journal); short != journal {
			rec.Set(reference.FieldShortJournal, short)
		}
	}

	if month, ok := rec.Get(reference.FieldMonth); ok {
		rec.Set(reference.FieldMonth, strings.ToLower(month))
	}
}
