// Package abbrev abbreviates journal titles word by word against an LTWA dictionary.
package abbrev

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/bibfetch/internal/ltwa"
)

// ShortTitleLen is the length below which a one-word title is kept as is.
const ShortTitleLen = 12

// Matcher finds the dictionary entry for a single word.
// *ltwa.Dictionary implements it.
type Matcher interface {
	Match(word string) (ltwa.Entry, bool)
}

// IgnoreSet holds connector words that are dropped from abbreviated titles.
type IgnoreSet map[string]struct{}

// DefaultIgnoreSet returns the connectors dropped by default.
func DefaultIgnoreSet() IgnoreSet {
	return NewIgnoreSet("of", "and", "in", "at", "on", "the", "&", "für", "ab", "um")
}

// NewIgnoreSet builds a set from words, lowercased.
func NewIgnoreSet(words ...string) IgnoreSet {
	s := make(IgnoreSet, len(words))
	for _, w := range words {
		s[strings.ToLower(w)] = struct{}{}
	}
	return s
}

// Contains reports whether the lowercased word is in the set.
func (s IgnoreSet) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Abbreviator turns journal titles into their abbreviated form.
// It holds no mutable state and is safe for concurrent use.
type Abbreviator struct {
	dict   Matcher
	ignore IgnoreSet
}

// Option configures an Abbreviator.
type Option func(*Abbreviator)

// WithIgnoreSet replaces the default connector words.
func WithIgnoreSet(s IgnoreSet) Option {
	return func(a *Abbreviator) {
		a.ignore = s
	}
}

// New creates an Abbreviator backed by dict.
func New(dict Matcher, opts ...Option) *Abbreviator {
	a := &Abbreviator{
		dict:   dict,
		ignore: DefaultIgnoreSet(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Abbreviate returns the abbreviated form of title.
//
// Everything from the first colon on is discarded. A single word shorter
// than ShortTitleLen is returned unchanged. Otherwise connector words are
// dropped and every other word is replaced by its dictionary abbreviation,
// capitalized. Words without an entry are capitalized, except all-uppercase
// words which are kept as acronyms.
//
// The result is not guaranteed to be stable under repeated abbreviation:
// an abbreviation may itself match another dictionary key.
func (a *Abbreviator) Abbreviate(title string) string {
	if i := strings.IndexByte(title, ':'); i >= 0 {
		title = title[:i]
	}

	words := strings.Fields(title)
	if len(words) == 1 && utf8.RuneCountInString(words[0]) < ShortTitleLen {
		return title
	}

	out := make([]string, 0, len(words))
	for _, word := range words {
		if a.ignore.Contains(word) {
			continue
		}
		out = append(out, a.abbreviateWord(word))
	}
	return strings.Join(out, " ")
}

func (a *Abbreviator) abbreviateWord(word string) string {
	if a.dict != nil {
		if e, ok := a.dict.Match(word); ok {
			if e.KeepsWord() {
				return Capitalize(word)
			}
			return Capitalize(e.Value)
		}
	}

	if IsUpper(word) {
		return word
	}
	return Capitalize(word)
}

// Capitalize upper-cases the first rune of s and leaves the rest unchanged.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// IsUpper reports whether s has at least one cased letter and no
// lowercase ones ("IEEE", "3D" but not "123").
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			cased = true
		}
	}
	return cased
}
