// Package ltwa loads the ISSN List of Title Word Abbreviations and answers
// word lookups against it.
package ltwa

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// PrefixMarker terminates keys that match as a word prefix.
	PrefixMarker = "-"

	// NotAbbreviated is the value meaning "keep the original word".
	NotAbbreviated = "n.a."

	// HeaderSentinel is the first column of the LTWA header line.
	HeaderSentinel = "WORD"
)

// Entry is a single word or phrase and its abbreviation, both lowercased.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// IsPrefix reports whether the key matches word prefixes rather than whole words.
func (e Entry) IsPrefix() bool {
	return strings.HasSuffix(e.Key, PrefixMarker)
}

// Stem returns the key without its prefix marker.
func (e Entry) Stem() string {
	return strings.TrimSuffix(e.Key, PrefixMarker)
}

// KeepsWord reports whether the entry says the word must not be abbreviated.
func (e Entry) KeepsWord() bool {
	return e.Value == NotAbbreviated
}

// Dictionary is an immutable, ordered list of abbreviation entries.
//
// Lookups return the first entry in load order whose key matches, so the
// order of the source file decides between competing prefix and exact keys.
type Dictionary struct {
	entries   []Entry
	exact     map[string]int
	prefixes  *prefixTrie
	malformed int
}

// NewDictionary builds a dictionary from entries in the given order.
// Keys and values are lowercased; a repeated key overwrites the earlier
// value but keeps the earlier position.
func NewDictionary(entries []Entry) *Dictionary {
	b := newBuilder()
	for _, e := range entries {
		b.add(e.Key, e.Value)
	}
	return b.build()
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Malformed returns how many source lines were skipped while loading.
func (d *Dictionary) Malformed() int {
	return d.malformed
}

// Entries returns a copy of the entries in load order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Match returns the first entry, in load order, that matches word.
// Prefix keys match when the lowercased word starts with their stem,
// other keys only when they equal the lowercased word.
func (d *Dictionary) Match(word string) (Entry, bool) {
	w := strings.ToLower(word)

	best := -1
	if i, ok := d.exact[w]; ok {
		best = i
	}
	if i := d.prefixes.firstPrefixOf(w); i >= 0 && (best < 0 || i < best) {
		best = i
	}
	if best < 0 {
		return Entry{}, false
	}
	return d.entries[best], true
}

// Digest returns a hex blake2b-256 fingerprint of the ordered entries.
func (d *Dictionary) Digest() string {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	for _, e := range d.entries {
		h.Write([]byte(e.Key))
		h.Write([]byte{'\t'})
		h.Write([]byte(e.Value))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// builder accumulates entries with insertion-ordered map semantics.
type builder struct {
	entries   []Entry
	positions map[string]int
	malformed int
}

func newBuilder() *builder {
	return &builder{positions: make(map[string]int)}
}

func (b *builder) add(key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.ToLower(strings.TrimSpace(value))
	if key == "" {
		b.malformed++
		return
	}
	if i, ok := b.positions[key]; ok {
		b.entries[i].Value = value
		return
	}
	b.positions[key] = len(b.entries)
	b.entries = append(b.entries, Entry{Key: key, Value: value})
}

func (b *builder) build() *Dictionary {
	d := &Dictionary{
		entries:   b.entries,
		exact:     make(map[string]int, len(b.entries)),
		prefixes:  newPrefixTrie(),
		malformed: b.malformed,
	}
	for i, e := range d.entries {
		if e.IsPrefix() {
			d.prefixes.insert(e.Stem(), i)
		} else {
			d.exact[e.Key] = i
		}
	}
	return d
}
