// Package reference defines the bibliographic record handled by bibfetch.
package reference

import (
	"sort"
	"strings"
)

// Well-known field names.
const (
	FieldJournal      = "journal"
	FieldShortJournal = "shortjournal"
	FieldMonth        = "month"
	FieldDOI          = "doi"
	FieldTitle        = "title"
	FieldAuthor       = "author"
	FieldYear         = "year"
)

// Record is one bibliographic entry: an entry type, a citation key and a
// set of string fields. Field names are case-insensitive and stored lowercased.
type Record struct {
	Type   string            `json:"type"` // article, inproceedings, misc, ...
	Key    string            `json:"key"`  // Citation key
	Fields map[string]string `json:"fields"`
}

// New creates an empty record.
func New(entryType, key string) *Record {
	return &Record{
		Type:   strings.ToLower(entryType),
		Key:    key,
		Fields: make(map[string]string),
	}
}

// Get returns the value of a field and whether it is present.
func (r *Record) Get(name string) (string, bool) {
	v, ok := r.Fields[strings.ToLower(name)]
	return v, ok
}

// Value returns the value of a field or "".
func (r *Record) Value(name string) string {
	return r.Fields[strings.ToLower(name)]
}

// Has reports whether a field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set stores a field value.
func (r *Record) Set(name, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[strings.ToLower(name)] = value
}

// Delete removes a field.
func (r *Record) Delete(name string) {
	delete(r.Fields, strings.ToLower(name))
}

// FieldNames returns the field names in sorted order.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
