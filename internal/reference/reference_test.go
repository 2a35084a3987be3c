package reference

import (
	"reflect"
	"testing"
)

func TestRecord_FieldsAreCaseInsensitive(t *testing.T) {
	r := New("Article", "Smith2020")
	r.Set("Journal", "Nature")

	if r.Type != "article" {
		t.Errorf("Type = %q, want article", r.Type)
	}
	if v, ok := r.Get("JOURNAL"); !ok || v != "Nature" {
		t.Errorf("Get(JOURNAL) = %q, %v", v, ok)
	}
	if !r.Has("journal") {
		t.Error("Has(journal) = false")
	}

	r.Delete("journal")
	if r.Has("journal") {
		t.Error("Delete did not remove the field")
	}
	if r.Value("journal") != "" {
		t.Error("Value of a missing field should be empty")
	}
}

func TestRecord_FieldNamesSorted(t *testing.T) {
	r := New("article", "k")
	for _, name := range []string{"year", "author", "title", "doi"} {
		r.Set(name, "x")
	}
	want := []string{"author", "doi", "title", "year"}
	if got := r.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestRecord_SetOnZeroValue(t *testing.T) {
	var r Record
	r.Set("month", "jan")
	if r.Value("month") != "jan" {
		t.Error("Set on a zero Record should allocate Fields")
	}
}

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		field string
		want  []Author
	}{
		{"", nil},
		{"Smith, John", []Author{{First: "John", Last: "Smith"}}},
		{"John Smith and Jane Q. Doe", []Author{{First: "John", Last: "Smith"}, {First: "Jane Q.", Last: "Doe"}}},
		{"Smith, J. and  Doe,   Jane", []Author{{First: "J.", Last: "Smith"}, {First: "Jane", Last: "Doe"}}},
		{"Consortium", []Author{{Last: "Consortium"}}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := ParseAuthors(tt.field); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseAuthors(%q) = %+v, want %+v", tt.field, got, tt.want)
			}
		})
	}
}
