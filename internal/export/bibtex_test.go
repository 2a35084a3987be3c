package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/matsen/bibfetch/internal/reference"
)

const crossrefBibTeX = `@article{Smith_2020, title={A Test Paper}, volume={12}, ISSN={1234-5678}, url={http://dx.doi.org/10.1234/test}, DOI={10.1234/test}, number={3}, journal={Journal of Testing}, publisher={Test Press}, author={Smith, John and Doe, Jane}, year={2020}, month=mar, pages={1-10} }`

func TestParseRecord_CrossrefResponse(t *testing.T) {
	rec, err := ParseRecord(crossrefBibTeX)
	if err != nil {
		t.Fatalf("ParseRecord() error = %v", err)
	}

	if rec.Type != "article" {
		t.Errorf("Type = %q, want article", rec.Type)
	}
	if rec.Key != "Smith_2020" {
		t.Errorf("Key = %q, want Smith_2020", rec.Key)
	}

	want := map[string]string{
		"title":   "A Test Paper",
		"journal": "Journal of Testing",
		"doi":     "10.1234/test",
		"issn":    "1234-5678",
		"author":  "Smith, John and Doe, Jane",
		"year":    "2020",
		"month":   "mar",
		"pages":   "1-10",
	}
	for name, value := range want {
		if got := rec.Value(name); got != value {
			t.Errorf("field %s = %q, want %q", name, got, value)
		}
	}
}

func TestParseRecord_Empty(t *testing.T) {
	_, err := ParseRecord("")
	if !errors.Is(err, ErrNoEntry) {
		t.Errorf("ParseRecord(\"\") error = %v, want ErrNoEntry", err)
	}
}

func TestParseRecord_UnknownMacro(t *testing.T) {
	rec, err := ParseRecord("@article{a, journal = pra, year = 2020, month = Feb, note = x # {y}}")
	if err != nil {
		t.Fatalf("ParseRecord() error = %v", err)
	}
	want := map[string]string{
		"journal": "pra",
		"year":    "2020",
		"month":   "Feb",
		"note":    "xy",
	}
	for name, value := range want {
		if got := rec.Value(name); got != value {
			t.Errorf("field %s = %q, want %q", name, got, value)
		}
	}
}

func TestQuoteUnknownMacros(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unknown macro braced", "@article{a, journal = pra}", "@article{a, journal = {pra}}"},
		{"month kept bare", "@article{a, month=mar}", "@article{a, month=mar}"},
		{"number kept bare", "@article{a, year = 2020}", "@article{a, year = 2020}"},
		{"braced value untouched", "@article{a, title={x = y}}", "@article{a, title={x = y}}"},
		{"quoted value untouched", `@article{a, title="x = y"}`, `@article{a, title="x = y"}`},
		{"defined string kept", `@string{pra = "Phys. Rev. A"} @article{a, journal = pra}`, `@string{pra = "Phys. Rev. A"} @article{a, journal = pra}`},
		{"concatenation", "@article{a, note = {x} # foo}", "@article{a, note = {x} # {foo}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteUnknownMacros(tt.in); got != tt.want {
				t.Errorf("quoteUnknownMacros(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRecord_Concurrent(t *testing.T) {
	const n = 100
	var wg sync.WaitGroup
	errs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", i)
			rec, err := ParseRecord(fmt.Sprintf("@article{%s, title={Title %d}, year={2020}}", key, i))
			if err != nil {
				errs <- fmt.Sprintf("%s: error = %v", key, err)
				return
			}
			if rec.Key != key || rec.Value("title") != fmt.Sprintf("Title %d", i) {
				errs <- fmt.Sprintf("%s: got key %q title %q", key, rec.Key, rec.Value("title"))
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestToBibTeX_SortedFieldsAndBareMonth(t *testing.T) {
	rec := reference.New("article", "Smith_2020")
	rec.Set("title", "A Test Paper")
	rec.Set("journal", "Journal of Testing")
	rec.Set("shortjournal", "J. Test.")
	rec.Set("month", "mar")
	rec.Set("year", "2020")

	got := ToBibTeX(rec)
	want := "@article{Smith_2020,\n" +
		"  journal = {Journal of Testing},\n" +
		"  month = mar,\n" +
		"  shortjournal = {J. Test.},\n" +
		"  title = {A Test Paper},\n" +
		"  year = {2020},\n" +
		"}\n"
	if got != want {
		t.Errorf("ToBibTeX() =\n%s\nwant\n%s", got, want)
	}
}

func TestToBibTeX_NonMacroMonthIsBraced(t *testing.T) {
	rec := reference.New("article", "k")
	rec.Set("month", "march")

	if got := ToBibTeX(rec); !strings.Contains(got, "month = {march},") {
		t.Errorf("ToBibTeX() should brace a non-macro month, got:\n%s", got)
	}
}

func TestToBibTeX_DefaultType(t *testing.T) {
	rec := &reference.Record{Key: "k"}
	if got := ToBibTeX(rec); !strings.HasPrefix(got, "@misc{k,") {
		t.Errorf("ToBibTeX() should default to @misc, got:\n%s", got)
	}
}

func TestParseBibTeXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	content := `@article{Smith_2020,
  doi = {10.1234/TEST},
  title = {A},
}

@book{Doe2019,
  title = {B},
}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := ParseBibTeXFile(path)
	if err != nil {
		t.Fatalf("ParseBibTeXFile() error = %v", err)
	}

	if !idx.HasEntry("other", "https://doi.org/10.1234/test") {
		t.Error("HasEntry should match DOI case-insensitively and without URL prefix")
	}
	if !idx.HasEntry("Doe2019", "") {
		t.Error("HasEntry should fall back to the citation key")
	}
	if idx.HasEntry("New2021", "10.9999/none") {
		t.Error("HasEntry matched an unknown entry")
	}
}

func TestParseBibTeXFile_Missing(t *testing.T) {
	idx, err := ParseBibTeXFile(filepath.Join(t.TempDir(), "missing.bib"))
	if err != nil {
		t.Fatalf("ParseBibTeXFile() error = %v", err)
	}
	if len(idx.Keys) != 0 || len(idx.DOIs) != 0 {
		t.Error("missing file should give an empty index")
	}
}

func TestBibTeXIndex_AddAndHasRecord(t *testing.T) {
	idx := NewBibTeXIndex()
	rec := reference.New("article", "Smith_2020")
	rec.Set("doi", "10.1234/Test")

	if idx.HasRecord(rec) {
		t.Fatal("empty index should not contain the record")
	}
	idx.Add(rec.Key, rec.Value("doi"))
	if !idx.HasRecord(rec) {
		t.Error("HasRecord after Add = false")
	}
}

func TestAppendToBibFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")

	if err := AppendToBibFile(path, "@misc{a,\n}\n"); err != nil {
		t.Fatalf("AppendToBibFile() error = %v", err)
	}
	if err := AppendToBibFile(path, "@misc{b,\n}\n"); err != nil {
		t.Fatalf("AppendToBibFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "\n@misc{a,\n}\n\n@misc{b,\n}\n" {
		t.Errorf("file content = %q", data)
	}
}
