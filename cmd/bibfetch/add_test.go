package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/bibfetch/internal/abbrev"
	"github.com/matsen/bibfetch/internal/config"
	"github.com/matsen/bibfetch/internal/doi"
	"github.com/matsen/bibfetch/internal/export"
	"github.com/matsen/bibfetch/internal/ltwa"
	"github.com/matsen/bibfetch/internal/normalize"
	"github.com/matsen/bibfetch/internal/pdf"
	"github.com/matsen/bibfetch/internal/pipeline"
	"github.com/matsen/bibfetch/internal/reference"
)

type stubResolver map[string]string

func (s stubResolver) Resolve(ctx context.Context, id string) (string, error) {
	if text, ok := s[doi.Canonical(id)]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s", doi.ErrNotFound, id)
}

func testPipeline() *pipeline.Pipeline {
	dict := ltwa.NewDictionary([]ltwa.Entry{
		{Key: "physical", Value: "phys."},
		{Key: "review", Value: "rev."},
		{Key: "letters", Value: "lett."},
	})
	return &pipeline.Pipeline{
		Resolver: stubResolver{
			"10.1103/PhysRevLett.116.061102": "@article{Abbott_2016, title={Observation of Gravitational Waves}, journal={Physical Review Letters}, doi={10.1103/PhysRevLett.116.061102}, month=feb, year={2016}}",
			"10.48550/arXiv.2106.15928":      "@misc{Doe_2021, title={A Preprint}, doi={10.48550/ARXIV.2106.15928}, publisher={arXiv}, year={2021}}",
		},
		Normalizer: normalize.New(abbrev.New(dict)),
	}
}

func TestCollectIDs(t *testing.T) {
	tests := []struct {
		args []string
		want doi.IDList
	}{
		{[]string{"10.1000/a"}, doi.IDList{IDs: []string{"10.1000/a"}}},
		{[]string{"10.1000/a,10.1000/b", "2106.15928"}, doi.IDList{IDs: []string{"10.1000/a", "10.1000/b", "2106.15928"}}},
		{[]string{"l,10.1000/a", "10.1000/b"}, doi.IDList{IDs: []string{"10.1000/a", "10.1000/b"}, PrintOnly: true}},
		{nil, doi.IDList{}},
	}
	for _, tt := range tests {
		if got := collectIDs(tt.args); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("collectIDs(%q) = %+v, want %+v", tt.args, got, tt.want)
		}
	}
}

func TestAddEntries_Append(t *testing.T) {
	bib := filepath.Join(t.TempDir(), "refs.bib")
	opts := addOptions{BibPath: bib, Append: true, Workers: 2}
	ids := []string{"10.1103/PhysRevLett.116.061102", "10.1000/missing", "2106.15928"}

	resp := addEntries(context.Background(), testPipeline(), ids, export.NewBibTeXIndex(), opts)

	if resp.Added != 2 || resp.Failed != 1 || resp.Skipped != 0 {
		t.Fatalf("counts = added %d, failed %d, skipped %d", resp.Added, resp.Failed, resp.Skipped)
	}
	for i, e := range resp.Entries {
		if e.ID != ids[i] {
			t.Errorf("entry %d ID = %q, want %q", i, e.ID, ids[i])
		}
	}
	if got := resp.Entries[0].ShortJournal; got != "Phys. Rev. Lett." {
		t.Errorf("ShortJournal = %q", got)
	}
	if resp.Entries[1].Action != "failed" || !strings.Contains(resp.Entries[1].Error, "not found") {
		t.Errorf("missing entry = %+v", resp.Entries[1])
	}

	data, err := os.ReadFile(bib)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"@article{Abbott_2016,", "  shortjournal = {Phys. Rev. Lett.},", "  month = feb,", "@misc{Doe_2021,"} {
		if !strings.Contains(content, want) {
			t.Errorf("bib file missing %q:\n%s", want, content)
		}
	}
}

func TestAddEntries_SkipsExisting(t *testing.T) {
	bib := filepath.Join(t.TempDir(), "refs.bib")
	existing := "@article{Abbott_2016,\n  doi = {10.1103/PhysRevLett.116.061102},\n}\n"
	if err := os.WriteFile(bib, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}
	idx, err := export.ParseBibTeXFile(bib)
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{"https://doi.org/10.1103/PhysRevLett.116.061102", "2106.15928", "2106.15928"}
	resp := addEntries(context.Background(), testPipeline(), ids, idx, addOptions{BibPath: bib, Append: true, Workers: 1})

	if resp.Added != 1 || resp.Skipped != 2 {
		t.Fatalf("added %d, skipped %d, want 1 and 2: %+v", resp.Added, resp.Skipped, resp.Entries)
	}
	if e := resp.Entries[0]; e.Action != "skipped" || e.Key != "Abbott_2016" {
		t.Errorf("first entry = %+v, want skipped Abbott_2016", e)
	}
	if e := resp.Entries[2]; e.Action != "skipped" {
		t.Errorf("repeated id = %+v, want skipped", e)
	}

	data, _ := os.ReadFile(bib)
	if n := strings.Count(string(data), "@misc{Doe_2021,"); n != 1 {
		t.Errorf("Doe_2021 appended %d times, want 1", n)
	}
}

func TestAddEntries_Force(t *testing.T) {
	bib := filepath.Join(t.TempDir(), "refs.bib")
	idx := export.NewBibTeXIndex()
	idx.Add("Abbott_2016", "10.1103/PhysRevLett.116.061102")

	resp := addEntries(context.Background(), testPipeline(), []string{"10.1103/PhysRevLett.116.061102"}, idx,
		addOptions{BibPath: bib, Append: true, Force: true})
	if resp.Added != 1 {
		t.Errorf("Added = %d, want 1 with --force", resp.Added)
	}
}

func TestAddEntries_PrintOnly(t *testing.T) {
	bib := filepath.Join(t.TempDir(), "refs.bib")
	resp := addEntries(context.Background(), testPipeline(), []string{"2106.15928"}, export.NewBibTeXIndex(),
		addOptions{BibPath: bib})

	if resp.BibPath != "" || resp.Added != 0 {
		t.Errorf("print-only response = %+v", resp)
	}
	if e := resp.Entries[0]; e.Action != "printed" || !strings.HasPrefix(e.BibTeX, "@misc{Doe_2021,") {
		t.Errorf("entry = %+v", e)
	}
	if _, err := os.Stat(bib); !os.IsNotExist(err) {
		t.Error("print-only mode should not create the bib file")
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"config", fmt.Errorf("load: %w", config.ErrInvalidConfig), ExitConfigError},
		{"dictionary", fmt.Errorf("%w: offline", ltwa.ErrDictionaryUnavailable), ExitDictionaryError},
		{"not found", fmt.Errorf("resolving: %w", doi.ErrNotFound), ExitNotFound},
		{"api 404", &doi.APIError{StatusCode: 404}, ExitNotFound},
		{"rate limited", doi.ErrRateLimited, ExitRateLimited},
		{"network", doi.ErrNetworkError, ExitNetworkError},
		{"bad body", doi.ErrInvalidResponse, ExitDataError},
		{"no entry", export.ErrNoEntry, ExitDataError},
		{"no doi in pdf", pdf.ErrNoDOIFound, ExitDataError},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString() = %q", got)
	}
	if got := truncateString("Zürich Über Alles Journal", 10); got != "Zürich ..." {
		t.Errorf("truncateString() = %q", got)
	}
}

func TestJoinBibTeX(t *testing.T) {
	resp := EntriesResponse{Entries: []EntryResult{
		{ID: "a", BibTeX: "@misc{a,\n}\n", Action: "printed"},
		{ID: "b", Action: "failed", Error: "not found"},
		{ID: "c", BibTeX: "@misc{c,\n}\n", Action: "added"},
	}}
	if got, want := joinBibTeX(resp), "@misc{a,\n}\n\n@misc{c,\n}\n"; got != want {
		t.Errorf("joinBibTeX() = %q, want %q", got, want)
	}
}

func TestFormatAuthorsShort(t *testing.T) {
	authors := reference.ParseAuthors("Abbott, B. P. and Abbott, R. and Adhikari, R. X. and Anderson, S. B.")
	if got := formatAuthorsShort(authors, 3); got != "Abbott, Abbott, Adhikari, et al." {
		t.Errorf("formatAuthorsShort() = %q", got)
	}
	if got := formatAuthorsShort(authors[:1], 3); got != "Abbott" {
		t.Errorf("formatAuthorsShort() = %q", got)
	}
}
