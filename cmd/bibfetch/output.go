package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/bibfetch/internal/crossref"
	"github.com/matsen/bibfetch/internal/reference"
)

// Title truncation length for lookup candidates in human output.
const LookupTitleMaxLen = 70

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg, Code: code})
	}
	os.Exit(code)
}

// exitWithErr classifies err and exits with the matching code.
func exitWithErr(context string, err error) {
	exitWithError(exitCodeFor(err), "%s: %v", context, err)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// EntryResult is the per-identifier output of add and get.
type EntryResult struct {
	ID           string             `json:"id"`
	DOI          string             `json:"doi"`
	Key          string             `json:"key,omitempty"`
	Action       string             `json:"action"` // added, printed, skipped, failed
	Title        string             `json:"title,omitempty"`
	Authors      []reference.Author `json:"authors,omitempty"`
	Year         string             `json:"year,omitempty"`
	Journal      string             `json:"journal,omitempty"`
	ShortJournal string             `json:"shortjournal,omitempty"`
	BibTeX       string             `json:"bibtex,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// EntriesResponse is the response for add and get.
type EntriesResponse struct {
	BibPath string        `json:"bib_path,omitempty"`
	Entries []EntryResult `json:"entries"`
	Added   int           `json:"added"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
}

// AbbrevResponse is the response for the abbrev command.
type AbbrevResponse struct {
	Title       string `json:"title"`
	Abbreviated string `json:"abbreviated"`
	Changed     bool   `json:"changed"`
}

// LookupResponse is the response for the lookup command.
type LookupResponse struct {
	Query      string               `json:"query"`
	Candidates []crossref.Candidate `json:"candidates"`
}

// printEntriesHuman prints add/get results: BibTeX to stdout, status to stderr.
func printEntriesHuman(resp EntriesResponse) {
	for _, e := range resp.Entries {
		switch e.Action {
		case "failed":
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.ID, e.Error)
		case "skipped":
			fmt.Fprintf(os.Stderr, "%s: already in %s (%s)\n", e.ID, resp.BibPath, e.Key)
		default:
			if len(e.Authors) > 0 {
				fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", e.ID, formatAuthorsShort(e.Authors, 3), e.Year)
			}
			fmt.Print(e.BibTeX)
		}
	}
	if resp.BibPath != "" && resp.Added > 0 {
		fmt.Fprintf(os.Stderr, "Added %d entr%s to %s\n", resp.Added, plural(resp.Added, "y", "ies"), resp.BibPath)
	}
}

// printCandidatesHuman prints Crossref lookup candidates.
func printCandidatesHuman(cands []crossref.Candidate) {
	if len(cands) == 0 {
		fmt.Println("No matches.")
		return
	}
	for i, c := range cands {
		fmt.Printf("%d. [%.1f] %s\n", i+1, c.Score, c.DOI)
		fmt.Printf("   %s\n", truncateString(c.Title, LookupTitleMaxLen))
		var meta []string
		if c.Journal != "" {
			meta = append(meta, c.Journal)
		}
		if c.Year > 0 {
			meta = append(meta, fmt.Sprintf("%d", c.Year))
		}
		if len(meta) > 0 {
			fmt.Printf("   %s\n", strings.Join(meta, ", "))
		}
		fmt.Println()
	}
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// formatAuthorsShort formats up to max last names, then "et al.".
func formatAuthorsShort(authors []reference.Author, max int) string {
	var names []string
	for i, a := range authors {
		if i == max {
			names = append(names, "et al.")
			break
		}
		names = append(names, a.Last)
	}
	return strings.Join(names, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
