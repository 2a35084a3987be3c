// Package doi resolves DOIs and arXiv identifiers to BibTeX.
package doi

import (
	"regexp"
	"strings"
)

// ArXivPrefix is the DataCite DOI prefix assigned to arXiv preprints.
const ArXivPrefix = "10.48550/arXiv."

// PrintOnlyMarker as the first element of an identifier list means the
// entries are printed but not saved ("l,10.1000/a,10.1000/b").
const PrintOnlyMarker = "l"

// urlPrefixes are stripped from identifiers, matched case-insensitively.
var urlPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"dx.doi.org/",
	"doi:",
}

// arxivVersion matches a trailing version suffix such as "v2".
var arxivVersion = regexp.MustCompile(`v\d+$`)

// Pattern matches a DOI embedded in free text: "10.", a 4-9 digit
// registrant code, "/", then a suffix up to whitespace or markup.
var Pattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// IsValid performs basic shape validation on a DOI.
func IsValid(d string) bool {
	if len(d) < 10 || !strings.HasPrefix(d, "10.") {
		return false
	}
	slash := strings.Index(d, "/")
	return slash != -1 && slash < len(d)-1
}

// Normalize trims whitespace and strips resolver URLs and "doi:" prefixes.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	for _, prefix := range urlPrefixes {
		if len(id) >= len(prefix) && strings.EqualFold(id[:len(prefix)], prefix) {
			id = strings.TrimSpace(id[len(prefix):])
			break
		}
	}
	return id
}

// IsArXiv reports whether id is an arXiv identifier rather than a DOI.
// Anything not starting with the DOI directory indicator "10" is taken as arXiv.
func IsArXiv(id string) bool {
	return !strings.HasPrefix(Normalize(id), "10")
}

// Canonical returns the DOI for id. arXiv identifiers ("2106.15928",
// "arXiv:2106.15928v2") are mapped to their DataCite DOI.
func Canonical(id string) string {
	id = Normalize(id)
	if id == "" || !IsArXiv(id) {
		return id
	}

	if len(id) >= len("arxiv:") && strings.EqualFold(id[:len("arxiv:")], "arxiv:") {
		id = id[len("arxiv:"):]
	}
	id = arxivVersion.ReplaceAllString(id, "")
	return ArXivPrefix + id
}

// IDList is a parsed identifier argument.
type IDList struct {
	IDs       []string
	PrintOnly bool
}

// SplitList parses a comma-separated identifier argument.
// A leading PrintOnlyMarker element followed by identifiers selects print-only mode.
func SplitList(arg string) IDList {
	var parts []string
	for _, p := range strings.Split(arg, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var list IDList
	if len(parts) > 1 && parts[0] == PrintOnlyMarker {
		list.PrintOnly = true
		parts = parts[1:]
	}
	list.IDs = parts
	return list
}
