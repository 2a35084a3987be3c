package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/matsen/bibfetch/internal/doi"
	"github.com/matsen/bibfetch/internal/reference"
	"github.com/nickng/bibtex"
)

// ErrNoEntry is returned when BibTeX text contains no entry.
var ErrNoEntry = errors.New("no BibTeX entry found")

// parseMu serializes bibtex.Parse, whose parser state is package-global.
var parseMu sync.Mutex

// ParseRecord parses the first entry of a BibTeX document.
// Bare month macros keep their macro name ("jan"), not the expanded month.
func ParseRecord(text string) (*reference.Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoEntry
	}

	parseMu.Lock()
	bib, err := bibtex.Parse(strings.NewReader(quoteUnknownMacros(text)))
	parseMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parsing BibTeX: %w", err)
	}
	if len(bib.Entries) == 0 {
		return nil, ErrNoEntry
	}

	entry := bib.Entries[0]
	rec := reference.New(entry.Type, strings.TrimSpace(entry.CiteName))
	for name, value := range entry.Fields {
		if value == nil {
			continue
		}
		rec.Set(name, fieldText(value))
	}
	return rec, nil
}

// monthMacroNames are the string variables bibtex.Parse predefines.
var monthMacroNames = map[string]bool{
	"jan": true, "feb": true, "mar": true, "apr": true, "may": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "oct": true, "nov": true, "dec": true,
}

var stringDefRegex = regexp.MustCompile(`(?i)@string\s*\{\s*([^\s=,{}]+)\s*=`)

// quoteUnknownMacros braces bare field values that are neither numbers,
// month macros nor @string definitions in text. bibtex.Parse exits the
// process on an undefined string variable.
func quoteUnknownMacros(text string) string {
	defined := make(map[string]bool)
	for _, m := range stringDefRegex.FindAllStringSubmatch(text, -1) {
		defined[m[1]] = true
	}

	rs := []rune(text)
	var b strings.Builder
	depth := 0
	inQuote := false
	for i := 0; i < len(rs); i++ {
		ch := rs[i]
		b.WriteRune(ch)
		switch {
		case inQuote:
			if ch == '"' && depth == 1 {
				inQuote = false
			}
			continue
		case ch == '{':
			depth++
			continue
		case ch == '}':
			if depth > 0 {
				depth--
			}
			continue
		case ch == '"' && depth == 1:
			inQuote = true
			continue
		case depth != 1 || (ch != '=' && ch != '#'):
			continue
		}

		j := i + 1
		for j < len(rs) && unicode.IsSpace(rs[j]) {
			j++
		}
		k := j
		for k < len(rs) && isBareRune(rs[k]) {
			k++
		}
		if k == j {
			continue
		}
		b.WriteString(string(rs[i+1 : j]))
		word := string(rs[j:k])
		if isDigits(word) || monthMacroNames[word] || defined[word] {
			b.WriteString(word)
		} else {
			b.WriteString("{" + word + "}")
		}
		i = k - 1
	}
	return b.String()
}

func isBareRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_:./+", r)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// fieldText returns the text of a field, using the macro name for
// string variables.
func fieldText(v bibtex.BibString) string {
	if bv, ok := v.(*bibtex.BibVar); ok {
		return bv.Key
	}
	return strings.TrimSpace(v.String())
}

// BibTeXIndex indexes existing BibTeX entries for deduplication.
type BibTeXIndex struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// DOIs maps DOI values to citation keys
	DOIs map[string]string
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// HasEntry returns true if the entry already exists (by DOI or key).
// DOI is the primary match; citation key is the fallback if no DOI.
func (idx *BibTeXIndex) HasEntry(key, id string) bool {
	if id != "" {
		if _, exists := idx.DOIs[NormalizeDOI(id)]; exists {
			return true
		}
	}

	return idx.Keys[key]
}

// HasRecord reports whether rec is already in the index.
func (idx *BibTeXIndex) HasRecord(rec *reference.Record) bool {
	return idx.HasEntry(rec.Key, rec.Value(reference.FieldDOI))
}

// Add records an entry, e.g. after appending it to the file.
func (idx *BibTeXIndex) Add(key, id string) {
	if key != "" {
		idx.Keys[key] = true
	}
	if id != "" {
		idx.DOIs[NormalizeDOI(id)] = key
	}
}

// Regex patterns for the line-oriented index scan.
var (
	entryStartRegex = regexp.MustCompile(`@\w+\{([^,]+),`)
	doiFieldRegex   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// ParseBibTeXFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist or is empty.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if matches := entryStartRegex.FindStringSubmatch(line); len(matches) > 1 {
			currentKey = strings.TrimSpace(matches[1])
			idx.Keys[currentKey] = true
		}

		if matches := doiFieldRegex.FindStringSubmatch(line); len(matches) > 1 {
			id := NormalizeDOI(matches[1])
			if id != "" && currentKey != "" {
				idx.DOIs[id] = currentKey
			}
		}
	}

	return idx, scanner.Err()
}

// NormalizeDOI normalizes a DOI for comparison.
func NormalizeDOI(id string) string {
	return strings.ToLower(doi.Normalize(id))
}

// AppendToBibFile appends BibTeX content to a file.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}
