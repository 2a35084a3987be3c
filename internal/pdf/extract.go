// Package pdf extracts citation hints (DOI, title) from PDF files.
package pdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/matsen/bibfetch/internal/doi"
)

// MaxScanPages is how many leading pages are searched for a DOI.
const MaxScanPages = 3

var (
	// ErrNoDOIFound indicates the scanned pages contain no DOI.
	ErrNoDOIFound = errors.New("no DOI found in PDF")

	// ErrNoTextExtracted indicates no page yielded any text (scanned image PDFs).
	ErrNoTextExtracted = errors.New("no text extracted from PDF")
)

// ExtractDOI returns the first DOI printed on the leading pages of a PDF.
func ExtractDOI(filePath string) (string, error) {
	pages, err := pageTexts(filePath, MaxScanPages)
	if err != nil {
		return "", err
	}

	for _, text := range pages {
		if d := FindDOI(text); d != "" {
			return d, nil
		}
	}
	return "", ErrNoDOIFound
}

// ExtractTitle guesses the title as the first substantial line of page one.
func ExtractTitle(filePath string) (string, error) {
	pages, err := pageTexts(filePath, 1)
	if err != nil {
		return "", err
	}
	return findTitle(pages[0]), nil
}

// pageTexts returns the plain text of up to maxPages leading pages.
// Pages that fail to decode are skipped.
func pageTexts(filePath string, maxPages int) ([]string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", filePath, err)
	}
	defer f.Close()

	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	var texts []string
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
	}

	if len(texts) == 0 {
		return nil, ErrNoTextExtracted
	}
	return texts, nil
}

// FindDOI returns the first plausible DOI in text, or "".
func FindDOI(text string) string {
	for _, match := range doi.Pattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if doi.IsValid(match) {
			return match
		}
	}
	return ""
}

// findTitle returns the first line long enough to be a title that is not
// running header boilerplate.
func findTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

// isHeaderLine checks if a line is likely a header/footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "copyright"):
		return true
	case strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}
