package reference

import "strings"

// Author represents a paper author.
type Author struct {
	First string `json:"first"` // First/given name(s)
	Last  string `json:"last"`  // Last/family name
}

// ParseAuthors splits a BibTeX author field ("Last, First and First Last")
// into authors.
func ParseAuthors(field string) []Author {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	var authors []Author
	for _, name := range strings.Split(field, " and ") {
		name = strings.Join(strings.Fields(name), " ")
		if name == "" {
			continue
		}

		if last, first, ok := strings.Cut(name, ","); ok {
			authors = append(authors, Author{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)})
			continue
		}

		// "First Middle Last"
		if i := strings.LastIndex(name, " "); i >= 0 {
			authors = append(authors, Author{First: name[:i], Last: name[i+1:]})
		} else {
			authors = append(authors, Author{Last: name})
		}
	}
	return authors
}
