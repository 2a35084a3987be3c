package ltwa

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxLineCapacity bounds a single line of the source file.
const MaxLineCapacity = 1024 * 1024

// Load reads an LTWA table: tab-separated lines of
// "full form<TAB>abbreviation<TAB>languages...".
//
// The stream may be gzip-compressed. Text is decoded as UTF-16 when it starts
// with a UTF-16 byte order mark or looks like BOM-less UTF-16, otherwise as UTF-8.
// The header line and lines with fewer than two columns are skipped.
func Load(r io.Reader) (*Dictionary, error) {
	br := bufio.NewReader(r)

	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	head, _ := br.Peek(4)
	scanner := bufio.NewScanner(transform.NewReader(br, textDecoder(head)))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineCapacity)

	b := newBuilder()
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if strings.TrimSpace(parts[0]) == HeaderSentinel {
			continue
		}
		if len(parts) < 2 {
			b.malformed++
			continue
		}
		b.add(parts[0], parts[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading abbreviation list: %w", err)
	}

	return b.build(), nil
}

// LoadFile loads a dictionary from a file on disk.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening abbreviation list: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// textDecoder picks a decoder from the first bytes of the stream.
func textDecoder(head []byte) transform.Transformer {
	switch {
	case len(head) >= 2 && ((head[0] == 0xff && head[1] == 0xfe) || (head[0] == 0xfe && head[1] == 0xff)):
		return unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case len(head) >= 3 && head[0] == 0xef && head[1] == 0xbb && head[2] == 0xbf:
		return unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case len(head) >= 2 && head[0] != 0 && head[1] == 0:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case len(head) >= 2 && head[0] == 0 && head[1] != 0:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		return unicode.UTF8.NewDecoder()
	}
}
