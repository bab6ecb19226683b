package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var contentPagePattern = regexp.MustCompile(`_Content_page_(\d+)\.txt$`)

// PDF extracts text with pdfcpu. pdfcpu writes each page's content stream to a
// file; the text-show operators in those streams are decoded into text.
type PDF struct{}

func (p *PDF) Extract(ctx context.Context, path string) (string, error) {
	tempDir, err := os.MkdirTemp("", "doculens_pdf_*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ExtractContentFile(path, tempDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	pages, err := contentPages(tempDir)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(page)
		if err != nil {
			return "", fmt.Errorf("failed to read content file: %w", err)
		}
		text := ShowText(string(data))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}

	return b.String(), nil
}

// contentPages returns the per-page content files of dir in page order.
func contentPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, entry := range entries {
		m := contentPagePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		pages = append(pages, page{num: n, path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	paths := make([]string, len(pages))
	for i, pg := range pages {
		paths[i] = pg.path
	}
	return paths, nil
}

// ShowText decodes the strings drawn by the text-show operators (Tj, TJ, ' and ")
// of a PDF content stream. Positioning operators become spaces, and large
// negative kerning inside a TJ array is read as a word gap.
func ShowText(content string) string {
	var (
		out       strings.Builder
		pending   strings.Builder
		inArray   bool
		needSpace bool
	)

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		if needSpace && out.Len() > 0 {
			out.WriteByte(' ')
		}
		needSpace = false
		out.WriteString(pending.String())
		pending.Reset()
	}

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case c == '(':
			s, n := readLiteral(content[i:])
			pending.WriteString(s)
			i += n
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			i += 2
		case c == '<':
			s, n := readHex(content[i:])
			pending.WriteString(s)
			i += n
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '/':
			i++
			for i < len(content) && !strings.ContainsRune(" \t\r\n/[]()<>{}%", rune(content[i])) {
				i++
			}
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(content) && (content[j] == '.' || (content[j] >= '0' && content[j] <= '9')) {
				j++
			}
			if inArray {
				if v, err := strconv.ParseFloat(content[i:j], 64); err == nil && v <= -200 {
					pending.WriteByte(' ')
				}
			}
			i = j
		case c == '\'' || c == '"':
			needSpace = true
			flush()
			i++
		case isOperatorByte(c):
			j := i + 1
			for j < len(content) && isOperatorByte(content[j]) {
				j++
			}
			switch content[i:j] {
			case "Tj", "TJ":
				flush()
			case "Td", "TD", "Tm", "T*", "BT", "ET":
				needSpace = true
				pending.Reset()
			default:
				pending.Reset()
			}
			i = j
		default:
			i++
		}
	}

	return strings.TrimSpace(out.String())
}

func isOperatorByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '*'
}

// readLiteral decodes a balanced (...) string starting at s[0] and returns the
// text and the number of bytes consumed. Bytes are read as Latin-1.
func readLiteral(s string) (string, int) {
	var b strings.Builder
	depth := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '(':
			depth++
			if depth > 1 {
				b.WriteByte('(')
			}
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return b.String(), i
			}
			b.WriteByte(')')
		case '\\':
			if i+1 >= len(s) {
				return b.String(), len(s)
			}
			next := s[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
				i += 2
			case 'r':
				b.WriteByte('\r')
				i += 2
			case 't':
				b.WriteByte('\t')
				i += 2
			case 'b', 'f':
				i += 2
			case '\n':
				i += 2
			case '\r':
				i += 2
				if i < len(s) && s[i] == '\n' {
					i++
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				j := i + 1
				for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				// high-order overflow is ignored: \777 is 0xff
				v, _ := strconv.ParseUint(s[i+1:j], 8, 16)
				b.WriteRune(rune(v & 0xff))
				i = j
			default:
				b.WriteByte(next)
				i += 2
			}
		default:
			if c < 0x80 {
				b.WriteByte(c)
			} else {
				b.WriteRune(rune(c))
			}
			i++
		}
	}
	return b.String(), len(s)
}

// readHex decodes a <...> hex string starting at s[0].
func readHex(s string) (string, int) {
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return "", len(s)
	}

	digits := strings.Map(func(r rune) rune {
		if strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return r
		}
		return -1
	}, s[1:end])
	if len(digits)%2 == 1 {
		digits += "0"
	}

	var b strings.Builder
	for i := 0; i+1 < len(digits); i += 2 {
		v, _ := strconv.ParseUint(digits[i:i+2], 16, 8)
		if v < 0x80 {
			b.WriteByte(byte(v))
		} else {
			b.WriteRune(rune(v))
		}
	}
	return b.String(), end + 1
}
